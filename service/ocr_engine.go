package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/EllieChoi1998/poc-backend/apperr"
	"github.com/EllieChoi1998/poc-backend/model"
)

// OcrEngine is the HTTP client for the remote OCR vendor. One instance
// is constructed at startup and injected wherever OCR calls are made.
type OcrEngine struct {
	licenseKey      string
	ocrURL          string
	downloadURL     string
	workerStatusURL string
	httpClient      *http.Client
}

// NewOcrEngine validates the license key and server address and
// normalizes the base URL: scheme defaults to http://, trailing slashes
// are stripped.
func NewOcrEngine(licenseKey, serverAddr string) (*OcrEngine, error) {
	if strings.TrimSpace(licenseKey) == "" {
		return nil, apperr.Validation("ocr license key is required")
	}
	if strings.TrimSpace(serverAddr) == "" {
		return nil, apperr.Validation("ocr server address is required")
	}

	base := serverAddr
	lower := strings.ToLower(base)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")

	engine := &OcrEngine{
		licenseKey:      licenseKey,
		ocrURL:          base + "/do-ocr/",
		downloadURL:     base + "/download_file/",
		workerStatusURL: base + "/worker-status/",
		// Vendor calls for large pages have been observed in the
		// 60-180s range; the per-call deadline is the only timeout.
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}

	slog.Info("ocr engine initialized", "ocr_url", engine.ocrURL)
	return engine, nil
}

// OcrRequest describes one page-level OCR submission.
type OcrRequest struct {
	FileName    string // original file name, used for content-type detection
	Data        []byte // file bytes to submit
	Fid         string // vendor file id from a previous page, if known
	PageIndex   int    // 0-based page index
	Path        string // vendor-side render path
	Restoration string
	RotAngle    bool
	BboxROI     string
	SourceType  string // "local" for first submission
	RecogForm   bool
}

// Ocr submits one page to the vendor and parses the response. There is
// no retry built in; the caller decides.
func (e *OcrEngine) Ocr(ctx context.Context, req *OcrRequest) (*model.OcrResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="imagefile"; filename="%s"`, filepath.Base(req.FileName)))
	header.Set("Content-Type", contentTypeForFile(req.FileName))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}

	fields := map[string]string{
		"fid":         req.Fid,
		"page_index":  strconv.Itoa(req.PageIndex),
		"path":        req.Path,
		"lic":         e.licenseKey,
		"restoration": req.Restoration,
		"rot_angle":   strconv.FormatBool(req.RotAngle),
		"bbox_roi":    req.BboxROI,
		"type":        req.SourceType,
		"recog_form":  strconv.FormatBool(req.RecogForm),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ocrURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}

	slog.Debug("ocr request completed",
		"page_index", req.PageIndex,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		slog.Error("ocr request failed",
			"status", resp.StatusCode, "body", string(respBody))
		return nil, &apperr.VendorError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return parseOcrResponse(respBody)
}

// DownloadImage fetches a rendered page image from the vendor.
func (e *OcrEngine) DownloadImage(ctx context.Context, path string) ([]byte, error) {
	form := url.Values{}
	form.Set("lic", e.licenseKey)
	form.Set("path", path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.downloadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("file download failed",
			"status", resp.StatusCode, "path", path, "body", string(respBody))
		return nil, &apperr.VendorError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// WorkerStatus reports the vendor's worker pool health.
func (e *OcrEngine) WorkerStatus(ctx context.Context) (*model.WorkerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.workerStatusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.VendorError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.VendorError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var status model.WorkerStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, apperr.Validation("invalid worker status response: %v", err)
	}
	return &status, nil
}

// vendorResponse mirrors the vendor's top-level JSON envelope.
type vendorResponse struct {
	Fid       string          `json:"fid"`
	TotalPage int             `json:"totalpage"`
	Rotate    float64         `json:"rotate"`
	FilePath  string          `json:"file_path"`
	OcrResult json.RawMessage `json:"ocr_result"`
}

type vendorEntry struct {
	Text  string  `json:"text"`
	Bbox  [][]int `json:"bbox"`
	Score float64 `json:"score"`
}

// parseOcrResponse translates the vendor JSON into an OcrResult. A
// missing, null or non-array ocr_result field is a parse failure, never
// a silently empty result.
func parseOcrResponse(body []byte) (*model.OcrResult, error) {
	if len(body) == 0 {
		return nil, apperr.Validation("ocr vendor returned an empty response")
	}

	var envelope vendorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperr.Validation("invalid ocr response: %v", err)
	}
	if len(envelope.OcrResult) == 0 || string(envelope.OcrResult) == "null" {
		return nil, apperr.Validation("ocr response is missing the ocr_result field")
	}

	var entries []vendorEntry
	if err := json.Unmarshal(envelope.OcrResult, &entries); err != nil {
		return nil, apperr.Validation("ocr_result is not an array: %v", err)
	}

	var textParts []string
	var boxes []model.OcrBox
	for _, entry := range entries {
		if entry.Text != "" {
			textParts = append(textParts, entry.Text)
		}
		if len(entry.Bbox) == 4 &&
			len(entry.Bbox[0]) >= 2 && len(entry.Bbox[1]) >= 2 &&
			len(entry.Bbox[2]) >= 2 && len(entry.Bbox[3]) >= 2 {
			boxes = append(boxes, model.OcrBox{
				Label:           entry.Text,
				LeftTop:         model.Point{X: entry.Bbox[0][0], Y: entry.Bbox[0][1]},
				RightTop:        model.Point{X: entry.Bbox[1][0], Y: entry.Bbox[1][1]},
				RightBottom:     model.Point{X: entry.Bbox[2][0], Y: entry.Bbox[2][1]},
				LeftBottom:      model.Point{X: entry.Bbox[3][0], Y: entry.Bbox[3][1]},
				ConfidenceScore: entry.Score,
			})
		}
	}

	return &model.OcrResult{
		Fid:          envelope.Fid,
		TotalPages:   envelope.TotalPage,
		Rotate:       envelope.Rotate,
		FullText:     strings.TrimSpace(strings.Join(textParts, " ")),
		PageFileData: envelope.FilePath,
		Boxes:        boxes,
	}, nil
}

func contentTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
