package model

import (
	"time"
)

// OCR engine types. GMS is the only vendor currently wired.
const (
	OcrEngineGMS = "GMS"
)

// OcrFile status values. READY is the row's state at creation;
// COMPLETE and ERROR are terminal.
const (
	OcrFileStatusReady      = "READY"
	OcrFileStatusProcessing = "PROCESSING"
	OcrFileStatusComplete   = "COMPLETE"
	OcrFileStatusError      = "ERROR"
)

// Per-page OCR status values.
const (
	OcrStatusSuccess = "SUCCESS"
	OcrStatusFail    = "FAIL"
)

// OcrFile is one OCR run over an uploaded document. The vendor file id
// and total page count are unknown until the first page's response.
type OcrFile struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	FilePath    string    `gorm:"size:512;not null" json:"file_path"`
	EngineType  string    `gorm:"size:20;not null" json:"engine_type"`
	Status      string    `gorm:"column:ocr_file_status;size:20;not null" json:"ocr_file_status"`
	TotalPage   int       `gorm:"not null;default:0" json:"total_page"`
	Fid         string    `gorm:"size:100" json:"fid"`
	ContractID  *int64    `gorm:"index" json:"contract_id,omitempty"`
	CreatedDate time.Time `gorm:"not null" json:"created_date"`
}

func (OcrFile) TableName() string { return "ocr_files" }

// OcrPage holds the extracted text of one page. Rows are written once as
// the page completes and never mutated.
type OcrPage struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OcrFileID      int64     `gorm:"not null;index" json:"ocr_file_id"`
	Page           int       `gorm:"not null" json:"page"`
	FullText       string    `gorm:"type:text" json:"full_text"`
	ExecutedAt     time.Time `gorm:"not null" json:"executed_at"`
	ExecuteSeconds float64   `gorm:"not null" json:"execute_seconds"`
	Status         string    `gorm:"column:ocr_status;size:20;not null" json:"ocr_status"`
	PageFileData   string    `gorm:"size:512" json:"page_file_data"`
	Rotate         float64   `json:"rotate"`
}

func (OcrPage) TableName() string { return "ocr_pages" }

// Point is an (x, y) pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OcrBox is one detected text region with its four corners in fixed
// order. Persisted in bulk alongside its page.
type OcrBox struct {
	ID              int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OcrPageID       int64   `gorm:"not null;index" json:"ocr_page_id"`
	Label           string  `gorm:"type:text" json:"label"`
	LeftTop         Point   `gorm:"embedded;embeddedPrefix:left_top_" json:"left_top"`
	RightTop        Point   `gorm:"embedded;embeddedPrefix:right_top_" json:"right_top"`
	RightBottom     Point   `gorm:"embedded;embeddedPrefix:right_bottom_" json:"right_bottom"`
	LeftBottom      Point   `gorm:"embedded;embeddedPrefix:left_bottom_" json:"left_bottom"`
	ConfidenceScore float64 `json:"confidence_score"`
}

func (OcrBox) TableName() string { return "ocr_boxes" }

// OcrResult is the parsed outcome of a single vendor OCR call.
type OcrResult struct {
	Fid          string   `json:"fid"`
	TotalPages   int      `json:"total_pages"`
	Rotate       float64  `json:"rotate"`
	FullText     string   `json:"full_text"`
	PageFileData string   `json:"page_file_data"`
	Boxes        []OcrBox `json:"boxes"`
}

// WorkerStatus is the OCR server's worker pool health report.
type WorkerStatus struct {
	NumWorkers int    `json:"num_workers"`
	NumBusy    int    `json:"num_busy"`
	WorkerBusy []bool `json:"worker_busy"`
}

// OcrProcessResponse reports the outcome of an OCR kickoff request.
type OcrProcessResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OcrFileID int64  `json:"ocr_file_id,omitempty"`
	OcrStatus string `json:"ocr_status"`
}

// OCR status strings reported to clients polling for a result.
const (
	OcrResultProcessing = "processing"
	OcrResultComplete   = "complete"
	OcrResultError      = "error"
	OcrResultNotFound   = "not_found"
	OcrResultFailed     = "failed"
)

// OcrPageWithBoxes pairs a page row with its detected boxes.
type OcrPageWithBoxes struct {
	PageInfo OcrPage  `json:"page_info"`
	Boxes    []OcrBox `json:"boxes"`
}

// OcrAggregate is the full OCR result for one contract: the latest file
// row plus every page in ascending order with its boxes.
type OcrAggregate struct {
	FileInfo   OcrFile            `json:"file_info"`
	Pages      []OcrPageWithBoxes `json:"pages"`
	TotalPages int                `json:"total_pages"`
}

// OcrResultResponse is the poll-side view of a contract's OCR run.
type OcrResultResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	OcrStatus string        `json:"ocr_status"`
	Result    *OcrAggregate `json:"result,omitempty"`
}
