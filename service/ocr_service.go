package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/repository"
	"github.com/EllieChoi1998/poc-backend/storage"
)

// PageOcr runs one page-level OCR call against the vendor.
type PageOcr interface {
	Ocr(ctx context.Context, req *OcrRequest) (*model.OcrResult, error)
}

type ocrJob struct {
	objectName string
	fileID     int64
}

// OcrService drives multi-page documents through OCR on a bounded worker
// pool. Each file's page loop is strictly sequential: page N+1 reuses the
// vendor fid discovered on page 0. Cross-file jobs run concurrently up to
// the pool size; excess submissions queue. A started job cannot be
// cancelled; it runs to COMPLETE or its first error.
type OcrService struct {
	engine PageOcr
	repo   *repository.OcrRepository
	store  storage.Store
	jobs   chan ocrJob
	wg     sync.WaitGroup
}

// NewOcrService starts maxWorkers goroutines consuming the job queue.
func NewOcrService(engine PageOcr, repo *repository.OcrRepository, store storage.Store, maxWorkers int) *OcrService {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	s := &OcrService{
		engine: engine,
		repo:   repo,
		store:  store,
		jobs:   make(chan ocrJob, 64),
	}
	for i := 0; i < maxWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Shutdown stops accepting jobs and waits for queued and in-flight files
// to finish. ProcessFile must not be called afterwards.
func (s *OcrService) Shutdown() {
	close(s.jobs)
	s.wg.Wait()
}

// ProcessFile records a READY file row and enqueues the OCR job for the
// stored object. The response reports kickoff status only; completion is
// observed by polling. A storage failure here is reported as a failed
// response, not an error, so the upload itself still succeeds.
func (s *OcrService) ProcessFile(ctx context.Context, objectName, storedPath string, contractID *int64) *model.OcrProcessResponse {
	file := &model.OcrFile{
		FileName:    filepath.Base(objectName),
		FilePath:    storedPath,
		EngineType:  model.OcrEngineGMS,
		Status:      model.OcrFileStatusReady,
		ContractID:  contractID,
		CreatedDate: time.Now(),
	}

	fileID := s.repo.SaveFile(ctx, file)
	if fileID == 0 {
		return &model.OcrProcessResponse{
			Success:   false,
			Message:   "failed to save OCR file record",
			OcrStatus: model.OcrResultFailed,
		}
	}

	s.jobs <- ocrJob{objectName: objectName, fileID: fileID}

	return &model.OcrProcessResponse{
		Success:   true,
		Message:   "OCR processing started",
		OcrFileID: fileID,
		OcrStatus: model.OcrResultProcessing,
	}
}

func (s *OcrService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.processFile(job)
	}
}

// processFile runs off the request path. Every failure terminates in the
// ERROR status marker; pages completed before the failure are kept.
func (s *OcrService) processFile(job ocrJob) {
	ctx := context.Background()

	s.setStatus(ctx, job.fileID, model.OcrFileStatusProcessing)

	data, err := s.readObject(ctx, job.objectName)
	if err != nil {
		s.fail(ctx, job.fileID, 0, err)
		return
	}

	start := time.Now()
	first, err := s.engine.Ocr(ctx, &OcrRequest{
		FileName:   job.objectName,
		Data:       data,
		PageIndex:  0,
		SourceType: "local",
	})
	if err != nil {
		s.fail(ctx, job.fileID, 0, err)
		return
	}
	elapsed := time.Since(start).Seconds()

	// Total page count and vendor fid are only known from the first
	// page's response.
	s.repo.UpdateFile(ctx, job.fileID, repository.OcrFileUpdate{
		TotalPage: &first.TotalPages,
		Fid:       &first.Fid,
	})

	s.savePage(ctx, job.fileID, 1, first, elapsed)

	for pageIdx := 1; pageIdx < first.TotalPages; pageIdx++ {
		start = time.Now()
		result, err := s.engine.Ocr(ctx, &OcrRequest{
			FileName:   job.objectName,
			Data:       data,
			Fid:        first.Fid,
			PageIndex:  pageIdx,
			SourceType: "local",
		})
		if err != nil {
			s.fail(ctx, job.fileID, pageIdx, err)
			return
		}
		s.savePage(ctx, job.fileID, pageIdx+1, result, time.Since(start).Seconds())
	}

	s.setStatus(ctx, job.fileID, model.OcrFileStatusComplete)
	slog.Info("ocr processing complete",
		"file_id", job.fileID, "total_pages", first.TotalPages)
}

func (s *OcrService) readObject(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := s.store.Open(ctx, objectName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// savePage persists one page row (1-based page number) and its boxes.
// Storage failures are sentinel-handled inside the repository; a lost
// page row only means its boxes are skipped.
func (s *OcrService) savePage(ctx context.Context, fileID int64, page int, result *model.OcrResult, seconds float64) {
	pageID := s.repo.SavePage(ctx, &model.OcrPage{
		OcrFileID:      fileID,
		Page:           page,
		FullText:       result.FullText,
		ExecutedAt:     time.Now(),
		ExecuteSeconds: seconds,
		Status:         model.OcrStatusSuccess,
		PageFileData:   result.PageFileData,
		Rotate:         result.Rotate,
	})
	if pageID != 0 && len(result.Boxes) > 0 {
		s.repo.SaveBoxes(ctx, pageID, result.Boxes)
	}
}

func (s *OcrService) fail(ctx context.Context, fileID int64, pageIdx int, err error) {
	slog.Error("ocr processing failed",
		"file_id", fileID, "page_index", pageIdx, "error", err)
	s.setStatus(ctx, fileID, model.OcrFileStatusError)
}

func (s *OcrService) setStatus(ctx context.Context, fileID int64, status string) {
	s.repo.UpdateFile(ctx, fileID, repository.OcrFileUpdate{Status: &status})
}
