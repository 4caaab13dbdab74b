package repository

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/EllieChoi1998/poc-backend/model"
)

// OcrFileUpdate carries the partially updatable fields of an OCR file
// row. Nil fields are left untouched; an update with no fields set is a
// successful no-op.
type OcrFileUpdate struct {
	TotalPage *int
	Fid       *string
	Status    *string
}

// OcrRepository persists OCR files, pages and boxes. Unlike the contract
// and user repositories it uses the sentinel error strategy: storage
// failures are logged and converted to zero-value returns so the
// background OCR job can mark the file ERROR instead of crashing.
type OcrRepository struct {
	db *gorm.DB
}

func NewOcrRepository(db *gorm.DB) *OcrRepository {
	return &OcrRepository{db: db}
}

// SaveFile inserts an OCR file row and returns its id, or 0 on failure.
func (r *OcrRepository) SaveFile(ctx context.Context, file *model.OcrFile) int64 {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		slog.Error("failed to save ocr file", "file_name", file.FileName, "error", err)
		return 0
	}
	return file.ID
}

// UpdateFile applies the non-nil fields of update to an OCR file row.
func (r *OcrRepository) UpdateFile(ctx context.Context, fileID int64, update OcrFileUpdate) bool {
	fields := map[string]any{}
	if update.TotalPage != nil {
		fields["total_page"] = *update.TotalPage
	}
	if update.Fid != nil {
		fields["fid"] = *update.Fid
	}
	if update.Status != nil {
		fields["ocr_file_status"] = *update.Status
	}
	if len(fields) == 0 {
		return true
	}

	err := r.db.WithContext(ctx).Model(&model.OcrFile{}).
		Where("id = ?", fileID).
		Updates(fields).Error
	if err != nil {
		slog.Error("failed to update ocr file", "file_id", fileID, "error", err)
		return false
	}
	return true
}

// SavePage inserts an OCR page row and returns its id, or 0 on failure.
func (r *OcrRepository) SavePage(ctx context.Context, page *model.OcrPage) int64 {
	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		slog.Error("failed to save ocr page",
			"file_id", page.OcrFileID, "page", page.Page, "error", err)
		return 0
	}
	return page.ID
}

// SaveBoxes bulk-inserts the detected boxes of one page. An empty list
// is a no-op success.
func (r *OcrRepository) SaveBoxes(ctx context.Context, pageID int64, boxes []model.OcrBox) bool {
	if len(boxes) == 0 {
		return true
	}

	rows := make([]model.OcrBox, len(boxes))
	for i, box := range boxes {
		box.ID = 0
		box.OcrPageID = pageID
		rows[i] = box
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		slog.Error("failed to save ocr boxes", "page_id", pageID, "count", len(boxes), "error", err)
		return false
	}
	return true
}

func (r *OcrRepository) GetFileByID(ctx context.Context, fileID int64) *model.OcrFile {
	var file model.OcrFile
	err := r.db.WithContext(ctx).First(&file, fileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		slog.Error("failed to get ocr file", "file_id", fileID, "error", err)
		return nil
	}
	return &file
}

// GetLatestFileByContract returns the newest OCR file row for a
// contract. The latest run is authoritative.
func (r *OcrRepository) GetLatestFileByContract(ctx context.Context, contractID int64) *model.OcrFile {
	var file model.OcrFile
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_date DESC").
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		slog.Error("failed to get ocr file by contract", "contract_id", contractID, "error", err)
		return nil
	}
	return &file
}

// GetPagesByFile returns a file's pages in ascending page order.
func (r *OcrRepository) GetPagesByFile(ctx context.Context, fileID int64) []model.OcrPage {
	var pages []model.OcrPage
	err := r.db.WithContext(ctx).
		Where("ocr_file_id = ?", fileID).
		Order("page").
		Find(&pages).Error
	if err != nil {
		slog.Error("failed to get ocr pages", "file_id", fileID, "error", err)
		return nil
	}
	return pages
}

func (r *OcrRepository) GetBoxesByPage(ctx context.Context, pageID int64) []model.OcrBox {
	var boxes []model.OcrBox
	err := r.db.WithContext(ctx).
		Where("ocr_page_id = ?", pageID).
		Order("id").
		Find(&boxes).Error
	if err != nil {
		slog.Error("failed to get ocr boxes", "page_id", pageID, "error", err)
		return nil
	}
	return boxes
}

// GetResultByContract reconstructs a contract's full OCR result: the
// latest file row plus each page with its boxes. Returns nil when no
// file exists for the contract.
func (r *OcrRepository) GetResultByContract(ctx context.Context, contractID int64) *model.OcrAggregate {
	file := r.GetLatestFileByContract(ctx, contractID)
	if file == nil {
		return nil
	}

	pages := r.GetPagesByFile(ctx, file.ID)
	withBoxes := make([]model.OcrPageWithBoxes, 0, len(pages))
	for _, page := range pages {
		withBoxes = append(withBoxes, model.OcrPageWithBoxes{
			PageInfo: page,
			Boxes:    r.GetBoxesByPage(ctx, page.ID),
		})
	}

	return &model.OcrAggregate{
		FileInfo:   *file,
		Pages:      withBoxes,
		TotalPages: len(pages),
	}
}
