package model

import (
	"time"
)

// Contract lifecycle states. A contract only ever moves forward through
// these values; transition calls reject out-of-order jumps.
const (
	StateUploaded            = 0 // uploaded, unprocessed
	StateChecklistOnProgress = 1 // checklist review in progress
	StateChecklistFinished   = 2 // checklist review finished
	StateKeypointOnProgress  = 3 // keypoint review in progress
	StateKeypointFinished    = 4 // keypoint review finished
)

// Contract represents an uploaded contract document progressing through
// the checklist/keypoint review lifecycle.
type Contract struct {
	ID                         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ContractName               string     `gorm:"size:255;not null;uniqueIndex:idx_contract_file" json:"contract_name"`
	FileName                   string     `gorm:"size:255;not null;uniqueIndex:idx_contract_file" json:"file_name"`
	EmbeddingID                *string    `gorm:"size:255" json:"embedding_id,omitempty"`
	UploaderID                 int64      `gorm:"not null;index" json:"uploader_id"`
	ChecklistProcesserID       *int64     `json:"checklist_processer_id,omitempty"`
	KeypointProcesserID        *int64     `json:"keypoint_processer_id,omitempty"`
	UploadedAt                 time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	ChecklistProcessedAt       *time.Time `json:"checklist_processed_at,omitempty"`
	KeypointProcessedAt        *time.Time `json:"keypoint_processed_at,omitempty"`
	ChecklistPrintableFilePath *string    `gorm:"size:512" json:"checklist_printable_file_path,omitempty"`
	CurrentState               int        `gorm:"not null;default:0;index" json:"current_state"`
}

func (Contract) TableName() string { return "contract" }

// UploadResponse is the payload returned by the contract upload endpoint.
type UploadResponse struct {
	Message    string              `json:"message"`
	FilePath   string              `json:"file_path"`
	ContractID int64               `json:"contract_id"`
	OcrResult  *OcrProcessResponse `json:"ocr_result,omitempty"`
}
