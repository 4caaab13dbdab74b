package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/EllieChoi1998/poc-backend/apperr"
	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/repository"
	"github.com/EllieChoi1998/poc-backend/storage"
)

// ContractService owns the contract lifecycle: upload, the 0-4 review
// state machine, and the read side of each contract's OCR run.
type ContractService struct {
	contracts *repository.ContractRepository
	ocrRepo   *repository.OcrRepository
	users     *UserService
	ocr       *OcrService
	store     storage.Store
}

func NewContractService(
	contracts *repository.ContractRepository,
	ocrRepo *repository.OcrRepository,
	users *UserService,
	ocr *OcrService,
	store storage.Store,
) *ContractService {
	return &ContractService{
		contracts: contracts,
		ocrRepo:   ocrRepo,
		users:     users,
		ocr:       ocr,
		store:     store,
	}
}

// validPathComponent rejects names that would change the stored object's
// location. Contract and file names become path segments under the
// storage root, so separators and dot segments are not allowed.
func validPathComponent(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Upload validates the uploader and the (contractName, fileName)
// uniqueness, persists the file, creates the contract row at state 0 and
// kicks off OCR in the background. OCR failure is never reported here;
// it is only observable by polling GetOcrResult.
func (s *ContractService) Upload(ctx context.Context, uploaderID int64, contractName, fileName string, reader io.Reader, size int64, contentType string) (*model.UploadResponse, error) {
	if err := s.users.Validate(ctx, uploaderID); err != nil {
		return nil, err
	}
	if !validPathComponent(contractName) {
		return nil, apperr.Validation("invalid contract name %q", contractName)
	}
	if !validPathComponent(fileName) {
		return nil, apperr.Validation("invalid file name %q", fileName)
	}

	existing, err := s.contracts.FindByNameAndFile(ctx, contractName, fileName)
	if err != nil {
		return nil, apperr.Storage(err, "failed to check for duplicate contract")
	}
	if existing != nil {
		return nil, apperr.Duplicate("contract %q with file %q already exists; delete it before uploading again", contractName, fileName)
	}

	objectName := fmt.Sprintf("contracts/original/%s_%s", contractName, fileName)
	storedPath, err := s.store.Save(ctx, objectName, reader, size, contentType)
	if err != nil {
		return nil, apperr.Storage(err, "failed to persist uploaded file")
	}

	contractID, err := s.contracts.Create(ctx, uploaderID, contractName, fileName)
	if errors.Is(err, repository.ErrDuplicateContract) {
		// A concurrent upload of the same pair won the insert race.
		return nil, apperr.Duplicate("contract %q with file %q already exists; delete it before uploading again", contractName, fileName)
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to create contract")
	}

	ocrResp := s.ocr.ProcessFile(ctx, objectName, storedPath, &contractID)

	return &model.UploadResponse{
		Message:    "contract uploaded successfully",
		FilePath:   storedPath,
		ContractID: contractID,
		OcrResult:  ocrResp,
	}, nil
}

func (s *ContractService) ListAll(ctx context.Context, userID int64) ([]model.Contract, error) {
	if err := s.users.Validate(ctx, userID); err != nil {
		return nil, err
	}
	contracts, err := s.contracts.GetAll(ctx)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list contracts")
	}
	return contracts, nil
}

// ListByState returns the contracts in one lifecycle bucket.
func (s *ContractService) ListByState(ctx context.Context, userID int64, state int) ([]model.Contract, error) {
	if err := s.users.Validate(ctx, userID); err != nil {
		return nil, err
	}
	if state < model.StateUploaded || state > model.StateKeypointFinished {
		return nil, apperr.Validation("unknown contract state %d", state)
	}
	contracts, err := s.contracts.GetByState(ctx, state)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list contracts in state %d", state)
	}
	return contracts, nil
}

// requireState loads the contract and checks it sits in the expected
// predecessor state. Out-of-order jumps are rejected.
func (s *ContractService) requireState(ctx context.Context, contractID int64, expected int) (*model.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up contract %d", contractID)
	}
	if contract == nil {
		return nil, apperr.NotFound("contract %d does not exist", contractID)
	}
	if contract.CurrentState != expected {
		return nil, apperr.Validation("contract %d is in state %d, expected %d",
			contractID, contract.CurrentState, expected)
	}
	return contract, nil
}

// ProcessChecklist moves an uploaded contract into checklist review,
// recording the reviewer.
func (s *ContractService) ProcessChecklist(ctx context.Context, processerID, contractID int64) error {
	if err := s.users.Validate(ctx, processerID); err != nil {
		return err
	}
	if _, err := s.requireState(ctx, contractID, model.StateUploaded); err != nil {
		return err
	}
	if err := s.contracts.ProcessChecklist(ctx, processerID, contractID); err != nil {
		return apperr.Storage(err, "failed to start checklist review for contract %d", contractID)
	}
	return nil
}

// FinishChecklist closes checklist review, storing the printable
// checklist path.
func (s *ContractService) FinishChecklist(ctx context.Context, contractID int64, printablePath string) error {
	if _, err := s.requireState(ctx, contractID, model.StateChecklistOnProgress); err != nil {
		return err
	}
	if err := s.contracts.FinishChecklist(ctx, contractID, printablePath); err != nil {
		return apperr.Storage(err, "failed to finish checklist review for contract %d", contractID)
	}
	return nil
}

// ProcessKeypoint moves a checklist-finished contract into keypoint
// review, recording the reviewer.
func (s *ContractService) ProcessKeypoint(ctx context.Context, processerID, contractID int64) error {
	if err := s.users.Validate(ctx, processerID); err != nil {
		return err
	}
	if _, err := s.requireState(ctx, contractID, model.StateChecklistFinished); err != nil {
		return err
	}
	if err := s.contracts.ProcessKeypoint(ctx, processerID, contractID); err != nil {
		return apperr.Storage(err, "failed to start keypoint review for contract %d", contractID)
	}
	return nil
}

// FinishKeypoint closes keypoint review, the terminal lifecycle state.
func (s *ContractService) FinishKeypoint(ctx context.Context, contractID int64) error {
	if _, err := s.requireState(ctx, contractID, model.StateKeypointOnProgress); err != nil {
		return err
	}
	if err := s.contracts.FinishKeypoint(ctx, contractID); err != nil {
		return apperr.Storage(err, "failed to finish keypoint review for contract %d", contractID)
	}
	return nil
}

// GetOcrResult maps the contract's latest OCR run onto the polling
// response: processing, error, complete (with the full aggregate), or
// not_found when the contract or its OCR file is missing.
func (s *ContractService) GetOcrResult(ctx context.Context, contractID int64) (*model.OcrResultResponse, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up contract %d", contractID)
	}
	if contract == nil {
		return &model.OcrResultResponse{
			Success:   false,
			Message:   "contract not found",
			OcrStatus: model.OcrResultNotFound,
		}, nil
	}

	file := s.ocrRepo.GetLatestFileByContract(ctx, contractID)
	if file == nil {
		return &model.OcrResultResponse{
			Success:   false,
			Message:   "no OCR result for this contract",
			OcrStatus: model.OcrResultNotFound,
		}, nil
	}

	switch file.Status {
	case model.OcrFileStatusError:
		return &model.OcrResultResponse{
			Success:   true,
			Message:   "OCR processing failed",
			OcrStatus: model.OcrResultError,
		}, nil
	case model.OcrFileStatusComplete:
		return &model.OcrResultResponse{
			Success:   true,
			Message:   "OCR processing complete",
			OcrStatus: model.OcrResultComplete,
			Result:    s.ocrRepo.GetResultByContract(ctx, contractID),
		}, nil
	default:
		// READY (queued) and PROCESSING both report processing; the
		// client keeps polling.
		return &model.OcrResultResponse{
			Success:   true,
			Message:   "OCR processing in progress",
			OcrStatus: model.OcrResultProcessing,
		}, nil
	}
}

// Delete removes a contract row. Repository-level only; OCR lineage rows
// are kept as independent storage rows.
func (s *ContractService) Delete(ctx context.Context, userID, contractID int64) error {
	if err := s.users.Validate(ctx, userID); err != nil {
		return err
	}
	deleted, err := s.contracts.Delete(ctx, contractID)
	if err != nil {
		return apperr.Storage(err, "failed to delete contract %d", contractID)
	}
	if !deleted {
		return apperr.NotFound("contract %d does not exist", contractID)
	}
	return nil
}
