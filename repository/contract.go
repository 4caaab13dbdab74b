package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EllieChoi1998/poc-backend/model"
)

// ErrDuplicateContract reports an insert that collided with the
// (contract_name, file_name) unique index. Concurrent uploads of the
// same pair can both pass the pre-insert lookup; the index is the
// authority.
var ErrDuplicateContract = errors.New("contract with this name and file already exists")

// ContractRepository persists contract rows and their lifecycle state.
// It uses the propagating error strategy: storage failures are returned
// to the caller and abort the operation.
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a new contract at state 0 and returns its id.
func (r *ContractRepository) Create(ctx context.Context, uploaderID int64, contractName, fileName string) (int64, error) {
	contract := &model.Contract{
		ContractName: contractName,
		FileName:     fileName,
		UploaderID:   uploaderID,
		CurrentState: model.StateUploaded,
	}
	if err := r.db.WithContext(ctx).Create(contract).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrDuplicateContract
		}
		return 0, err
	}
	return contract.ID, nil
}

func (r *ContractRepository) FindByID(ctx context.Context, id int64) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).First(&contract, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByNameAndFile looks up a contract by its (contract_name, file_name)
// pair, the uniqueness key for uploads.
func (r *ContractRepository) FindByNameAndFile(ctx context.Context, contractName, fileName string) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Where("contract_name = ? AND file_name = ?", contractName, fileName).
		First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetAll(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	if err := r.db.WithContext(ctx).Order("id").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// GetByState returns the contracts currently in one lifecycle bucket.
func (r *ContractRepository) GetByState(ctx context.Context, state int) ([]model.Contract, error) {
	var contracts []model.Contract
	if err := r.db.WithContext(ctx).
		Where("current_state = ?", state).
		Order("id").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ProcessChecklist records the checklist reviewer and moves the contract
// to state 1.
func (r *ContractRepository) ProcessChecklist(ctx context.Context, processerID, contractID int64) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", contractID).
		Updates(map[string]any{
			"checklist_processer_id": processerID,
			"checklist_processed_at": time.Now(),
			"current_state":          model.StateChecklistOnProgress,
		}).Error
}

// FinishChecklist stores the printable checklist path and moves the
// contract to state 2.
func (r *ContractRepository) FinishChecklist(ctx context.Context, contractID int64, printablePath string) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", contractID).
		Updates(map[string]any{
			"checklist_printable_file_path": printablePath,
			"current_state":                 model.StateChecklistFinished,
		}).Error
}

// ProcessKeypoint records the keypoint reviewer and moves the contract to
// state 3.
func (r *ContractRepository) ProcessKeypoint(ctx context.Context, processerID, contractID int64) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", contractID).
		Updates(map[string]any{
			"keypoint_processer_id": processerID,
			"keypoint_processed_at": time.Now(),
			"current_state":         model.StateKeypointOnProgress,
		}).Error
}

// FinishKeypoint moves the contract to its terminal state 4.
func (r *ContractRepository) FinishKeypoint(ctx context.Context, contractID int64) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", contractID).
		Update("current_state", model.StateKeypointFinished).Error
}

// Delete removes a contract row. Returns true when a row was deleted.
func (r *ContractRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Contract{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
