package repository

import (
	"context"
	"errors"
	"testing"
)

func TestContractCreateAndFind(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, 1, "acme-master", "deal.pdf")
	if err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero contract id")
	}

	contract, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("Failed to find contract: %v", err)
	}
	if contract == nil {
		t.Fatal("Expected contract to exist")
	}
	if contract.ContractName != "acme-master" {
		t.Errorf("Expected contract name acme-master, got %s", contract.ContractName)
	}
	if contract.CurrentState != 0 {
		t.Errorf("Expected new contract at state 0, got %d", contract.CurrentState)
	}
	if contract.UploaderID != 1 {
		t.Errorf("Expected uploader 1, got %d", contract.UploaderID)
	}

	// Missing id resolves to nil, not an error
	missing, err := repo.FindByID(ctx, 9999)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing contract")
	}
}

func TestContractCreateDuplicatePair(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, 1, "acme-master", "deal.pdf"); err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	// The unique index on (contract_name, file_name) surfaces as the
	// sentinel, not a raw driver error
	_, err := repo.Create(ctx, 2, "acme-master", "deal.pdf")
	if !errors.Is(err, ErrDuplicateContract) {
		t.Errorf("Expected ErrDuplicateContract, got %v", err)
	}

	// A different file under the same contract name is a distinct pair
	if _, err := repo.Create(ctx, 1, "acme-master", "appendix.pdf"); err != nil {
		t.Errorf("Failed to create distinct pair: %v", err)
	}
}

func TestContractFindByNameAndFile(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, 1, "acme-master", "deal.pdf"); err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	found, err := repo.FindByNameAndFile(ctx, "acme-master", "deal.pdf")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if found == nil {
		t.Fatal("Expected contract to be found")
	}

	// Same contract name with a different file is a distinct pair
	other, err := repo.FindByNameAndFile(ctx, "acme-master", "other.pdf")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if other != nil {
		t.Error("Expected nil for unknown (name, file) pair")
	}
}

func TestContractLifecycleTransitions(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, 1, "acme-master", "deal.pdf")
	if err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	if err := repo.ProcessChecklist(ctx, 7, id); err != nil {
		t.Fatalf("Failed to process checklist: %v", err)
	}
	contract, _ := repo.FindByID(ctx, id)
	if contract.CurrentState != 1 {
		t.Errorf("Expected state 1, got %d", contract.CurrentState)
	}
	if contract.ChecklistProcesserID == nil || *contract.ChecklistProcesserID != 7 {
		t.Error("Expected checklist processer 7 to be recorded")
	}
	if contract.ChecklistProcessedAt == nil {
		t.Error("Expected checklist processed timestamp to be set")
	}

	if err := repo.FinishChecklist(ctx, id, "/printable/acme.pdf"); err != nil {
		t.Fatalf("Failed to finish checklist: %v", err)
	}
	contract, _ = repo.FindByID(ctx, id)
	if contract.CurrentState != 2 {
		t.Errorf("Expected state 2, got %d", contract.CurrentState)
	}
	if contract.ChecklistPrintableFilePath == nil || *contract.ChecklistPrintableFilePath != "/printable/acme.pdf" {
		t.Error("Expected printable path to be recorded")
	}

	if err := repo.ProcessKeypoint(ctx, 9, id); err != nil {
		t.Fatalf("Failed to process keypoint: %v", err)
	}
	contract, _ = repo.FindByID(ctx, id)
	if contract.CurrentState != 3 {
		t.Errorf("Expected state 3, got %d", contract.CurrentState)
	}
	if contract.KeypointProcesserID == nil || *contract.KeypointProcesserID != 9 {
		t.Error("Expected keypoint processer 9 to be recorded")
	}

	if err := repo.FinishKeypoint(ctx, id); err != nil {
		t.Fatalf("Failed to finish keypoint: %v", err)
	}
	contract, _ = repo.FindByID(ctx, id)
	if contract.CurrentState != 4 {
		t.Errorf("Expected state 4, got %d", contract.CurrentState)
	}
}

func TestContractGetByState(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	id1, _ := repo.Create(ctx, 1, "a", "a.pdf")
	id2, _ := repo.Create(ctx, 1, "b", "b.pdf")
	if _, err := repo.Create(ctx, 1, "c", "c.pdf"); err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	if err := repo.ProcessChecklist(ctx, 1, id1); err != nil {
		t.Fatalf("Failed to process checklist: %v", err)
	}
	if err := repo.ProcessChecklist(ctx, 1, id2); err != nil {
		t.Fatalf("Failed to process checklist: %v", err)
	}

	uploaded, err := repo.GetByState(ctx, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(uploaded) != 1 {
		t.Errorf("Expected 1 uploaded contract, got %d", len(uploaded))
	}

	inProgress, err := repo.GetByState(ctx, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(inProgress) != 2 {
		t.Errorf("Expected 2 contracts in checklist review, got %d", len(inProgress))
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 contracts, got %d", len(all))
	}
}

func TestContractDelete(t *testing.T) {
	repo := NewContractRepository(openTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, 1, "acme-master", "deal.pdf")
	if err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}

	deleted, err := repo.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to report a removed row")
	}

	deleted, err = repo.Delete(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if deleted {
		t.Error("Expected second delete to report no removed row")
	}
}
