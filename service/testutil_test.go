package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/repository"
)

// openTestDB opens a throwaway sqlite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// memStore is an in-memory storage backend for tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Save(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = data
	return "/mem/" + objectName, nil
}

func (s *memStore) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(ctx context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

// fakeEngine is a scripted PageOcr implementation. It records every
// request and fails when the 0-based page index reaches failAt.
type fakeEngine struct {
	mu         sync.Mutex
	requests   []OcrRequest
	totalPages int
	fid        string
	failAt     int // 0-based page index to fail on, -1 to never fail
}

func newFakeEngine(totalPages int, fid string) *fakeEngine {
	return &fakeEngine{totalPages: totalPages, fid: fid, failAt: -1}
}

func (f *fakeEngine) Ocr(ctx context.Context, req *OcrRequest) (*model.OcrResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	if f.failAt >= 0 && req.PageIndex == f.failAt {
		return nil, fmt.Errorf("scripted failure on page %d", req.PageIndex)
	}

	return &model.OcrResult{
		Fid:        f.fid,
		TotalPages: f.totalPages,
		FullText:   fmt.Sprintf("text of page %d", req.PageIndex),
		Boxes: []model.OcrBox{
			{Label: fmt.Sprintf("box-%d", req.PageIndex), ConfidenceScore: 0.9},
		},
	}, nil
}

func (f *fakeEngine) recorded() []OcrRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OcrRequest, len(f.requests))
	copy(out, f.requests)
	return out
}
