package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EllieChoi1998/poc-backend/config"
	"github.com/EllieChoi1998/poc-backend/middleware"
	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/repository"
	"github.com/EllieChoi1998/poc-backend/service"
)

func init() {
	gin.SetMode(gin.TestMode)
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

// fakeEngine answers every page with the same scripted result.
type fakeEngine struct {
	totalPages int
}

func (f *fakeEngine) Ocr(ctx context.Context, req *service.OcrRequest) (*model.OcrResult, error) {
	return &model.OcrResult{
		Fid:        "f-test",
		TotalPages: f.totalPages,
		FullText:   fmt.Sprintf("text of page %d", req.PageIndex),
	}, nil
}

type routerFixture struct {
	router   *gin.Engine
	token    string
	userID   int64
	ocrSvc   *service.OcrService
	drainOne sync.Once
}

// drain waits for queued OCR jobs to finish. Safe to call repeatedly.
func (f *routerFixture) drain() {
	f.drainOne.Do(f.ocrSvc.Shutdown)
}

// setupRouter wires the full request path over a throwaway database: auth
// middleware, handlers, services, repositories.
func setupRouter(t *testing.T) *routerFixture {
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

	authCfg := &config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 1}

	userSvc := service.NewUserService(repository.NewUserRepository(db))
	user, err := userSvc.Register(context.Background(), "ellie", "Ellie", "pass1234", "", nil)
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	ocrRepo := repository.NewOcrRepository(db)
	store := newMemStore()
	ocrSvc := service.NewOcrService(&fakeEngine{totalPages: 1}, ocrRepo, store, 1)
	contractSvc := service.NewContractService(
		repository.NewContractRepository(db), ocrRepo, userSvc, ocrSvc, store)

	authHandler := NewAuthHandler(userSvc, authCfg)
	contractHandler := NewContractHandler(contractSvc)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(authCfg))
	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.POST("/contracts/upload", contractHandler.Upload)
	protected.GET("/contracts", contractHandler.ListAll)
	protected.GET("/contracts/uploaded", contractHandler.ListUploaded)
	protected.POST("/contracts/:id/process-checklist", contractHandler.ProcessChecklist)
	protected.POST("/contracts/:id/finish-checklist", contractHandler.FinishChecklist)
	protected.POST("/contracts/:id/process-keypoint", contractHandler.ProcessKeypoint)
	protected.POST("/contracts/:id/finish-keypoint", contractHandler.FinishKeypoint)
	protected.GET("/contracts/:id/ocr-result", contractHandler.GetOcrResult)
	protected.GET("/contracts/:id/ocr-status", contractHandler.GetOcrStatus)
	protected.DELETE("/contracts/:id", contractHandler.Delete)

	token, _, err := middleware.GenerateToken(user.ID, user.LoginID, authCfg)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	f := &routerFixture{router: router, token: token, userID: user.ID, ocrSvc: ocrSvc}
	t.Cleanup(f.drain)
	return f
}

func (f *routerFixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+f.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) doJSON(method, path string, payload any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(payload)
	return f.do(method, path, bytes.NewReader(data), "application/json")
}

// uploadContract submits a multipart upload and returns the response.
func (f *routerFixture) uploadContract(t *testing.T, contractName, fileName string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("contract_name", contractName); err != nil {
		t.Fatalf("Failed to write field: %v", err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("Failed to create file part: %v", err)
	}
	part.Write([]byte("contract body"))
	writer.Close()

	return f.do(http.MethodPost, "/api/contracts/upload", &buf, writer.FormDataContentType())
}

// newUnauthenticatedUpload builds an upload request without a token.
func newUnauthenticatedUpload(t *testing.T) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("contract_name", "acme")
	part, err := writer.CreateFormFile("file", "deal.pdf")
	if err != nil {
		t.Fatalf("Failed to create file part: %v", err)
	}
	part.Write([]byte("contract body"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/contracts/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, httptest.NewRecorder()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}
