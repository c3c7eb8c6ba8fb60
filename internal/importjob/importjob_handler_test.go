package importjob_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Lasher77/CompanyDB/internal/importjob"
	"github.com/Lasher77/CompanyDB/internal/shared/apperror"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeJobService struct {
	createFn       func(ctx context.Context, req importjob.CreateImportJobRequest) (importjob.ImportJobResponse, error)
	getByIDFn      func(ctx context.Context, id string) (importjob.ImportJobResponse, error)
	listFn         func(ctx context.Context) ([]importjob.ImportJobResponse, error)
	listFilesFn    func(ctx context.Context) ([]importjob.ImportFileInfo, error)
	startReindexFn func(ctx context.Context) error
}

func (f *fakeJobService) Create(ctx context.Context, req importjob.CreateImportJobRequest) (importjob.ImportJobResponse, error) {
	return f.createFn(ctx, req)
}

func (f *fakeJobService) GetByID(ctx context.Context, id string) (importjob.ImportJobResponse, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeJobService) List(ctx context.Context) ([]importjob.ImportJobResponse, error) {
	return f.listFn(ctx)
}

func (f *fakeJobService) ListFiles(ctx context.Context) ([]importjob.ImportFileInfo, error) {
	return f.listFilesFn(ctx)
}

func (f *fakeJobService) StartReindex(ctx context.Context) error {
	return f.startReindexFn(ctx)
}

func newJobRouter(svc importjob.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := importjob.NewHandler(svc)

	noop := func(c *gin.Context) { c.Next() }
	importjob.RegisterRoutes(r.Group("/api/v1"), handler, noop)
	return r
}

func TestHandlerCreateAccepted(t *testing.T) {
	svc := &fakeJobService{
		createFn: func(ctx context.Context, req importjob.CreateImportJobRequest) (importjob.ImportJobResponse, error) {
			assert.Equal(t, "dump.jsonl", req.Filename)
			return importjob.ImportJobResponse{
				ID:       "7b0d6a7e-0000-0000-0000-000000000001",
				Filename: req.Filename,
				Status:   string(importjob.StatusPending),
			}, nil
		},
	}
	router := newJobRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", strings.NewReader(`{"filename":"dump.jsonl"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var resp importjob.ImportJobResponse
	assert.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "pending", resp.Status)
}

func TestHandlerCreateValidation(t *testing.T) {
	svc := &fakeJobService{
		createFn: func(ctx context.Context, req importjob.CreateImportJobRequest) (importjob.ImportJobResponse, error) {
			t.Fatal("service must not be called on validation failure")
			return importjob.ImportJobResponse{}, nil
		},
	}
	router := newJobRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	assert.NotNil(t, env.Error)
}

func TestHandlerGetByIDNotFound(t *testing.T) {
	svc := &fakeJobService{
		getByIDFn: func(ctx context.Context, id string) (importjob.ImportJobResponse, error) {
			return importjob.ImportJobResponse{}, importjob.ErrJobNotFound
		},
	}
	router := newJobRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeNotFound, env.Error.Code)
	}
}

func TestHandlerListFiles(t *testing.T) {
	svc := &fakeJobService{
		listFilesFn: func(ctx context.Context) ([]importjob.ImportFileInfo, error) {
			return []importjob.ImportFileInfo{
				{Filename: "dump.jsonl", SizeBytes: 2048, SizeHuman: "2.0 KB"},
			}, nil
		},
	}
	router := newJobRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/files", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var files []importjob.ImportFileInfo
	assert.NoError(t, json.Unmarshal(env.Data, &files))
	if assert.Len(t, files, 1) {
		assert.Equal(t, "2.0 KB", files[0].SizeHuman)
	}
}

func TestHandlerReindexDisabled(t *testing.T) {
	svc := &fakeJobService{
		startReindexFn: func(ctx context.Context) error {
			return apperror.ErrSearchDisabled
		},
	}
	router := newJobRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/reindex", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, apperror.CodeInvalidState, env.Error.Code)
	}
}
