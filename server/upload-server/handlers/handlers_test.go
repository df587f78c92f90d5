package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundpost/soundpost/server/core/audio"
	"github.com/soundpost/soundpost/server/core/ccc/db"
	"github.com/soundpost/soundpost/server/core/publishing"
	"github.com/soundpost/soundpost/server/core/uploads"
)

type fakeUploader struct {
	calls   int
	form    uploads.RawUploadForm
	content []byte
	outcome *uploads.Outcome
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, form uploads.RawUploadForm) (*uploads.Outcome, error) {
	f.calls++
	f.form = form
	if form.Video != nil {
		f.content, _ = io.ReadAll(form.Video)
	}
	if f.err != nil {
		return &uploads.Outcome{Result: &uploads.UploadResult{Status: uploads.StatusFailure, Error: f.err.Error()}}, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &uploads.Outcome{
		ID:     "upload-1",
		States: []uploads.State{uploads.StateDone},
		Result: &uploads.UploadResult{Status: uploads.StatusSuccess, Output: "Video uploaded"},
	}, nil
}

type fakeSounds struct {
	names []string
	err   error
}

func (f *fakeSounds) Resolve(name string) (string, error) {
	return "", audio.NewSoundNotFoundError(name)
}

func (f *fakeSounds) List() ([]string, error) {
	return f.names, f.err
}

type fakePreflighter struct {
	err error
}

func (f *fakePreflighter) Preflight(account string) error {
	return f.err
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("video", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func newUploadRouter(uploader Uploader, settings UploadSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/upload", NewUploadHandler(nil, uploader, settings).Upload)
	return router
}

func postUpload(t *testing.T, router *gin.Engine, fields map[string]string, fileName string, content []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	body, contentType := multipartBody(t, fields, fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

var mp4Bytes = []byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00rest")

func TestUpload_Success(t *testing.T) {
	uploader := &fakeUploader{}
	router := newUploadRouter(uploader, UploadSettings{MaxUploadBytes: 1 << 20})

	w, response := postUpload(t, router, map[string]string{
		"description":   "hello",
		"accountname":   "demo",
		"hashtags":      "go,fyp",
		"sound_name":    "beat",
		"sound_aud_vol": "main",
	}, "clip.mp4", mp4Bytes)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Video uploaded successfully", response["message"])
	assert.Equal(t, map[string]interface{}{"status": "success", "output": "Video uploaded"}, response["result"])

	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "clip.mp4", uploader.form.FileName)
	assert.Equal(t, int64(len(mp4Bytes)), uploader.form.Size)
	assert.Equal(t, mp4Bytes, uploader.content)
	assert.Equal(t, "demo", uploader.form.AccountName)
	assert.Equal(t, "go,fyp", uploader.form.Hashtags)
	assert.Equal(t, "beat", uploader.form.SoundName)
	assert.Equal(t, "main", uploader.form.VolumeProfile)
}

func TestUpload_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", uploads.NewValidationError("Invalid file type: only mp4 and mov files are allowed"), http.StatusBadRequest},
		{"not found", uploads.NewNotFoundError("Sound file not found: beat"), http.StatusNotFound},
		{"configuration", uploads.NewConfigurationError("publisher setup error", nil), http.StatusInternalServerError},
		{"enrichment", uploads.NewEnrichmentError("audio mixing failed", nil), http.StatusInternalServerError},
		{"publish", uploads.NewPublishError("publish failed: Traceback\nOutput: ", nil), http.StatusInternalServerError},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUploadRouter(&fakeUploader{err: tt.err}, UploadSettings{})

			w, response := postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.mp4", mp4Bytes)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, map[string]interface{}{"error": tt.err.Error()}, response)
		})
	}
}

func TestUpload_MissingVideoIsLeftToTheOrchestrator(t *testing.T) {
	uploader := &fakeUploader{err: uploads.NewValidationError("No video file provided")}
	router := newUploadRouter(uploader, UploadSettings{})

	w, response := postUpload(t, router, map[string]string{"accountname": "demo"}, "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No video file provided", response["error"])
	assert.Nil(t, uploader.form.Video)
	assert.Equal(t, int64(-1), uploader.form.Size)
}

func TestUpload_BodyTooLarge(t *testing.T) {
	uploader := &fakeUploader{}
	router := newUploadRouter(uploader, UploadSettings{MaxUploadBytes: 1024})

	w, response := postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.mp4", bytes.Repeat([]byte("x"), 64*1024))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, response["error"], "exceeds the limit")
	assert.Equal(t, 0, uploader.calls)
}

func TestUpload_VerifyVideoContent(t *testing.T) {
	uploader := &fakeUploader{}
	router := newUploadRouter(uploader, UploadSettings{VerifyVideoContent: true})

	w, response := postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.mp4", []byte("definitely not a video"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Uploaded file is not a valid video format", response["error"])
	assert.Equal(t, 0, uploader.calls)

	w, _ = postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.mp4", mp4Bytes)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mp4Bytes, uploader.content, "sniffing must not consume the upload")

	fragmented := []byte("\x00\x00\x00\x1cftypiso5\x00\x00\x02\x00iso5iso6mp41")
	w, _ = postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.mp4", fragmented)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpload_VerifyLeavesWrongExtensionToValidation(t *testing.T) {
	uploader := &fakeUploader{err: uploads.NewValidationError("Invalid file type: only mp4 and mov files are allowed")}
	router := newUploadRouter(uploader, UploadSettings{VerifyVideoContent: true})

	w, response := postUpload(t, router, map[string]string{"accountname": "demo"}, "clip.txt", []byte("text"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type: only mp4 and mov files are allowed", response["error"])
	assert.Equal(t, 1, uploader.calls)
}

func TestStatusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewStatusHandler(nil, &fakeSounds{names: []string{"beat", "chill"}})
	router.GET("/", handler.Ping)
	router.GET("/ping", handler.Ping)
	router.GET("/sounds", handler.ListSounds)

	for _, path := range []string{"/", "/ping"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","message":"server is running"}`, w.Body.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sounds", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sounds":["beat","chill"],"profiles":["mix","background","main"]}`, w.Body.String())
}

func TestHistoryHandler(t *testing.T) {
	testDB, err := db.NewInMemoryDB()
	require.NoError(t, err)
	defer testDB.Close()
	repo, err := uploads.NewSQLiteUploadHistoryRepository(testDB)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Add(ctx, &uploads.UploadRecord{ID: "a", Account: "demo", Status: uploads.StatusSuccess, FinalState: uploads.StateDone, CreatedAt: base}))
	require.NoError(t, repo.Add(ctx, &uploads.UploadRecord{ID: "b", Account: "other", Status: uploads.StatusFailure, FinalState: uploads.StateFailed, CreatedAt: base.Add(time.Minute)}))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/uploads", NewHistoryHandler(nil, repo).ListUploads)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads?account=demo&limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Uploads []uploads.UploadRecord `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Uploads, 1)
	assert.Equal(t, "a", response.Uploads[0].ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ready := gin.New()
	ready.GET("/accounts/:name/preflight", NewAccountHandler(nil, &fakePreflighter{}).Preflight)
	w := httptest.NewRecorder()
	ready.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/demo/preflight", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account":"demo","ready":true}`, w.Body.String())

	missing := gin.New()
	setupErr := publishing.NewSetupError("demo", "session credential not found at /app/CookiesDir/tiktok_session-demo.cookie")
	missing.GET("/accounts/:name/preflight", NewAccountHandler(nil, &fakePreflighter{err: setupErr}).Preflight)
	w = httptest.NewRecorder()
	missing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/demo/preflight", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":false`)
	assert.Contains(t, w.Body.String(), "session credential not found")
}
