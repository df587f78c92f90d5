package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// UploadServerClient handles communication with the upload server
type UploadServerClient interface {
	Ping(ctx context.Context) (*PingResponse, error)
	Upload(ctx context.Context, request UploadRequest) (*UploadResponse, error)
	History(ctx context.Context, account string, limit int) ([]UploadRecord, error)
	Preflight(ctx context.Context, account string) (*PreflightResponse, error)
	Sounds(ctx context.Context) (*SoundsResponse, error)
}

// uploadServerClient implements UploadServerClient using HTTP
type uploadServerClient struct {
	serverURL  string
	httpClient *http.Client
}

// NewUploadServerClient creates a new HTTP client. Uploads wait for the whole
// pipeline, so timeout must cover mixing and publishing.
func NewUploadServerClient(serverURL string, timeout time.Duration) UploadServerClient {
	return &uploadServerClient{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks that the server is running
func (s *uploadServerClient) Ping(ctx context.Context) (*PingResponse, error) {
	var response PingResponse
	if err := s.getJSON(ctx, "/ping", &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Sounds lists the sounds and volume profiles the server offers
func (s *uploadServerClient) Sounds(ctx context.Context) (*SoundsResponse, error) {
	var response SoundsResponse
	if err := s.getJSON(ctx, "/sounds", &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// History returns the most recent uploads, optionally for a single account
func (s *uploadServerClient) History(ctx context.Context, account string, limit int) ([]UploadRecord, error) {
	query := url.Values{}
	if account != "" {
		query.Set("account", account)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/uploads"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response historyResponse
	if err := s.getJSON(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Uploads, nil
}

// Preflight asks the server whether account can publish. A not-ready account
// is reported in the response, not as an error.
func (s *uploadServerClient) Preflight(ctx context.Context, account string) (*PreflightResponse, error) {
	path := fmt.Sprintf("/accounts/%s/preflight", url.PathEscape(account))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewRecoverableUploadError(err)
	}
	defer resp.Body.Close()

	var response PreflightResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, NewStatusError(resp.StatusCode, "failed to decode response")
	}
	if resp.StatusCode != http.StatusOK && response.Account == "" {
		return nil, NewStatusError(resp.StatusCode, response.Error)
	}

	return &response, nil
}

// Upload streams the video file and form fields to POST /upload
func (s *uploadServerClient) Upload(ctx context.Context, request UploadRequest) (*UploadResponse, error) {
	file, err := os.Open(request.FilePath)
	if err != nil {
		return nil, NewNonRecoverableUploadError(fmt.Errorf("failed to open video: %w", err))
	}
	defer file.Close()

	body, writer := io.Pipe()
	form := multipart.NewWriter(writer)

	go func() {
		writer.CloseWithError(writeUploadForm(form, file, request))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/upload", body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewRecoverableUploadError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var response UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}

func writeUploadForm(form *multipart.Writer, file *os.File, request UploadRequest) error {
	fields := []struct{ key, value string }{
		{"description", request.Description},
		{"accountname", request.AccountName},
		{"hashtags", strings.Join(request.Hashtags, ",")},
		{"sound_name", request.SoundName},
		{"sound_aud_vol", request.VolumeProfile},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := form.WriteField(field.key, field.value); err != nil {
			return fmt.Errorf("failed to write %s field: %w", field.key, err)
		}
	}

	part, err := form.CreateFormFile("video", filepath.Base(request.FilePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to write video data: %w", err)
	}

	return form.Close()
}

func (s *uploadServerClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.serverURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return NewRecoverableUploadError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readStatusError turns an error response into an UploadServerError, keeping
// the server's message when the body carries one
func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload errorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	return NewStatusError(resp.StatusCode, message)
}
