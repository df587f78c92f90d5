package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MockUploadServerClient is an in-memory UploadServerClient for testing
type MockUploadServerClient struct {
	// Accounts that pass preflight and can publish
	Accounts map[string]bool
	// UploadErr is returned by Upload when set
	UploadErr error

	mu      sync.Mutex
	records []UploadRecord
}

// NewMockUploadServerClient creates a mock that knows the given accounts
func NewMockUploadServerClient(accounts ...string) *MockUploadServerClient {
	known := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		known[account] = true
	}

	return &MockUploadServerClient{
		Accounts: known,
	}
}

func (m *MockUploadServerClient) Ping(ctx context.Context) (*PingResponse, error) {
	return &PingResponse{Status: "ok", Message: "server is running"}, nil
}

func (m *MockUploadServerClient) Sounds(ctx context.Context) (*SoundsResponse, error) {
	return &SoundsResponse{Sounds: []string{}, Profiles: []string{"mix", "background", "main"}}, nil
}

func (m *MockUploadServerClient) Upload(ctx context.Context, request UploadRequest) (*UploadResponse, error) {
	info, err := os.Stat(request.FilePath)
	if err != nil {
		return nil, NewNonRecoverableUploadError(fmt.Errorf("failed to open video: %w", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := UploadRecord{
		ID:        fmt.Sprintf("mock-%d", len(m.records)+1),
		Account:   request.AccountName,
		FileName:  filepath.Base(request.FilePath),
		SoundName: request.SoundName,
		Status:    "success",
		CreatedAt: time.Now().UTC(),
	}

	switch {
	case m.UploadErr != nil:
		record.Status = "failure"
		record.Error = m.UploadErr.Error()
		m.records = append(m.records, record)
		return nil, m.UploadErr
	case !m.Accounts[request.AccountName]:
		return nil, NewStatusError(500, "publisher setup error for account "+request.AccountName)
	}

	m.records = append(m.records, record)
	return &UploadResponse{
		Success: true,
		Message: "Video uploaded successfully",
		Result: UploadResult{
			Status: "success",
			Output: fmt.Sprintf("uploaded %s (%d bytes)", record.FileName, info.Size()),
		},
	}, nil
}

func (m *MockUploadServerClient) History(ctx context.Context, account string, limit int) ([]UploadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []UploadRecord{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if account != "" && m.records[i].Account != account {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockUploadServerClient) Preflight(ctx context.Context, account string) (*PreflightResponse, error) {
	if m.Accounts[account] {
		return &PreflightResponse{Account: account, Ready: true}, nil
	}
	return &PreflightResponse{Account: account, Ready: false, Error: "session credential not found"}, nil
}
