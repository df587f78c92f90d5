package client

import "time"

// UploadRequest describes a video to upload
type UploadRequest struct {
	FilePath      string
	Description   string
	AccountName   string
	Hashtags      []string
	SoundName     string
	VolumeProfile string
}

// UploadResult mirrors the result of a finished upload
type UploadResult struct {
	Status string `json:"status"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Result  UploadResult `json:"result"`
}

// PingResponse is the body of GET /ping
type PingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PreflightResponse is the body of GET /accounts/:name/preflight
type PreflightResponse struct {
	Account string `json:"account"`
	Ready   bool   `json:"ready"`
	Error   string `json:"error,omitempty"`
}

// UploadRecord is one entry of the server's upload history
type UploadRecord struct {
	ID         string        `json:"id"`
	Account    string        `json:"account"`
	FileName   string        `json:"fileName"`
	SoundName  string        `json:"soundName,omitempty"`
	Profile    string        `json:"profile,omitempty"`
	Caption    string        `json:"caption"`
	Status     string        `json:"status"`
	FinalState string        `json:"finalState"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type historyResponse struct {
	Uploads []UploadRecord `json:"uploads"`
}

// SoundsResponse is the body of GET /sounds
type SoundsResponse struct {
	Sounds   []string `json:"sounds"`
	Profiles []string `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}
