package publishing

import (
	"path/filepath"
	"strings"
	"time"
)

// AccountPlaceholder is replaced by the account name in CredentialFilePattern
const AccountPlaceholder = "{account}"

// PublisherConfig is the directory and invocation contract of the external
// publishing tool. Relative VideosDir and CookiesDir are resolved against
// WorkDir, the same way the tool resolves the paths in its own config.
type PublisherConfig struct {
	WorkDir               string
	Interpreter           string
	Entrypoint            string
	VideosDir             string
	CookiesDir            string
	CredentialFilePattern string
	LockDir               string
	Timeout               time.Duration
	SerializeAccounts     bool
}

// EntrypointPath returns the absolute location of the publisher's entrypoint
func (c PublisherConfig) EntrypointPath() string {
	return c.resolve(c.Entrypoint)
}

// VideosPath returns the directory the publisher reads its input videos from
func (c PublisherConfig) VideosPath() string {
	return c.resolve(c.VideosDir)
}

// CookiesPath returns the directory holding per-account session credentials
func (c PublisherConfig) CookiesPath() string {
	return c.resolve(c.CookiesDir)
}

// ValidAccountName reports whether account can be embedded in the credential
// and lock file names without leaving their directories
func ValidAccountName(account string) bool {
	if strings.TrimSpace(account) == "" {
		return false
	}
	return !strings.ContainsAny(account, "/\\\x00") && !strings.Contains(account, "..")
}

// CredentialPath returns the session credential file of account. account must
// satisfy ValidAccountName.
func (c PublisherConfig) CredentialPath(account string) string {
	name := strings.ReplaceAll(c.CredentialFilePattern, AccountPlaceholder, account)
	return filepath.Join(c.CookiesPath(), name)
}

// LockPath returns the lock file that serializes uploads of account. account
// must satisfy ValidAccountName.
func (c PublisherConfig) LockPath(account string) string {
	return filepath.Join(c.LockDir, account+".lock")
}

// Command returns the executable and the leading arguments used to start the publisher
func (c PublisherConfig) Command() (string, []string) {
	if c.Interpreter == "" {
		return c.EntrypointPath(), nil
	}
	return c.Interpreter, []string{c.Entrypoint}
}

func (c PublisherConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
