package uploads

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/soundpost/soundpost/server/core/ccc/db"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// UploadRecord is one finished upload attempt
type UploadRecord struct {
	ID         string        `json:"id"`
	Account    string        `json:"account"`
	FileName   string        `json:"fileName"`
	SoundName  string        `json:"soundName,omitempty"`
	Profile    string        `json:"profile,omitempty"`
	Caption    string        `json:"caption"`
	Status     string        `json:"status"`
	FinalState State         `json:"finalState"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// HistoryQuery filters upload history. An empty Account matches all accounts.
type HistoryQuery struct {
	Account string
	Limit   int
}

// UploadHistoryRepository persists upload attempts
type UploadHistoryRepository interface {
	// Add stores a new record
	Add(ctx context.Context, record *UploadRecord) error

	// Query returns the most recent records first
	Query(ctx context.Context, query HistoryQuery) ([]*UploadRecord, error)
}

type nopUploadHistoryRepository struct{}

var NopUploadHistoryRepository UploadHistoryRepository = &nopUploadHistoryRepository{}

func (n *nopUploadHistoryRepository) Add(ctx context.Context, record *UploadRecord) error {
	return nil
}

func (n *nopUploadHistoryRepository) Query(ctx context.Context, query HistoryQuery) ([]*UploadRecord, error) {
	return []*UploadRecord{}, nil
}

// SQLiteUploadHistoryRepository implements UploadHistoryRepository using SQLite
type SQLiteUploadHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteUploadHistoryRepository creates a new SQLite-based UploadHistoryRepository
func NewSQLiteUploadHistoryRepository(db *sql.DB) (*SQLiteUploadHistoryRepository, error) {
	repo := &SQLiteUploadHistoryRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *SQLiteUploadHistoryRepository) createTables() error {
	createUploadsTable := `
	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		file_name TEXT NOT NULL,
		sound_name TEXT NOT NULL,
		profile TEXT NOT NULL,
		caption TEXT NOT NULL,
		status TEXT NOT NULL,
		final_state TEXT NOT NULL,
		error TEXT NOT NULL,
		duration INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_uploads_account_created ON uploads(account, created_at);`

	_, err := r.db.Exec(createUploadsTable)
	return err
}

// Add stores a new record
func (r *SQLiteUploadHistoryRepository) Add(ctx context.Context, record *UploadRecord) error {
	query := `
	INSERT INTO uploads (id, account, file_name, sound_name, profile, caption, status, final_state, error, duration, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Account, record.FileName, record.SoundName, record.Profile, record.Caption,
		record.Status, string(record.FinalState), record.Error, int64(record.Duration), db.TimeToString(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add upload record: %w", err)
	}

	return nil
}

// Query returns the most recent records first. The limit is clamped to [1, MaxHistoryLimit]
// and defaults to DefaultHistoryLimit.
func (r *SQLiteUploadHistoryRepository) Query(ctx context.Context, query HistoryQuery) ([]*UploadRecord, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = lo.Clamp(limit, 1, MaxHistoryLimit)

	var conditions []string
	var args []interface{}
	if account := strings.TrimSpace(query.Account); account != "" {
		conditions = append(conditions, "account = ?")
		args = append(args, account)
	}

	sqlQuery := `
	SELECT id, account, file_name, sound_name, profile, caption, status, final_state, error, duration, created_at
	FROM uploads`
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	records := []*UploadRecord{}
	for rows.Next() {
		record := &UploadRecord{}
		var finalState string
		var durationNanos int64
		var createdAtStr string
		err := rows.Scan(
			&record.ID, &record.Account, &record.FileName, &record.SoundName, &record.Profile, &record.Caption,
			&record.Status, &finalState, &record.Error, &durationNanos, &createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload record: %w", err)
		}

		record.CreatedAt, err = db.StringToTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		record.FinalState = State(finalState)
		record.Duration = time.Duration(durationNanos)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}

	return records, nil
}
