package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/caregate/caregate/internal/config"
	"github.com/caregate/caregate/internal/roles"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry records one mutating action taken through the gateway. The log is
// append-only; a failed write is logged by the caller and never fails the
// user's request.
type Entry struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	OccurredAt time.Time `json:"occurred_at" gorm:"index"`
	Actor      string    `json:"actor"`
	ActorRole  roles.ID  `json:"actor_role"`
	Action     string    `json:"action" gorm:"index"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}

type Log interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Fill stamps the fields every entry needs.
func Fill(e *Entry) *Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	return e
}

type PostgresLog struct {
	db *gorm.DB
}

func NewPostgresLog(dsn string) (*PostgresLog, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &PostgresLog{db: db}, nil
}

func (l *PostgresLog) Record(ctx context.Context, e *Entry) error {
	return l.db.WithContext(ctx).Create(Fill(e)).Error
}

func (l *PostgresLog) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []Entry
	if err := l.db.WithContext(ctx).Order("occurred_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// MemoryLog keeps the most recent entries in memory. Used in tests and in
// deployments without the audit database.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
	cap     int
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{cap: 1000}
}

func (l *MemoryLog) Record(ctx context.Context, e *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *Fill(e))
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	return nil
}

func (l *MemoryLog) List(ctx context.Context, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
}
