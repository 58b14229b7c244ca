package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LogEntry is an append-only audit row for API-key traffic.
type LogEntry struct {
	UserID     uuid.UUID `db:"user_id"`
	APIKeyID   uuid.UUID `db:"api_key_id"`
	Endpoint   string    `db:"endpoint"`
	Method     string    `db:"method"`
	StatusCode int       `db:"status_code"`
	CreatedAt  time.Time `db:"created_at"`
}

type Repository interface {
	Append(ctx context.Context, entry *LogEntry) error
}
