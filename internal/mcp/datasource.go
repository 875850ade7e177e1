package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcount/internal/models"
	"github.com/claude/repcount/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QuerySessions(ctx context.Context, start, end time.Time) ([]models.SessionRow, error)
	GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error)
	GetTrainingStats(ctx context.Context, start, end time.Time) (*storage.TrainingStats, error)
	GetDailyTotals(ctx context.Context, start, end time.Time) ([]storage.DailyTotal, error)
	GetBestSession(ctx context.Context, start, end time.Time) (*models.SessionRow, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
