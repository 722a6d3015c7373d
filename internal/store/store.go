package store

import (
	"context"
	"time"

	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

// Run is one stored GetData call.
type Run struct {
	ID            string            `json:"id"`
	Dataset       codes.Dataset     `json:"dataset"`
	Params        map[string]string `json:"params"`
	Statistic     string            `json:"statistic,omitempty"`
	UnitOfMeasure string            `json:"unit_of_measure,omitempty"`
	PublicTable   string            `json:"public_table,omitempty"`
	Rows          int               `json:"rows"`
	CreatedAt     time.Time         `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Dataset codes.Dataset `json:"dataset,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// Store persists fetched observations and raw responses.
type Store interface {
	// Runs
	SaveData(ctx context.Context, dataset codes.Dataset, opts bea.Options, results *bea.DataResults) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Observations(ctx context.Context, runID string) ([]bea.Datum, error)
	DeleteRun(ctx context.Context, runID string) error

	// Response cache
	GetCachedResponse(ctx context.Context, key string) ([]byte, error)
	SetCachedResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error
	DeleteExpiredResponses(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
