// Package export holds the sink contract and the file-based sinks. Sinks
// are idempotent: re-writing the same rows to the same target replaces the
// previous content, it never appends.
package export

import (
	"context"

	"github.com/mkaravas/intake/internal/template"
)

// WriteResult reports a successful sink write.
type WriteResult struct {
	RowsWritten int
}

// Sink receives mapped output rows. Implementations must overwrite (or
// upsert) so that re-running a pipeline over unchanged input does not
// duplicate data in the target.
type Sink interface {
	Write(ctx context.Context, headers []string, rows []template.Row) (WriteResult, error)
}
