package sheets

import (
	"context"

	"pennywise/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror keeps a copy of each transaction in an external
	// spreadsheet, one row per transaction keyed by its id.
	TransactionMirror interface {
		// UpsertTransaction writes t for userID, replacing an existing row
		// with the same id.
		UpsertTransaction(ctx context.Context, userID string, t core.Transaction) (rowRef string, err error)
		// DeleteTransaction removes the row of id from the sheet of year. A
		// missing row is not an error.
		DeleteTransaction(ctx context.Context, id string, year int) error
	}
)
