// Package corpus supplies the document excerpts the agent pool reasons
// over. Providers are interchangeable; the core treats their output as
// opaque text.
package corpus

import (
	"context"

	"github.com/ppiankov/consilium/internal/model"
)

// Provider retrieves documents for a query.
type Provider interface {
	// Name returns the provider name for diagnostics.
	Name() string

	// Search returns up to limit documents relevant to the query.
	Search(ctx context.Context, query string, limit int) ([]model.Document, error)
}
