// Package source provides release sources that yield raw release descriptors.
package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/releasebox/internal/domain/release"
)

// ErrFetchFailure is returned when a release source cannot be retrieved.
var ErrFetchFailure = errors.New("release fetch failure")

// Source is the interface for release sources.
// A source may yield several descriptors per fetch.
type Source interface {
	// Fetch retrieves the raw descriptors currently published by the source.
	Fetch(ctx context.Context) ([]release.Descriptor, error)

	// Name returns a human-readable source name (used in logs).
	Name() string
}

// fetchFailure marks err as a fetch failure for the named source.
func fetchFailure(err error, name string) error {
	return errors.Mark(errors.Wrapf(err, "source %s", name), ErrFetchFailure)
}
