package ontorag

import (
	"errors"

	"github.com/ywangkg/ontorag/graphstore"
	"github.com/ywangkg/ontorag/index"
)

var (
	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("ontorag: invalid configuration")

	// ErrMissingArtifact is returned when an index artifact file is absent.
	ErrMissingArtifact = index.ErrMissingArtifact

	// ErrStoreAuth is returned when graph store authentication fails.
	ErrStoreAuth = graphstore.ErrAuth

	// ErrStoreQuery is returned when the graph store rejects a query.
	ErrStoreQuery = graphstore.ErrQuery

	// ErrStoreUnavailable is returned when the graph store is unreachable.
	ErrStoreUnavailable = graphstore.ErrUnavailable
)
