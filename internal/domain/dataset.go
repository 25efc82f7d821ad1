package domain

import (
	"strings"
	"time"
)

// Layer classifies a dataset's processing stage in the medallion architecture.
type Layer string

const (
	// LayerBronze is raw, as-ingested data.
	LayerBronze Layer = "bronze"
	// LayerSilver is cleaned and conformed data.
	LayerSilver Layer = "silver"
	// LayerGold is analytics-ready data.
	LayerGold Layer = "gold"
)

// ValidLayer reports whether s is a recognized layer value.
func ValidLayer(s string) bool {
	switch Layer(s) {
	case LayerBronze, LayerSilver, LayerGold:
		return true
	default:
		return false
	}
}

// FQN is a fully-qualified dataset name with exactly four dot-separated
// segments: connection.database.schema.table.
type FQN struct {
	Connection string
	Database   string
	Schema     string
	Table      string
}

// ParseFQN splits a dotted identifier into its four segments.
// Every segment must be non-empty.
func ParseFQN(s string) (FQN, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return FQN{}, ErrValidation("invalid FQN %q: must have exactly 4 parts (connection.database.schema.table)", s)
	}
	for _, p := range parts {
		if p == "" {
			return FQN{}, ErrValidation("invalid FQN %q: segments must be non-empty", s)
		}
	}
	return FQN{
		Connection: parts[0],
		Database:   parts[1],
		Schema:     parts[2],
		Table:      parts[3],
	}, nil
}

// String reassembles the dotted form.
func (f FQN) String() string {
	return f.Connection + "." + f.Database + "." + f.Schema + "." + f.Table
}

// Column is a named, typed column of a dataset.
type Column struct {
	Name string
	Type string
}

// Dataset is a registered dataset. Identity (FQN) is immutable once created.
type Dataset struct {
	ID          string
	FQN         FQN
	Layer       Layer
	Columns     []Column
	Description string
	CreatedAt   time.Time
}

// CreateDatasetRequest carries the input for dataset registration.
type CreateDatasetRequest struct {
	FQN         string
	Layer       string
	Columns     []Column
	Description string
}
