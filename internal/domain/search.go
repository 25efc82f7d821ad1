package domain

// MatchField identifies which dataset field a search query matched.
type MatchField string

// Match fields in priority order. A dataset matching a higher-priority field
// always ranks above one matching only a lower-priority field.
const (
	MatchTableName    MatchField = "table_name"
	MatchColumnName   MatchField = "column_name"
	MatchSchemaName   MatchField = "schema_name"
	MatchDatabaseName MatchField = "database_name"
)

// Priority returns the rank of the match field (1 = highest).
func (m MatchField) Priority() int {
	switch m {
	case MatchTableName:
		return 1
	case MatchColumnName:
		return 2
	case MatchSchemaName:
		return 3
	case MatchDatabaseName:
		return 4
	default:
		return 5
	}
}

// SearchOptions enumerates the knobs of a catalog search. The zero value
// matches all four fields and skips lineage enrichment.
type SearchOptions struct {
	// Fields restricts matching to the given fields. Empty means all.
	Fields []MatchField
	// IncludeLineage attaches direct upstream/downstream FQNs to each result.
	IncludeLineage bool
	// MaxResults caps the result count. 0 means no cap.
	MaxResults int
}

// SearchResult is one ranked hit of a catalog search.
type SearchResult struct {
	Dataset        Dataset
	MatchField     MatchField
	Priority       int
	UpstreamFQNs   []string
	DownstreamFQNs []string
}
