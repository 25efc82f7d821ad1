package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"metacat/internal/domain"
)

// SearchService ranks registered datasets against a free-text query using a
// fixed field-priority order: table name, then column name, then schema, then
// database. Matching is case-insensitive substring matching; each dataset is
// ranked by the highest-priority field it matches.
type SearchService struct {
	datasets domain.DatasetRepository
	edges    domain.LineageRepository
	logger   *slog.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(datasets domain.DatasetRepository, edges domain.LineageRepository, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{datasets: datasets, edges: edges, logger: logger}
}

// Search returns datasets matching the query, ordered by match priority.
// Within the same priority tier results are ordered by FQN, so the ranking is
// deterministic. An empty or blank query returns an empty result, not an error.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	all, err := s.datasets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []domain.MatchField{
			domain.MatchTableName, domain.MatchColumnName,
			domain.MatchSchemaName, domain.MatchDatabaseName,
		}
	}

	var results []domain.SearchResult
	for _, ds := range all {
		field, ok := matchDataset(ds, q, fields)
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			Dataset:    ds,
			MatchField: field,
			Priority:   field.Priority(),
		})
	}

	// ListAll returns datasets in FQN order and SliceStable keeps it, which
	// gives the documented FQN tiebreak within a priority tier.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Priority < results[j].Priority
	})

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	if opts.IncludeLineage {
		if err := s.attachLineage(ctx, results); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("search completed", "query", query, "results", len(results))
	return results, nil
}

// matchDataset checks the requested fields in priority order and returns the
// first (highest-priority) field the dataset matches on.
func matchDataset(ds domain.Dataset, q string, fields []domain.MatchField) (domain.MatchField, bool) {
	ordered := []domain.MatchField{
		domain.MatchTableName, domain.MatchColumnName,
		domain.MatchSchemaName, domain.MatchDatabaseName,
	}
	enabled := make(map[domain.MatchField]bool, len(fields))
	for _, f := range fields {
		enabled[f] = true
	}

	for _, field := range ordered {
		if !enabled[field] {
			continue
		}
		switch field {
		case domain.MatchTableName:
			if strings.Contains(strings.ToLower(ds.FQN.Table), q) {
				return field, true
			}
		case domain.MatchColumnName:
			for _, col := range ds.Columns {
				if strings.Contains(strings.ToLower(col.Name), q) {
					return field, true
				}
			}
		case domain.MatchSchemaName:
			if strings.Contains(strings.ToLower(ds.FQN.Schema), q) {
				return field, true
			}
		case domain.MatchDatabaseName:
			if strings.Contains(strings.ToLower(ds.FQN.Database), q) {
				return field, true
			}
		}
	}
	return "", false
}

// attachLineage adds direct upstream/downstream FQNs to each result.
func (s *SearchService) attachLineage(ctx context.Context, results []domain.SearchResult) error {
	edges, err := s.edges.ListEdges(ctx)
	if err != nil {
		return err
	}

	upstreamOf := make(map[string][]string)   // dataset ID -> upstream FQNs
	downstreamOf := make(map[string][]string) // dataset ID -> downstream FQNs
	for _, e := range edges {
		upstreamOf[e.DownstreamID] = append(upstreamOf[e.DownstreamID], e.UpstreamFQN)
		downstreamOf[e.UpstreamID] = append(downstreamOf[e.UpstreamID], e.DownstreamFQN)
	}

	for i := range results {
		id := results[i].Dataset.ID
		results[i].UpstreamFQNs = upstreamOf[id]
		results[i].DownstreamFQNs = downstreamOf[id]
	}
	return nil
}
