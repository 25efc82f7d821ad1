package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "metacat/internal/db"
	"metacat/internal/domain"
)

func newTestRepos(t *testing.T) (*DatasetRepo, *LineageRepo) {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewDatasetRepo(writeDB), NewLineageRepo(writeDB)
}

func mustCreate(t *testing.T, repo *DatasetRepo, fqn string) *domain.Dataset {
	t.Helper()
	parsed, err := domain.ParseFQN(fqn)
	require.NoError(t, err)
	ds, err := repo.Create(context.Background(), &domain.Dataset{
		FQN:     parsed,
		Layer:   domain.LayerBronze,
		Columns: []domain.Column{{Name: "id", Type: "BIGINT"}},
	})
	require.NoError(t, err)
	return ds
}

func TestDatasetRepo_CreateAndGet(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	parsed, err := domain.ParseFQN("warehouse.sales.public.orders")
	require.NoError(t, err)

	created, err := repo.Create(ctx, &domain.Dataset{
		FQN:   parsed,
		Layer: domain.LayerSilver,
		Columns: []domain.Column{
			{Name: "order_id", Type: "BIGINT"},
			{Name: "amount", Type: "DECIMAL(10,2)"},
			{Name: "placed_at", Type: "TIMESTAMP"},
		},
		Description: "cleaned orders",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byFQN, err := repo.GetByFQN(ctx, "warehouse.sales.public.orders")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byFQN.ID)
	assert.Equal(t, domain.LayerSilver, byFQN.Layer)
	assert.Equal(t, "cleaned orders", byFQN.Description)

	// Column order is preserved.
	names := make([]string, 0, len(byFQN.Columns))
	for _, c := range byFQN.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"order_id", "amount", "placed_at"}, names)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, byFQN, byID)
}

func TestDatasetRepo_Create_DuplicateFQN(t *testing.T) {
	repo, _ := newTestRepos(t)

	mustCreate(t, repo, "warehouse.sales.public.orders")

	parsed, err := domain.ParseFQN("warehouse.sales.public.orders")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &domain.Dataset{
		FQN:     parsed,
		Layer:   domain.LayerGold,
		Columns: []domain.Column{{Name: "id"}},
	})
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDatasetRepo_Get_NotFound(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	var notFound *domain.NotFoundError

	_, err := repo.GetByFQN(ctx, "warehouse.sales.public.missing")
	assert.ErrorAs(t, err, &notFound)

	_, err = repo.GetByID(ctx, "no-such-id")
	assert.ErrorAs(t, err, &notFound)
}

func TestDatasetRepo_ListPagination(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	mustCreate(t, repo, "warehouse.sales.public.c")
	mustCreate(t, repo, "warehouse.sales.public.a")
	mustCreate(t, repo, "warehouse.sales.public.b")

	page, total, err := repo.List(ctx, domain.PageRequest{MaxResults: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "warehouse.sales.public.a", page[0].FQN.String())
	assert.Equal(t, "warehouse.sales.public.b", page[1].FQN.String())

	rest, _, err := repo.List(ctx, domain.PageRequest{MaxResults: 2, PageToken: domain.EncodePageToken(2)})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "warehouse.sales.public.c", rest[0].FQN.String())
}

func TestDatasetRepo_Delete(t *testing.T) {
	repo, _ := newTestRepos(t)
	ctx := context.Background()

	ds := mustCreate(t, repo, "warehouse.sales.public.orders")
	require.NoError(t, repo.Delete(ctx, ds.ID))

	var notFound *domain.NotFoundError
	_, err := repo.GetByID(ctx, ds.ID)
	assert.ErrorAs(t, err, &notFound)

	err = repo.Delete(ctx, ds.ID)
	assert.ErrorAs(t, err, &notFound)
}
