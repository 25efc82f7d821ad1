package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacat/internal/domain"
)

func TestLineageService_AddEdge(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	registerDataset(t, reg, "warehouse.sales.public.orders_raw", "bronze", "order_id")
	registerDataset(t, reg, "warehouse.sales.public.orders_clean", "silver", "order_id")

	edge, err := lin.AddEdge(ctx, "warehouse.sales.public.orders_raw", "warehouse.sales.public.orders_clean")
	require.NoError(t, err)
	assert.NotEmpty(t, edge.ID)
	assert.Equal(t, "warehouse.sales.public.orders_raw", edge.UpstreamFQN)
	assert.Equal(t, "warehouse.sales.public.orders_clean", edge.DownstreamFQN)
}

func TestLineageService_AddEdge_UnknownDataset(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	registerDataset(t, reg, "warehouse.sales.public.known", "bronze", "id")

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.ghost", "warehouse.sales.public.known")
	require.Error(t, err)
	var unknown *domain.UnknownDatasetError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "upstream")

	_, err = lin.AddEdge(ctx, "warehouse.sales.public.known", "warehouse.sales.public.ghost")
	require.Error(t, err)
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "downstream")
}

func TestLineageService_AddEdge_SelfLineage(t *testing.T) {
	reg, lin, _ := newTestServices(t)

	registerDataset(t, reg, "warehouse.sales.public.orders", "bronze", "id")

	_, err := lin.AddEdge(context.Background(), "warehouse.sales.public.orders", "warehouse.sales.public.orders")
	require.Error(t, err)
	var self *domain.SelfLineageError
	assert.ErrorAs(t, err, &self)
}

func TestLineageService_AddEdge_DirectCycle(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	registerDataset(t, reg, "warehouse.sales.public.a", "bronze", "id")
	registerDataset(t, reg, "warehouse.sales.public.b", "silver", "id")

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.a", "warehouse.sales.public.b")
	require.NoError(t, err)

	_, err = lin.AddEdge(ctx, "warehouse.sales.public.b", "warehouse.sales.public.a")
	require.Error(t, err)
	var cycle *domain.CycleDetectedError
	assert.ErrorAs(t, err, &cycle)

	// The rejected edge left the graph untouched.
	downstream, err := lin.Downstream(ctx, "warehouse.sales.public.b", 0)
	require.NoError(t, err)
	assert.Empty(t, downstream)
}

func TestLineageService_AddEdge_TransitiveCycle(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		registerDataset(t, reg, "warehouse.sales.public."+name, "bronze", "id")
	}

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.a", "warehouse.sales.public.b")
	require.NoError(t, err)
	_, err = lin.AddEdge(ctx, "warehouse.sales.public.b", "warehouse.sales.public.c")
	require.NoError(t, err)

	_, err = lin.AddEdge(ctx, "warehouse.sales.public.c", "warehouse.sales.public.a")
	require.Error(t, err)
	var cycle *domain.CycleDetectedError
	assert.ErrorAs(t, err, &cycle)
}

func TestLineageService_AddEdge_DuplicateEdge(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	registerDataset(t, reg, "warehouse.sales.public.a", "bronze", "id")
	registerDataset(t, reg, "warehouse.sales.public.b", "silver", "id")

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.a", "warehouse.sales.public.b")
	require.NoError(t, err)

	_, err = lin.AddEdge(ctx, "warehouse.sales.public.a", "warehouse.sales.public.b")
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestLineageService_DiamondTraversal(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	// raw -> clean -> {by_region, by_product} -> summary
	fqn := func(name string) string { return "warehouse.sales.public." + name }
	for _, name := range []string{"raw", "clean", "by_region", "by_product", "summary"} {
		registerDataset(t, reg, fqn(name), "silver", "id")
	}
	for _, pair := range [][2]string{
		{"raw", "clean"},
		{"clean", "by_region"},
		{"clean", "by_product"},
		{"by_region", "summary"},
		{"by_product", "summary"},
	} {
		_, err := lin.AddEdge(ctx, fqn(pair[0]), fqn(pair[1]))
		require.NoError(t, err)
	}

	upstream, err := lin.Upstream(ctx, fqn("summary"), 0)
	require.NoError(t, err)
	// Direct parents first, then their shared ancestors, each exactly once.
	require.Len(t, upstream, 4)
	assert.Equal(t, fqn("by_region"), upstream[0].FQN.String())
	assert.Equal(t, fqn("by_product"), upstream[1].FQN.String())
	assert.Equal(t, fqn("clean"), upstream[2].FQN.String())
	assert.Equal(t, fqn("raw"), upstream[3].FQN.String())

	downstream, err := lin.Downstream(ctx, fqn("raw"), 0)
	require.NoError(t, err)
	require.Len(t, downstream, 4)
	assert.Equal(t, fqn("clean"), downstream[0].FQN.String())

	// Depth 1 stops at direct neighbors.
	direct, err := lin.Upstream(ctx, fqn("summary"), 1)
	require.NoError(t, err)
	assert.Len(t, direct, 2)
}

func TestLineageService_Lineage(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	registerDataset(t, reg, "warehouse.sales.public.a", "bronze", "id")
	registerDataset(t, reg, "warehouse.sales.public.b", "silver", "id")
	registerDataset(t, reg, "warehouse.sales.public.c", "gold", "id")

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.a", "warehouse.sales.public.b")
	require.NoError(t, err)
	_, err = lin.AddEdge(ctx, "warehouse.sales.public.b", "warehouse.sales.public.c")
	require.NoError(t, err)

	node, err := lin.Lineage(ctx, "warehouse.sales.public.b", 0)
	require.NoError(t, err)
	require.Len(t, node.Upstream, 1)
	require.Len(t, node.Downstream, 1)
	assert.Equal(t, "warehouse.sales.public.a", node.Upstream[0].FQN.String())
	assert.Equal(t, "warehouse.sales.public.c", node.Downstream[0].FQN.String())

	_, err = lin.Lineage(ctx, "warehouse.sales.public.missing", 0)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLineageService_ConcurrentAddEdge_StaysAcyclic(t *testing.T) {
	reg, lin, _ := newTestServices(t)
	ctx := context.Background()

	const n = 8
	fqns := make([]string, n)
	for i := range fqns {
		fqns[i] = fmt.Sprintf("warehouse.sales.public.t%02d", i)
		registerDataset(t, reg, fqns[i], "bronze", "id")
	}

	// Hammer edges in both directions between random pairs. Whatever subset
	// commits, no dataset may end up reachable from itself.
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			wg.Add(1)
			go func(up, down string) {
				defer wg.Done()
				_, _ = lin.AddEdge(ctx, up, down)
			}(fqns[i], fqns[j])
		}
	}
	wg.Wait()

	for _, fqn := range fqns {
		downstream, err := lin.Downstream(ctx, fqn, 0)
		require.NoError(t, err)
		for _, ds := range downstream {
			assert.NotEqual(t, fqn, ds.FQN.String(), "dataset reachable from itself")
		}
	}
}

func TestCatalog_EndToEnd(t *testing.T) {
	reg, lin, search := newTestServices(t)
	ctx := context.Background()

	raw := registerDataset(t, reg, "warehouse.sales.public.orders_raw", "bronze", "order_id", "amount")
	clean := registerDataset(t, reg, "warehouse.sales.public.orders_clean", "silver", "order_id", "amount")
	assert.NotEqual(t, raw.ID, clean.ID)

	_, err := lin.AddEdge(ctx, "warehouse.sales.public.orders_raw", "warehouse.sales.public.orders_clean")
	require.NoError(t, err)

	_, err = lin.AddEdge(ctx, "warehouse.sales.public.orders_clean", "warehouse.sales.public.orders_raw")
	var cycle *domain.CycleDetectedError
	require.ErrorAs(t, err, &cycle)

	results, err := search.Search(ctx, "orders", domain.SearchOptions{IncludeLineage: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.MatchTableName, results[0].MatchField)

	node, err := lin.Lineage(ctx, "warehouse.sales.public.orders_clean", 0)
	require.NoError(t, err)
	require.Len(t, node.Upstream, 1)
	assert.Equal(t, "warehouse.sales.public.orders_raw", node.Upstream[0].FQN.String())
	assert.Empty(t, node.Downstream)
}
