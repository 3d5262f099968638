package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/resource"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testResource(stack, name string) *Resource {
	return &Resource{
		URN:     "urn:pulumi:" + stack + "::castai::castai:aws:EksCluster::" + name,
		Stack:   stack,
		Token:   "castai:aws:EksCluster",
		Name:    name,
		ID:      name + "-id",
		Inputs:  resource.PropertyMap{"region": "us-west-2", "subnets": []any{"a", "b"}},
		Outputs: resource.PropertyMap{"region": "us-west-2", "clusterToken": "tok"},
	}
}

func TestStore_SaveAndGetResource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := testResource("dev", "eks")
	require.NoError(t, store.SaveResource(ctx, r))
	assert.Equal(t, 1, r.Sequence)

	got, err := store.GetResource(ctx, r.URN)
	require.NoError(t, err)
	assert.Equal(t, "eks-id", got.ID)
	assert.Equal(t, "castai:aws:EksCluster", got.Token)
	assert.Equal(t, "us-west-2", got.Inputs["region"])
	assert.Equal(t, []any{"a", "b"}, got.Inputs["subnets"])
	assert.Equal(t, "tok", got.Outputs["clusterToken"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_GetResource_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetResource(context.Background(), "urn:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveResource_RequiresURN(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.SaveResource(context.Background(), &Resource{Stack: "dev"}))
}

func TestStore_SequenceIsStablePerStack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testResource("dev", "first")
	second := testResource("dev", "second")
	other := testResource("prod", "other")
	require.NoError(t, store.SaveResource(ctx, first))
	require.NoError(t, store.SaveResource(ctx, second))
	require.NoError(t, store.SaveResource(ctx, other))

	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, 1, other.Sequence)

	// updating keeps the registration position
	first.Outputs = resource.PropertyMap{"region": "eu-west-1"}
	require.NoError(t, store.SaveResource(ctx, first))
	assert.Equal(t, 1, first.Sequence)

	list, err := store.ListResources(ctx, "dev")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "eu-west-1", list[0].Outputs["region"])
	assert.Equal(t, "second", list[1].Name)
}

func TestStore_DeleteResource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := testResource("dev", "eks")
	require.NoError(t, store.SaveResource(ctx, r))
	require.NoError(t, store.DeleteResource(ctx, r.URN))

	_, err := store.GetResource(ctx, r.URN)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteResource(ctx, r.URN), ErrNotFound)
}

func TestStore_Exports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveExports(ctx, "dev", map[string]any{
		"clusterId": "abc",
		"subnets":   []string{"a", "b"},
		"count":     3,
	}))

	exports, err := store.Exports(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "abc", exports["clusterId"])
	assert.Equal(t, []any{"a", "b"}, exports["subnets"])
	assert.Equal(t, float64(3), exports["count"])

	require.NoError(t, store.SaveExports(ctx, "dev", map[string]any{"clusterId": "def"}))
	exports, err = store.Exports(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"clusterId": "def"}, exports)
}

func TestStore_ListStacks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResource(ctx, testResource("prod", "eks")))
	require.NoError(t, store.SaveExports(ctx, "dev", map[string]any{"a": 1}))

	stacks, err := store.ListStacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "prod"}, stacks)
}

func TestStore_AuditSink(t *testing.T) {
	store := newTestStore(t)

	logger := audit.NewAuditLogger(&audit.AuditLoggerConfig{
		Enabled:    true,
		Stack:      "dev",
		EventSinks: []audit.EventSink{store},
	})
	logger.LogResourceOperation(context.Background(), "create",
		audit.ResourceInfo{Token: "castai:aws:EksCluster", Name: "eks"}, time.Second, nil)

	events, err := store.AuditEvents(context.Background(), "dev")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventResourceCreated), events[0].EventType)
	assert.Equal(t, "castai:aws:EksCluster", events[0].Token)
	assert.Equal(t, "eks", events[0].Name)
	assert.Contains(t, events[0].Details, `"operation":"create"`)
}

func TestStore_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := Open("sqlite:" + path)
	require.NoError(t, err)
	require.NoError(t, store.SaveResource(context.Background(), testResource("dev", "eks")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ListResources(context.Background(), "dev")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
