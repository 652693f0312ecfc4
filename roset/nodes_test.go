package roset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roset-dev/roset-go/cache"
	"github.com/roset-dev/roset-go/logger"
	"github.com/roset-dev/roset-go/roset"
	"github.com/roset-dev/roset-go/rosettest"
)

func TestCreateAndFetchNode(t *testing.T) {
	server := rosettest.New()
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	folder, err := client.Nodes.CreateFolder(ctx, "datasets", "")
	require.NoError(t, err)
	assert.Equal(t, roset.NodeTypeFolder, folder.Type)
	assert.Equal(t, roset.NodeActive, folder.CommitStatus)

	file, err := client.Nodes.Create(ctx, roset.CreateNodeParams{
		Name:           "train.csv",
		Type:           roset.NodeTypeFile,
		ParentID:       folder.ID,
		Metadata:       map[string]any{"rows": 1000},
		IdempotencyKey: roset.NewIdempotencyKey(),
	})
	require.NoError(t, err)
	require.NotNil(t, file.ParentID)
	assert.Equal(t, folder.ID, *file.ParentID)

	fetched, err := client.Nodes.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "train.csv", fetched.Name)
}

func TestCreateNodeDuplicatePathConflicts(t *testing.T) {
	server := rosettest.New()
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	_, err := client.Nodes.CreateFolder(ctx, "datasets", "")
	require.NoError(t, err)

	_, err = client.Nodes.CreateFolder(ctx, "datasets", "")
	assert.True(t, roset.IsConflict(err))
}

func TestNodeCacheReadThrough(t *testing.T) {
	server := rosettest.New()
	defer server.Close()

	nodeCache := cache.NewMemoryCache(logger.Nop())
	defer nodeCache.Close()

	cfg := server.ClientConfig()
	cfg.NodeCache = nodeCache
	client, err := roset.NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	folder := seedFolder(server, "/data", "data")
	ctx := context.Background()
	path := "/v1/nodes/" + folder.ID

	_, err = client.Nodes.Get(ctx, folder.ID)
	require.NoError(t, err)
	_, err = client.Nodes.Get(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, server.RequestCount(path), "second read served from cache")

	// writes invalidate, so the next read goes back to the server
	_, err = client.Nodes.Rename(ctx, folder.ID, "data-v2")
	require.NoError(t, err)

	renamed, err := client.Nodes.Get(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "data-v2", renamed.Name)
	// 1 initial GET + the PATCH + the post-invalidation GET share the path
	assert.Equal(t, 3, server.RequestCount(path))
}

func TestMergeMetadataSemantics(t *testing.T) {
	server := rosettest.New()
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	node, err := client.Nodes.Create(ctx, roset.CreateNodeParams{
		Name:     "model.pt",
		Type:     roset.NodeTypeFile,
		Metadata: map[string]any{"epoch": 1, "optimizer": "adam", "lr": 0.001},
	})
	require.NoError(t, err)

	// merge patch: overwrite epoch, delete lr, leave optimizer alone
	updated, err := client.Nodes.MergeMetadata(ctx, node.ID, map[string]any{
		"epoch": 2,
		"lr":    nil,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, updated.Metadata["epoch"])
	assert.Equal(t, "adam", updated.Metadata["optimizer"])
	assert.NotContains(t, updated.Metadata, "lr")
}

func TestDeleteMovesToTrash(t *testing.T) {
	server := rosettest.New()
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	node, err := client.Nodes.CreateFolder(ctx, "scratch", "")
	require.NoError(t, err)

	require.NoError(t, client.Nodes.Delete(ctx, node.ID))

	_, err = client.Nodes.Get(ctx, node.ID)
	assert.True(t, roset.IsNotFound(err), "trashed nodes read as absent")
}
