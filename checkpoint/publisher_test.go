package checkpoint_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roset-dev/roset-go/checkpoint"
	"github.com/roset-dev/roset-go/roset"
	"github.com/roset-dev/roset-go/rosettest"
)

type resultRecorder struct {
	mu      sync.Mutex
	results []checkpoint.Result
}

func (r *resultRecorder) record(res checkpoint.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *resultRecorder) all() []checkpoint.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]checkpoint.Result(nil), r.results...)
}

func setup(t *testing.T) (*rosettest.Server, *roset.Client, *roset.Node) {
	t.Helper()
	server := rosettest.New()
	t.Cleanup(server.Close)

	client, err := roset.NewClient(server.ClientConfig())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	folder := &roset.Node{
		Name:         "checkpoints",
		Type:         roset.NodeTypeFolder,
		CommitStatus: roset.NodeActive,
	}
	server.SeedNode("/run/checkpoints", folder)
	return server, client, folder
}

func TestPublishCommitsAndAdvancesRef(t *testing.T) {
	_, client, folder := setup(t)

	recorder := &resultRecorder{}
	pub := checkpoint.NewPublisher(client, checkpoint.Options{
		PollInterval: time.Millisecond,
		OnResult:     recorder.record,
	})

	err := pub.Publish(context.Background(), checkpoint.Checkpoint{
		NodeID:  folder.ID,
		Message: "step 1000",
		Ref:     "best",
	})
	require.NoError(t, err)
	pub.Close()

	results := recorder.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Commit)
	assert.Equal(t, roset.CommitCompleted, results[0].Commit.Status)
	require.NotNil(t, results[0].Ref)
	assert.Equal(t, results[0].Commit.ID, results[0].Ref.CommitID)

	ref, err := client.Refs.Get(context.Background(), "best")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, results[0].Commit.ID, ref.CommitID)
}

func TestPublishWithoutRefSkipsRefUpdate(t *testing.T) {
	_, client, folder := setup(t)

	recorder := &resultRecorder{}
	pub := checkpoint.NewPublisher(client, checkpoint.Options{
		PollInterval: time.Millisecond,
		OnResult:     recorder.record,
	})

	require.NoError(t, pub.Publish(context.Background(), checkpoint.Checkpoint{
		NodeID: folder.ID,
	}))
	pub.Close()

	results := recorder.all()
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Commit)
	assert.Nil(t, results[0].Ref)
}

func TestCloseDrainsQueuedCheckpoints(t *testing.T) {
	_, client, folder := setup(t)

	recorder := &resultRecorder{}
	pub := checkpoint.NewPublisher(client, checkpoint.Options{
		QueueSize:    8,
		PollInterval: time.Millisecond,
		OnResult:     recorder.record,
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Publish(ctx, checkpoint.Checkpoint{
			NodeID: folder.ID,
			Ref:    "latest",
		}))
	}
	pub.Close()

	results := recorder.all()
	require.Len(t, results, 5, "Close must drain everything already enqueued")
	for _, res := range results {
		require.NoError(t, res.Err)
	}

	// single worker keeps publishes ordered, so the ref ends on the last one
	ref, err := client.Refs.Get(ctx, "latest")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, results[4].Commit.ID, ref.CommitID)
}

func TestPublishAfterCloseReturnsErrClosed(t *testing.T) {
	_, client, folder := setup(t)

	pub := checkpoint.NewPublisher(client, checkpoint.Options{PollInterval: time.Millisecond})
	pub.Close()

	err := pub.Publish(context.Background(), checkpoint.Checkpoint{NodeID: folder.ID})
	assert.ErrorIs(t, err, checkpoint.ErrClosed)
}

func TestPublishRequiresNodeID(t *testing.T) {
	_, client, _ := setup(t)

	pub := checkpoint.NewPublisher(client, checkpoint.Options{PollInterval: time.Millisecond})
	defer pub.Close()

	err := pub.Publish(context.Background(), checkpoint.Checkpoint{})
	assert.Error(t, err)
}

func TestFailedCommitReportedNotSwallowed(t *testing.T) {
	server, client, folder := setup(t)
	server.FailCommits = true

	recorder := &resultRecorder{}
	pub := checkpoint.NewPublisher(client, checkpoint.Options{
		PollInterval: time.Millisecond,
		OnResult:     recorder.record,
	})

	require.NoError(t, pub.Publish(context.Background(), checkpoint.Checkpoint{
		NodeID: folder.ID,
		Ref:    "best",
	}))
	pub.Close()

	results := recorder.all()
	require.Len(t, results, 1)
	require.True(t, roset.IsCommitFailed(results[0].Err))
	assert.Nil(t, results[0].Ref)

	// the ref never moved for a failed checkpoint
	ref, err := client.Refs.Get(context.Background(), "best")
	require.NoError(t, err)
	assert.Nil(t, ref)
}
