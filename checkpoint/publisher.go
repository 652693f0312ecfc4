// Package checkpoint publishes training checkpoints to Roset in the
// background: each published checkpoint is committed atomically, polled to
// completion, and a named ref is advanced to it. The core SDK calls stay
// synchronous; this package wraps them in a bounded single-worker queue so
// a training loop never blocks on commit latency.
package checkpoint

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roset-dev/roset-go/logger"
	"github.com/roset-dev/roset-go/roset"
)

// Checkpoint describes one snapshot to publish
type Checkpoint struct {
	// NodeID is the folder to commit. Required.
	NodeID string

	// Message is the commit message, e.g. "step 1000".
	Message string

	// Ref, when set, is advanced to the completed commit.
	Ref string

	// ExpectedCommitID guards the ref advance with CAS. Leave empty for
	// last-writer-wins, which is the usual choice for a single training
	// job owning its ref.
	ExpectedCommitID string
}

// Result reports the outcome of one published checkpoint
type Result struct {
	Checkpoint Checkpoint
	Commit     *roset.Commit
	Ref        *roset.Ref
	Err        error
}

// Options configure a Publisher
type Options struct {
	// QueueSize bounds the number of checkpoints waiting to publish.
	// Default 16. Publish blocks when the queue is full.
	QueueSize int

	// WaitTimeout bounds each commit poll. Default 5m.
	WaitTimeout time.Duration

	// PollInterval is the sleep between commit polls. Default 500ms.
	PollInterval time.Duration

	// OnResult, when set, is called from the worker goroutine with every
	// outcome, success or failure.
	OnResult func(Result)

	// Logger defaults to a no-op.
	Logger *logger.Logger
}

// Publisher runs a single background worker draining a bounded queue of
// checkpoints. One worker keeps publishes strictly ordered, so a ref only
// ever advances forward through the queue.
type Publisher struct {
	client *roset.Client
	opts   Options
	log    *logger.Logger

	jobs chan Checkpoint
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// ErrClosed is returned by Publish after Close
var ErrClosed = errors.New("checkpoint: publisher is closed")

// NewPublisher starts the worker
func NewPublisher(client *roset.Client, opts Options) *Publisher {
	if opts.QueueSize == 0 {
		opts.QueueSize = 16
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = 5 * time.Minute
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	p := &Publisher{
		client: client,
		opts:   opts,
		log:    log,
		jobs:   make(chan Checkpoint, opts.QueueSize),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Publish enqueues a checkpoint. It blocks while the queue is full and
// returns ErrClosed after Close, or ctx.Err() if the caller gives up first.
func (p *Publisher) Publish(ctx context.Context, cp Checkpoint) error {
	if cp.NodeID == "" {
		return errors.New("checkpoint: node ID is required")
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.jobs <- cp:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new checkpoints, drains the queue, and waits for
// the worker to finish.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Publisher) worker() {
	defer p.wg.Done()

	for {
		select {
		case cp := <-p.jobs:
			p.publish(cp)
		case <-p.done:
			// Drain whatever was enqueued before Close.
			for {
				select {
				case cp := <-p.jobs:
					p.publish(cp)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(cp Checkpoint) {
	ctx := context.Background()
	result := Result{Checkpoint: cp}

	commit, err := p.client.Commits.Create(ctx, roset.CreateCommitParams{
		NodeID:  cp.NodeID,
		Message: cp.Message,
	})
	if err != nil {
		p.log.Error("checkpoint commit create failed", "node_id", cp.NodeID, "error", err)
		result.Err = err
		p.report(result)
		return
	}

	commit, err = p.client.Commits.WaitFor(ctx, commit.ID, roset.WaitOptions{
		Timeout:      p.opts.WaitTimeout,
		PollInterval: p.opts.PollInterval,
	})
	if err != nil {
		p.log.Error("checkpoint commit did not complete", "node_id", cp.NodeID, "error", err)
		result.Err = err
		p.report(result)
		return
	}
	result.Commit = commit

	if cp.Ref != "" {
		ref, err := p.client.Refs.Update(ctx, cp.Ref, commit.ID, roset.UpdateRefOptions{
			ExpectedCommitID: cp.ExpectedCommitID,
		})
		if err != nil {
			p.log.Error("checkpoint ref update failed", "ref", cp.Ref, "commit_id", commit.ID, "error", err)
			result.Err = err
			p.report(result)
			return
		}
		result.Ref = ref
	}

	p.log.Info("checkpoint published", "node_id", cp.NodeID, "commit_id", commit.ID, "ref", cp.Ref)
	p.report(result)
}

func (p *Publisher) report(result Result) {
	if p.opts.OnResult != nil {
		p.opts.OnResult(result)
	}
}
