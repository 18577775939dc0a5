package bot

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Yulia51188/fish-house/internal/conversation"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

const defaultQueueSize = 64

// Dispatcher processes one conversation event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev conversation.Event) (conversation.Outcome, error)
}

type job struct {
	traceID    string
	event      conversation.Event
	callbackID string
}

// Pool runs dispatches on a fixed set of workers. Events of one chat always
// land on the same worker, so a conversation sees its events in order while
// different conversations proceed in parallel.
type Pool struct {
	dispatcher Dispatcher
	sender     telegram.MessageSender
	queues     []chan job
}

// NewPool creates a pool with the given number of workers.
func NewPool(dispatcher Dispatcher, sender telegram.MessageSender, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	queues := make([]chan job, workers)
	for i := range queues {
		queues[i] = make(chan job, defaultQueueSize)
	}
	return &Pool{dispatcher: dispatcher, sender: sender, queues: queues}
}

func (p *Pool) shard(chatID int64) chan job {
	return p.queues[uint64(chatID)%uint64(len(p.queues))]
}

// Submit queues a job, blocking while the chat's worker is busy.
func (p *Pool) Submit(ctx context.Context, j job) error {
	select {
	case p.shard(j.event.ChatID) <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs; workers drain their queues and exit.
// Must not be called concurrently with Submit.
func (p *Pool) Close() {
	for _, q := range p.queues {
		close(q)
	}
}

// Run processes jobs until the queues are closed or ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range p.queues {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case j, ok := <-q:
					if !ok {
						return nil
					}
					p.process(ctx, j)
				}
			}
		})
	}
	return g.Wait()
}

// process runs a job to completion: a started dispatch is not cancelled.
func (p *Pool) process(ctx context.Context, j job) {
	out, err := p.dispatcher.Dispatch(context.WithoutCancel(ctx), j.event)
	if err != nil {
		slog.Info("Event dropped",
			"trace_id", j.traceID,
			"chat_id", j.event.ChatID,
			"fault", string(conversation.FaultKindOf(err)))
	} else {
		slog.Debug("Event processed", "trace_id", j.traceID, "from", out.From.String(), "to", out.To.String())
	}

	if j.callbackID != "" {
		_ = p.sender.AckCallback(j.callbackID, out.Notice)
	}
}
