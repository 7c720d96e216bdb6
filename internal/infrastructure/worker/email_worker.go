package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

type emailJob struct {
	to      string
	subject string
	body    string
}

// EmailWorker decouples email delivery from request handling. It
// implements port.EmailSender by queueing messages and draining the
// queue on a background goroutine; a full queue falls back to
// synchronous delivery rather than dropping the message.
type EmailWorker struct {
	sender port.EmailSender
	queue  chan emailJob
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewEmailWorker creates an email worker with the given queue depth
func NewEmailWorker(sender port.EmailSender, queueSize int, logger *zap.Logger) *EmailWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &EmailWorker{
		sender: sender,
		queue:  make(chan emailJob, queueSize),
		logger: logger,
	}
}

// Name implements Worker
func (w *EmailWorker) Name() string {
	return "email-worker"
}

// Start implements Worker
func (w *EmailWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("email worker already running")
	}
	w.running = true
	w.done = make(chan struct{})

	go w.run(ctx)
	return nil
}

// Stop implements Worker
func (w *EmailWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	<-w.done
	return nil
}

// Send implements port.EmailSender by enqueueing the message
func (w *EmailWorker) Send(ctx context.Context, to, subject, body string) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if !running {
		return w.sender.Send(ctx, to, subject, body)
	}

	select {
	case w.queue <- emailJob{to: to, subject: subject, body: body}:
		return nil
	default:
		w.logger.Warn("Email queue full, sending synchronously", zap.String("to", to))
		return w.sender.Send(ctx, to, subject, body)
	}
}

func (w *EmailWorker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.queue:
			w.deliver(job)
		}
	}
}

// drain flushes whatever is still queued during shutdown
func (w *EmailWorker) drain() {
	for {
		select {
		case job := <-w.queue:
			w.deliver(job)
		default:
			return
		}
	}
}

func (w *EmailWorker) deliver(job emailJob) {
	if err := w.sender.Send(context.Background(), job.to, job.subject, job.body); err != nil {
		w.logger.Error("Failed to deliver queued email",
			zap.String("to", job.to),
			zap.String("subject", job.subject),
			zap.Error(err))
	}
}

var _ Worker = (*EmailWorker)(nil)
var _ port.EmailSender = (*EmailWorker)(nil)
