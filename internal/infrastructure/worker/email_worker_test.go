package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestEmailWorker_DeliversQueuedMail(t *testing.T) {
	sender := &recordingSender{}
	w := NewEmailWorker(sender, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := w.Send(context.Background(), "user@acme.test", "hi", "body"); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for sender.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("delivered %d of 3 messages before timeout", sender.count())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestEmailWorker_SendsSynchronouslyWhenStopped(t *testing.T) {
	sender := &recordingSender{}
	w := NewEmailWorker(sender, 8, zap.NewNop())

	if err := w.Send(context.Background(), "user@acme.test", "hi", "body"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sender.count() != 1 {
		t.Errorf("expected synchronous delivery, got %d sends", sender.count())
	}
}

func TestEmailWorker_DrainsQueueOnShutdown(t *testing.T) {
	sender := &recordingSender{}
	w := NewEmailWorker(sender, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := w.Send(context.Background(), "user@acme.test", "hi", "body"); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	cancel()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if sender.count() != 5 {
		t.Errorf("expected 5 deliveries after drain, got %d", sender.count())
	}
}
