package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type scriptedHandler struct {
	topic string
	errs  []error
	calls int
	trace string
	panic bool
}

func (h *scriptedHandler) Topic() string { return h.topic }

func (h *scriptedHandler) Handle(ctx context.Context, _ []byte) error {
	h.trace = TraceIDFrom(ctx)
	h.calls++
	if h.panic {
		panic("makeslice: len out of range")
	}
	if h.calls <= len(h.errs) {
		return h.errs[h.calls-1]
	}
	return nil
}

func newTestConsumer(t *testing.T, h *scriptedHandler) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	c, err := NewConsumer(nil,
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond),
		WithConsumerDLQ("requests.dlq"),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	r, w := &fakeReader{}, &fakeWriter{}
	c.RegisterHandler(h)
	c.readers[h.topic] = r
	c.dlq = w
	c.WithConsumerHook(NewHookChain(TraceHook()))
	return c, r, w
}

func testMessage(topic string) *message {
	return &message{topic: topic, km: kafka.Message{
		Topic:   topic,
		Value:   []byte(`{}`),
		Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}},
	}}
}

func TestProcessRetriesTransientErrors(t *testing.T) {
	h := &scriptedHandler{topic: "requests", errs: []error{errors.New("broker down"), errors.New("broker down")}}
	c, r, w := newTestConsumer(t, h)

	c.process(testMessage("requests"))

	if h.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", h.calls)
	}
	if len(w.written) != 0 || len(r.committed) != 1 {
		t.Fatalf("expected commit without dlq, dlq=%d commits=%d", len(w.written), len(r.committed))
	}
	if h.trace != "abc" {
		t.Fatalf("trace id not propagated: %q", h.trace)
	}
}

func TestProcessPermanentSkipsRetries(t *testing.T) {
	h := &scriptedHandler{topic: "requests", errs: []error{Permanent(errors.New("bad json"))}}
	c, r, w := newTestConsumer(t, h)

	c.process(testMessage("requests"))

	if h.calls != 1 {
		t.Fatalf("permanent error retried: %d calls", h.calls)
	}
	if len(w.written) != 1 || w.written[0].Topic != "requests.dlq" {
		t.Fatalf("expected one dlq message, got %+v", w.written)
	}
	if len(r.committed) != 1 {
		t.Fatalf("expected commit after dlq")
	}
}

func TestProcessDeadLettersHandlerPanic(t *testing.T) {
	h := &scriptedHandler{topic: "requests", panic: true}
	c, r, w := newTestConsumer(t, h)

	c.process(testMessage("requests"))

	if h.calls != 1 {
		t.Fatalf("panicking handler retried: %d calls", h.calls)
	}
	if len(w.written) != 1 || len(r.committed) != 1 {
		t.Fatalf("expected dead letter and commit, dlq=%d commits=%d", len(w.written), len(r.committed))
	}
}

func TestProcessExhaustsRetries(t *testing.T) {
	fail := errors.New("still down")
	h := &scriptedHandler{topic: "requests", errs: []error{fail, fail, fail, fail}}
	c, _, w := newTestConsumer(t, h)

	c.process(testMessage("requests"))

	if h.calls != 3 {
		t.Fatalf("expected retry max + 1 attempts, got %d", h.calls)
	}
	if len(w.written) != 1 {
		t.Fatalf("expected dead letter after retries")
	}
}

func TestHookChainRecoversPanics(t *testing.T) {
	chain := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
	})
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestBackoffBounded(t *testing.T) {
	for attempt := 1; attempt < 70; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, time.Second, attempt)
		if d <= 0 || d > time.Second {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
