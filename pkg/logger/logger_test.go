package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLoggerWritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With("pricing")

	l.Info("priced", Float64("price", 13.35), Int("paths", 1000), String("model", "black_scholes"))

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["component"] != "pricing" || got["model"] != "black_scholes" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if got["price"].(float64) != 13.35 || got["paths"].(float64) != 1000 {
		t.Fatalf("unexpected numeric fields: %v", got)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatalf("expected warn to be written")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestCollectorAggregatesDuplicates(t *testing.T) {
	pub := &capturePublisher{}
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel)
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "pricer.logs",
		Publisher:      pub,
	})

	child := l.With("pricing")
	for i := 0; i < 3; i++ {
		child.Error("simulation failed", Error(errors.New("boom")))
	}
	l.sink.get().Flush()
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one batch with one entry, got %+v", pub.batches)
	}
	if pub.batches[0][0].Count != 3 || pub.topic != "pricer.logs" {
		t.Fatalf("unexpected aggregate: %+v topic=%s", pub.batches[0][0], pub.topic)
	}
}
