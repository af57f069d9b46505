package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"OptionLab/pkg/config"
	xhttp "OptionLab/pkg/http"
	applogger "OptionLab/pkg/logger"
)

type countingPruner struct{ n int32 }

func (p *countingPruner) Prune() { atomic.AddInt32(&p.n, 1) }

type closeRecorder struct{ closed int32 }

func (c *closeRecorder) Close() error {
	atomic.AddInt32(&c.closed, 1)
	return nil
}

func TestRunContextShutsDownCleanly(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetricsPath(""))
	app := New(cfg, applogger.Nop(), srv)

	pruner := &countingPruner{}
	app.SetPruner(pruner)
	app.pruneEvery = 5 * time.Millisecond
	closer := &closeRecorder{}
	app.AddCloser(closer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("app did not shut down")
	}
	if atomic.LoadInt32(&pruner.n) == 0 {
		t.Fatalf("pruner never ran")
	}
	if atomic.LoadInt32(&closer.closed) != 1 {
		t.Fatalf("closer not closed exactly once")
	}
}
