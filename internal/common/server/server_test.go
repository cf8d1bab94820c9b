package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig("9000")
	if cfg.Addr != ":9000" {
		t.Errorf("expected :9000, got %s", cfg.Addr)
	}
	if cfg.ReadHeaderTimeout != constants.ServerReadHeaderTimeout {
		t.Errorf("unexpected read header timeout %v", cfg.ReadHeaderTimeout)
	}

	srv := NewServer(cfg, http.NotFoundHandler())
	if srv.Addr != ":9000" || srv.IdleTimeout != constants.ServerIdleTimeout {
		t.Errorf("server not built from config: %+v", srv)
	}
}

func TestShutdown_RunsHooksWithDeadline(t *testing.T) {
	log := logger.NewWriter(io.Discard, "test", "ERROR")
	srv := NewServer(DefaultServerConfig("0"), http.NotFoundHandler())

	var calls []int
	hooks := []ShutdownHook{
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected hook context to carry a deadline")
			}
			calls = append(calls, 1)
			return nil
		},
		func(context.Context) error {
			calls = append(calls, 2)
			return errors.New("boom")
		},
		func(context.Context) error {
			calls = append(calls, 3)
			return nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		Shutdown(srv, log, "test", hooks)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	if len(calls) != 3 || calls[0] != 1 || calls[2] != 3 {
		t.Errorf("expected all hooks in order despite failure, got %v", calls)
	}
}
