package bootstrap

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/AlibekovAA/channel-relay/internal/common/config"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
	"github.com/AlibekovAA/channel-relay/internal/relay/websocket"
)

type RelayApp struct {
	Log    *logger.Logger
	Config config.RelayConfig
	Hub    *websocket.ShardedHub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRelayApp() (*RelayApp, error) {
	log, err := initializeLogger("relay")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadRelayConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return newRelayApp(log, cfg), nil
}

func newRelayApp(log *logger.Logger, cfg config.RelayConfig) *RelayApp {
	return &RelayApp{
		Log:    log,
		Config: cfg,
		Hub:    websocket.NewShardedHub(log, websocket.HubConfig{}, cfg.HubShards),
	}
}

// StartHub runs every hub shard in the background until StopHub.
func (a *RelayApp) StartHub() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Hub.Run(ctx)
	}()
}

// StopHub cancels the hub and waits for its shards to drain, or for ctx.
// It has the shape of a server shutdown hook.
func (a *RelayApp) StopHub(ctx context.Context) error {
	if a.cancel == nil {
		return nil
	}
	a.cancel()

	stopped := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub stop: %w", ctx.Err())
	}
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
