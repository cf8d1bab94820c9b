package config

import (
	"errors"
	"testing"
	"time"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
)

func TestLoadRelayConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"RELAY_HTTP_PORT", "RELAY_WS_WRITE_WAIT", "RELAY_WS_PONG_WAIT", "RELAY_WS_PING_PERIOD",
		"RELAY_WS_MAX_MSG_SIZE", "RELAY_WS_SEND_BUF_SIZE", "RELAY_HUB_SHARDS", "RELAY_ALLOWED_ORIGINS",
		"LOG_DIR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadRelayConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.WebSocketPongWait != constants.DefaultWebSocketPongWait {
		t.Errorf("expected pong wait %v, got %v", constants.DefaultWebSocketPongWait, cfg.WebSocketPongWait)
	}
	if cfg.WebSocketSendBufSize != constants.DefaultWebSocketSendBufSize {
		t.Errorf("expected send buf %d, got %d", constants.DefaultWebSocketSendBufSize, cfg.WebSocketSendBufSize)
	}
	if cfg.HubShards != 1 {
		t.Errorf("expected 1 shard, got %d", cfg.HubShards)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadRelayConfig_Overrides(t *testing.T) {
	t.Setenv("RELAY_HTTP_PORT", "9090")
	t.Setenv("RELAY_WS_PONG_WAIT", "30s")
	t.Setenv("RELAY_WS_PING_PERIOD", "20s")
	t.Setenv("RELAY_HUB_SHARDS", "8")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadRelayConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.HTTPPort)
	}
	if cfg.WebSocketPingPeriod != 20*time.Second {
		t.Errorf("expected ping period 20s, got %v", cfg.WebSocketPingPeriod)
	}
	if cfg.HubShards != 8 {
		t.Errorf("expected 8 shards, got %d", cfg.HubShards)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRelayConfig_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("RELAY_WS_WRITE_WAIT", "soon")
	t.Setenv("RELAY_HUB_SHARDS", "")
	t.Setenv("RELAY_WS_PING_PERIOD", "")
	t.Setenv("RELAY_WS_PONG_WAIT", "")

	cfg, err := LoadRelayConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.WebSocketWriteWait != constants.DefaultWebSocketWriteWait {
		t.Errorf("expected fallback write wait, got %v", cfg.WebSocketWriteWait)
	}
}

func TestRelayConfig_ValidatePingMustBeShorterThanPong(t *testing.T) {
	cfg := validConfig()
	cfg.WebSocketPingPeriod = cfg.WebSocketPongWait

	err := cfg.Validate()
	if !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRelayConfig_ValidateShards(t *testing.T) {
	cfg := validConfig()
	cfg.HubShards = 0

	if err := cfg.Validate(); !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRelayConfig_ValidateOrigins(t *testing.T) {
	cfg := validConfig()
	cfg.AllowedOrigins = []string{"not a url"}

	if err := cfg.Validate(); !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func validConfig() RelayConfig {
	return RelayConfig{
		HTTPPort:             "8080",
		WebSocketWriteWait:   time.Second,
		WebSocketPongWait:    time.Minute,
		WebSocketPingPeriod:  30 * time.Second,
		WebSocketMaxMsgSize:  1024,
		WebSocketSendBufSize: 16,
		HubShards:            1,
		LogLevel:             "INFO",
	}
}

func TestValidConfigPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}
