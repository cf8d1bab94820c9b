package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
)

type RelayConfig struct {
	HTTPPort             string        `validate:"required,numeric"`
	WebSocketWriteWait   time.Duration `validate:"gt=0"`
	WebSocketPongWait    time.Duration `validate:"gt=0"`
	WebSocketPingPeriod  time.Duration `validate:"gt=0,ltfield=WebSocketPongWait"`
	WebSocketMaxMsgSize  int64         `validate:"gt=0"`
	WebSocketSendBufSize int           `validate:"gt=0"`
	HubShards            int           `validate:"gte=1,lte=256"`
	AllowedOrigins       []string      `validate:"dive,url"`
	LogDir               string
	LogLevel             string `validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR CRITICAL debug info warn warning error critical"`
}

var validate = validator.New()

func LoadRelayConfig() (RelayConfig, error) {
	cfg := RelayConfig{
		HTTPPort:             getEnv("RELAY_HTTP_PORT", constants.DefaultRelayHTTPPort),
		WebSocketWriteWait:   getDurationEnv("RELAY_WS_WRITE_WAIT", constants.DefaultWebSocketWriteWait),
		WebSocketPongWait:    getDurationEnv("RELAY_WS_PONG_WAIT", constants.DefaultWebSocketPongWait),
		WebSocketPingPeriod:  getDurationEnv("RELAY_WS_PING_PERIOD", constants.DefaultWebSocketPingPeriod),
		WebSocketMaxMsgSize:  getInt64Env("RELAY_WS_MAX_MSG_SIZE", constants.DefaultWebSocketMaxMsgSize),
		WebSocketSendBufSize: getIntEnv("RELAY_WS_SEND_BUF_SIZE", constants.DefaultWebSocketSendBufSize),
		HubShards:            getIntEnv("RELAY_HUB_SHARDS", constants.DefaultHubShardCount),
		AllowedOrigins:       getListEnv("RELAY_ALLOWED_ORIGINS"),
		LogDir:               getEnv("LOG_DIR", ""),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return RelayConfig{}, err
	}
	return cfg, nil
}

func (c RelayConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", commonerrors.ErrInvalidConfig, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getListEnv(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
