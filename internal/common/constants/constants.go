package constants

import "time"

const (
	DefaultMaxRequestSize = 1 << 20

	SessionWelcomeText = "Session: Joined"
	HubWelcomeText     = "Server: Joined"

	HubDebugSampleRate       = 0.01
	DefaultHubShardCount     = 1
	HubSnapshotTimeout       = 2 * time.Second
	DefaultChannelsListLimit = 1000

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultRelayHTTPPort = "8080"

	DefaultWebSocketWriteWait   = 10 * time.Second
	DefaultWebSocketPongWait    = 60 * time.Second
	DefaultWebSocketPingPeriod  = 54 * time.Second
	DefaultWebSocketMaxMsgSize  = 1024 * 1024
	DefaultWebSocketSendBufSize = 256

	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
