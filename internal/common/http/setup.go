package http

import (
	"net/http"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	"github.com/AlibekovAA/channel-relay/internal/common/httpmetrics"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
)

// BuildBaseHandler wraps plain REST handlers. WebSocket routes must not go
// through it: the metrics recorder does not support hijacking.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	return securityHeaders(csp(recovery(traceID(maxRequestSize(metrics.Wrap(handler))))))
}
