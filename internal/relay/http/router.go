package http

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/gorilla/mux"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlibekovAA/channel-relay/internal/common/config"
	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
	commonhttp "github.com/AlibekovAA/channel-relay/internal/common/http"
	"github.com/AlibekovAA/channel-relay/internal/common/idgen"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
	"github.com/AlibekovAA/channel-relay/internal/relay/websocket"
)

type Handler struct {
	hub      websocket.HubInterface
	ids      idgen.IDGenerator
	upgrader gorillaWS.Upgrader
	cfg      config.RelayConfig
	log      *logger.Logger
}

type channelResponse struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

type channelsResponse struct {
	Channels []channelResponse `json:"channels"`
	Total    int               `json:"total"`
}

func NewHandler(hub websocket.HubInterface, ids idgen.IDGenerator, cfg config.RelayConfig, log *logger.Logger) http.Handler {
	h := &Handler{
		hub: hub,
		ids: ids,
		cfg: cfg,
		log: log,
	}
	h.upgrader = gorillaWS.Upgrader{
		ReadBufferSize:  constants.WebSocketReadBufferSize,
		WriteBufferSize: constants.WebSocketWriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}

	rest := mux.NewRouter()
	rest.HandleFunc("/", h.hello).Methods(http.MethodGet)
	rest.HandleFunc("/health", commonhttp.HealthHandler(log))
	rest.HandleFunc("/api/channels", commonhttp.RequireMethod(http.MethodGet)(h.listChannels))
	rest.HandleFunc("/ws/", h.missingChannel)
	rest.NotFoundHandler = http.HandlerFunc(notFound)

	root := mux.NewRouter()
	root.HandleFunc("/ws/{channel}", h.handleWebSocket).Methods(http.MethodGet)
	root.Handle("/metrics", promhttp.Handler())
	root.PathPrefix("/").Handler(commonhttp.BuildBaseHandler(log, rest))

	return root
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.cfg.AllowedOrigins) > 0 {
		return slices.Contains(h.cfg.AllowedOrigins, origin)
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	return u.Host == host
}

func (h *Handler) hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello, world!"))
}

func (h *Handler) missingChannel(w http.ResponseWriter, r *http.Request) {
	commonhttp.HandleError(w, r, commonerrors.ErrChannelRequired, h.log)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeNotFound, "not found", nil, commonhttp.TraceIDFromContext(r.Context()))
}

func (h *Handler) listChannels(w http.ResponseWriter, r *http.Request) {
	limit := constants.DefaultChannelsListLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= constants.DefaultChannelsListLimit {
		limit = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.HubSnapshotTimeout)
	defer cancel()

	infos, err := h.hub.Channels(ctx)
	if err != nil {
		commonhttp.HandleError(w, r, commonerrors.ErrHubUnavailable.WithCause(err), h.log)
		return
	}

	resp := channelsResponse{Channels: make([]channelResponse, 0, min(len(infos), limit)), Total: len(infos)}
	for _, info := range infos {
		if len(resp.Channels) == limit {
			break
		}
		resp.Channels = append(resp.Channels, channelResponse{ID: info.ID, Members: len(info.Members)})
	}

	h.log.WithFields(r.Context(), logger.Fields{
		"channels": resp.Total,
		"limit":    limit,
		"action":   "relay_channels_list",
	}).Debug("channels listed")
	commonhttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channel := mux.Vars(r)["channel"]
	if channel == "" {
		commonhttp.HandleError(w, r, commonerrors.ErrChannelRequired, h.log)
		return
	}

	connID, err := h.ids.NewID()
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"channel": channel,
			"origin":  r.Header.Get("Origin"),
			"action":  "relay_ws_upgrade_failed",
		}).Warnf("websocket upgrade failed: %v", err)
		return
	}

	stream := websocket.NewStream(conn, websocket.StreamConfig{
		WriteWait:  h.cfg.WebSocketWriteWait,
		PongWait:   h.cfg.WebSocketPongWait,
		MaxMsgSize: h.cfg.WebSocketMaxMsgSize,
	})
	sess := websocket.NewSession(connID, r.URL.Query().Get("name"), channel, h.hub, stream, h.log, websocket.SessionConfig{
		SendBufSize: h.cfg.WebSocketSendBufSize,
		PingPeriod:  h.cfg.WebSocketPingPeriod,
	})

	h.log.WithFields(ctx, logger.Fields{
		"conn_id": connID,
		"channel": channel,
		"remote":  r.RemoteAddr,
		"action":  "relay_ws_connected",
	}).Info("websocket connected")

	sess.Start()
	go stream.Serve(sess)
}
