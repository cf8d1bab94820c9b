package websocket

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
	"github.com/AlibekovAA/channel-relay/internal/relay/metrics"
)

// Hub owns channel membership. The channels map is touched only by the
// goroutine running Run; every other caller talks to it through the mailbox.
type Hub struct {
	name     string
	channels map[string]map[string]Outbound
	memberOf map[string]string
	mailbox  *mailbox
	welcome  string
	log      *logger.Logger
	ctx      context.Context
	done     chan struct{}
}

type HubConfig struct {
	// Name labels the hub in logs and metrics; shards use their index.
	Name        string
	WelcomeText string
}

func NewHub(log *logger.Logger, config HubConfig) *Hub {
	if config.Name == "" {
		config.Name = "0"
	}
	if config.WelcomeText == "" {
		config.WelcomeText = constants.HubWelcomeText
	}

	return &Hub{
		name:     config.Name,
		channels: make(map[string]map[string]Outbound),
		memberOf: make(map[string]string),
		mailbox:  newMailbox(),
		welcome:  config.WelcomeText,
		log:      log,
		ctx:      context.Background(),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Register(connID, channel string, handle Outbound) {
	h.submit(request{kind: requestRegister, connID: connID, channel: channel, handle: handle})
}

func (h *Hub) Unregister(connID, channel string) {
	h.submit(request{kind: requestUnregister, connID: connID, channel: channel})
}

func (h *Hub) Broadcast(fromID, channel, text string) {
	h.submit(request{kind: requestBroadcast, connID: fromID, channel: channel, text: text})
}

// Channels returns a snapshot taken after every request submitted before the
// call has been applied.
func (h *Hub) Channels(ctx context.Context) ([]ChannelInfo, error) {
	reply := make(chan []ChannelInfo, 1)
	if !h.submit(request{kind: requestSnapshot, reply: reply}) {
		return nil, commonerrors.ErrHubStopped
	}

	select {
	case infos := <-reply:
		return infos, nil
	case <-h.done:
		return nil, commonerrors.ErrHubStopped
	case <-ctx.Done():
		return nil, fmt.Errorf("hub %s snapshot: %w", h.name, ctx.Err())
	}
}

func (h *Hub) submit(req request) bool {
	depth, ok := h.mailbox.push(req)
	if !ok {
		h.log.WithFields(h.ctx, logger.Fields{
			"shard":   h.name,
			"request": req.kind.String(),
			"action":  "relay_hub_stopped",
		}).Debug("hub stopped, request dropped")
		return false
	}
	metrics.SetQueueDepth(h.name, depth)
	return true
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	h.log.WithFields(ctx, logger.Fields{
		"shard":  h.name,
		"action": "relay_hub_started",
	}).Info("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return

		case <-h.mailbox.ready:
			for _, req := range h.mailbox.drain() {
				h.handle(req)
			}
			metrics.SetQueueDepth(h.name, 0)
		}
	}
}

func (h *Hub) handle(req request) {
	switch req.kind {
	case requestRegister:
		h.handleRegister(req.connID, req.channel, req.handle)
	case requestUnregister:
		h.handleUnregister(req.connID, req.channel)
	case requestBroadcast:
		h.handleBroadcast(req.connID, req.channel, req.text)
	case requestSnapshot:
		req.reply <- h.snapshot()
	}
}

func (h *Hub) handleRegister(connID, channel string, handle Outbound) {
	if prev, ok := h.memberOf[connID]; ok && prev != channel {
		h.log.WithFields(h.ctx, logger.Fields{
			"conn_id": connID,
			"from":    prev,
			"to":      channel,
			"action":  "relay_register_move",
		}).Warn("connection re-registered under another channel")
		h.handleUnregister(connID, prev)
	}

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[string]Outbound)
		h.channels[channel] = members
		metrics.IncrementActiveChannels()
	}
	if _, exists := members[connID]; !exists {
		metrics.IncrementActiveConnections()
	}
	members[connID] = handle
	h.memberOf[connID] = channel

	h.log.WithFields(h.ctx, logger.Fields{
		"shard":   h.name,
		"conn_id": connID,
		"channel": channel,
		"members": len(members),
		"action":  "relay_register",
	}).Info("connection registered")

	if err := handle.Deliver(h.welcome); err != nil {
		metrics.IncrementDelivery("dropped")
		h.log.WithFields(h.ctx, logger.Fields{
			"conn_id": connID,
			"channel": channel,
			"action":  "relay_welcome_dropped",
		}).Debugf("welcome not delivered: %v", err)
	}
}

func (h *Hub) handleUnregister(connID, channel string) {
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	if _, ok := members[connID]; !ok {
		return
	}

	delete(members, connID)
	if h.memberOf[connID] == channel {
		delete(h.memberOf, connID)
	}
	metrics.DecrementActiveConnections()

	remaining := len(members)
	if remaining == 0 {
		delete(h.channels, channel)
		metrics.DecrementActiveChannels()
	}

	h.log.WithFields(h.ctx, logger.Fields{
		"shard":     h.name,
		"conn_id":   connID,
		"channel":   channel,
		"remaining": remaining,
		"action":    "relay_unregister",
	}).Info("connection unregistered")
}

func (h *Hub) handleBroadcast(fromID, channel, text string) {
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	metrics.IncrementBroadcast()

	delivered := 0
	for connID, handle := range members {
		if err := handle.Deliver(text); err != nil {
			metrics.IncrementDelivery("dropped")
			h.log.WithFields(h.ctx, logger.Fields{
				"conn_id": connID,
				"channel": channel,
				"action":  "relay_delivery_dropped",
			}).Debugf("delivery dropped: %v", err)
			continue
		}
		metrics.IncrementDelivery("delivered")
		delivered++
	}

	h.log.WithFields(h.ctx, logger.Fields{
		"from":      fromID,
		"channel":   channel,
		"delivered": delivered,
		"members":   len(members),
		"action":    "relay_broadcast",
	}).DebugSampled(constants.HubDebugSampleRate, "broadcast dispatched")
}

func (h *Hub) snapshot() []ChannelInfo {
	infos := make([]ChannelInfo, 0, len(h.channels))
	for id, members := range h.channels {
		ids := make([]string, 0, len(members))
		for connID := range members {
			ids = append(ids, connID)
		}
		sort.Strings(ids)
		infos = append(infos, ChannelInfo{ID: id, Members: ids})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (h *Hub) shutdown(ctx context.Context) {
	dropped := h.mailbox.close()

	for channel, members := range h.channels {
		for range members {
			metrics.DecrementActiveConnections()
		}
		delete(h.channels, channel)
		metrics.DecrementActiveChannels()
	}
	clear(h.memberOf)
	metrics.SetQueueDepth(h.name, 0)

	h.log.WithFields(ctx, logger.Fields{
		"shard":   h.name,
		"dropped": len(dropped),
		"action":  "relay_hub_shutdown",
	}).Info("hub shutdown completed")
}
