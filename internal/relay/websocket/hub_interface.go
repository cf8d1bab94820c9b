package websocket

import "context"

// HubInterface is what a Session needs from the registry. Register,
// Unregister and Broadcast are fire-and-forget and must never block.
type HubInterface interface {
	Register(connID, channel string, handle Outbound)
	Unregister(connID, channel string)
	Broadcast(fromID, channel, text string)
	Channels(ctx context.Context) ([]ChannelInfo, error)
	Run(ctx context.Context)
}

var (
	_ HubInterface = (*Hub)(nil)
	_ HubInterface = (*ShardedHub)(nil)
)
