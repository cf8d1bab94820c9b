package websocket

type requestKind int

const (
	requestRegister requestKind = iota + 1
	requestUnregister
	requestBroadcast
	requestSnapshot
)

func (k requestKind) String() string {
	switch k {
	case requestRegister:
		return "register"
	case requestUnregister:
		return "unregister"
	case requestBroadcast:
		return "broadcast"
	case requestSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// request is the single envelope carried by a hub mailbox. Only the fields
// relevant to kind are set.
type request struct {
	kind    requestKind
	connID  string
	channel string
	text    string
	handle  Outbound
	reply   chan []ChannelInfo
}

// ChannelInfo is a point-in-time view of one channel's membership.
type ChannelInfo struct {
	ID      string
	Members []string
}

// Outbound delivers one text frame to a single connection without blocking.
// Implementations return an error when the frame cannot be queued; the hub
// never retries.
type Outbound interface {
	Deliver(text string) error
}
