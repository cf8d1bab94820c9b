package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AlibekovAA/channel-relay/internal/common/constants"
	commonerrors "github.com/AlibekovAA/channel-relay/internal/common/errors"
	"github.com/AlibekovAA/channel-relay/internal/common/logger"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recorder) Deliver(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, text)
	return nil
}

func (r *recorder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *recorder) count(text string) int {
	n := 0
	for _, t := range r.received() {
		if t == text {
			n++
		}
	}
	return n
}

func testLogger() *logger.Logger {
	return logger.NewWriter(io.Discard, "relay", "ERROR")
}

func startHub(t *testing.T, h HubInterface) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func snapshot(t *testing.T, h HubInterface) map[string][]string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	infos, err := h.Channels(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	out := make(map[string][]string, len(infos))
	for _, info := range infos {
		out[info.ID] = info.Members
	}
	return out
}

func TestHub_RegisterCreatesChannelAndWelcomes(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	a := &recorder{}
	hub.Register("a", "general", a)

	channels := snapshot(t, hub)
	if members := channels["general"]; len(members) != 1 || members[0] != "a" {
		t.Fatalf("expected general=[a], got %v", channels)
	}
	if got := a.received(); len(got) != 1 || got[0] != constants.HubWelcomeText {
		t.Errorf("expected a single hub welcome, got %v", got)
	}
}

func TestHub_WelcomeGoesOnlyToNewMember(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{WelcomeText: "hello"})
	startHub(t, hub)

	a, b := &recorder{}, &recorder{}
	hub.Register("a", "general", a)
	hub.Register("b", "general", b)
	snapshot(t, hub)

	if n := a.count("hello"); n != 1 {
		t.Errorf("expected a to get one welcome, got %d", n)
	}
	if n := b.count("hello"); n != 1 {
		t.Errorf("expected b to get one welcome, got %d", n)
	}
}

func TestHub_BroadcastReachesEveryMemberOnce(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	a, b, c := &recorder{}, &recorder{}, &recorder{}
	hub.Register("a", "general", a)
	hub.Register("b", "general", b)
	hub.Register("c", "other", c)

	hub.Broadcast("a", "general", "hi")
	snapshot(t, hub)

	if n := a.count("hi"); n != 1 {
		t.Errorf("expected sender to receive its own message once, got %d", n)
	}
	if n := b.count("hi"); n != 1 {
		t.Errorf("expected b to receive message once, got %d", n)
	}
	if n := c.count("hi"); n != 0 {
		t.Errorf("expected other channel to receive nothing, got %d", n)
	}
}

func TestHub_BroadcastToMissingChannelIsNoop(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	hub.Broadcast("ghost", "nowhere", "hi")

	if channels := snapshot(t, hub); len(channels) != 0 {
		t.Errorf("broadcast must not create channels, got %v", channels)
	}
}

func TestHub_BroadcastSwallowsFailedDelivery(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	broken := &recorder{}
	ok := &recorder{}
	hub.Register("broken", "general", broken)
	hub.Register("ok", "general", ok)
	snapshot(t, hub)

	broken.mu.Lock()
	broken.err = commonerrors.ErrSessionInactive
	broken.mu.Unlock()

	hub.Broadcast("ok", "general", "still here")
	channels := snapshot(t, hub)

	if n := ok.count("still here"); n != 1 {
		t.Errorf("expected healthy member to receive message, got %d", n)
	}
	if len(channels["general"]) != 2 {
		t.Errorf("failed delivery must not remove the member, got %v", channels["general"])
	}
}

func TestHub_UnregisterRemovesEmptyChannel(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	a, b := &recorder{}, &recorder{}
	hub.Register("a", "general", a)
	hub.Register("b", "general", b)

	hub.Unregister("a", "general")
	channels := snapshot(t, hub)
	if members := channels["general"]; len(members) != 1 || members[0] != "b" {
		t.Fatalf("expected general=[b], got %v", channels)
	}

	hub.Unregister("b", "general")
	channels = snapshot(t, hub)
	if _, exists := channels["general"]; exists {
		t.Errorf("expected general to be gone, got %v", channels)
	}
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	a := &recorder{}
	hub.Register("a", "general", a)
	hub.Unregister("a", "general")
	hub.Unregister("a", "general")
	hub.Unregister("never", "general")
	hub.Unregister("a", "missing")

	if channels := snapshot(t, hub); len(channels) != 0 {
		t.Errorf("expected no channels, got %v", channels)
	}
}

func TestHub_ReRegisterSameChannelReplacesHandle(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	first, second := &recorder{}, &recorder{}
	hub.Register("a", "general", first)
	hub.Register("a", "general", second)
	hub.Broadcast("a", "general", "hi")
	channels := snapshot(t, hub)

	if len(channels["general"]) != 1 {
		t.Fatalf("expected one member, got %v", channels["general"])
	}
	if n := first.count("hi"); n != 0 {
		t.Errorf("replaced handle must not receive broadcasts, got %d", n)
	}
	if n := second.count("hi"); n != 1 {
		t.Errorf("expected new handle to receive broadcast, got %d", n)
	}
}

func TestHub_ReRegisterOtherChannelMovesConnection(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	a := &recorder{}
	hub.Register("a", "one", a)
	hub.Register("a", "two", a)
	channels := snapshot(t, hub)

	if _, exists := channels["one"]; exists {
		t.Errorf("expected connection to leave channel one, got %v", channels)
	}
	if members := channels["two"]; len(members) != 1 || members[0] != "a" {
		t.Errorf("expected two=[a], got %v", channels)
	}
}

func TestHub_ChannelsSnapshotIsSorted(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	for _, id := range []string{"c", "a", "b"} {
		hub.Register(id, "ch-"+id, &recorder{})
	}
	hub.Register("z", "ch-a", &recorder{})

	infos, err := hub.Channels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 3 || infos[0].ID != "ch-a" || infos[2].ID != "ch-c" {
		t.Fatalf("unexpected order: %+v", infos)
	}
	if m := infos[0].Members; len(m) != 2 || m[0] != "a" || m[1] != "z" {
		t.Errorf("expected sorted members [a z], got %v", m)
	}
}

func TestHub_ChannelsAfterStopFails(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	cancel()
	<-done

	if _, err := hub.Channels(context.Background()); !errors.Is(err, commonerrors.ErrHubStopped) {
		t.Fatalf("expected ErrHubStopped, got %v", err)
	}
	// Submissions after stop must not block or panic.
	hub.Register("a", "general", &recorder{})
	hub.Broadcast("a", "general", "hi")
}

func TestHub_ChannelsHonoursContext(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := hub.Channels(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled without a running hub, got %v", err)
	}
}

func TestHub_ConcurrentSessionsKeepInvariant(t *testing.T) {
	hub := NewHub(testLogger(), HubConfig{})
	startHub(t, hub)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			channel := fmt.Sprintf("ch-%d", i%5)
			hub.Register(id, channel, &recorder{})
			hub.Broadcast(id, channel, "ping")
			if i%2 == 0 {
				hub.Unregister(id, channel)
			}
		}(i)
	}
	wg.Wait()

	channels := snapshot(t, hub)
	total := 0
	for id, members := range channels {
		if len(members) == 0 {
			t.Errorf("channel %s present with no members", id)
		}
		total += len(members)
	}
	if total != workers/2 {
		t.Errorf("expected %d remaining members, got %d", workers/2, total)
	}
}

func TestShardedHub_RoutesChannelToOneShard(t *testing.T) {
	hub := NewShardedHub(testLogger(), HubConfig{}, 4)
	startHub(t, hub)

	if hub.ShardCount() != 4 {
		t.Fatalf("expected 4 shards, got %d", hub.ShardCount())
	}
	if hub.getShard("general") != hub.getShard("general") {
		t.Fatal("channel must always hash to the same shard")
	}

	a, b, c := &recorder{}, &recorder{}, &recorder{}
	hub.Register("a", "general", a)
	hub.Register("b", "general", b)
	hub.Register("c", "random", c)
	hub.Broadcast("a", "general", "hi")

	channels := snapshot(t, hub)
	if len(channels["general"]) != 2 || len(channels["random"]) != 1 {
		t.Fatalf("unexpected channels %v", channels)
	}
	if a.count("hi") != 1 || b.count("hi") != 1 || c.count("hi") != 0 {
		t.Errorf("unexpected deliveries a=%v b=%v c=%v", a.received(), b.received(), c.received())
	}
}

func TestShardedHub_NonPositiveCountFallsBackToOne(t *testing.T) {
	hub := NewShardedHub(testLogger(), HubConfig{}, 0)
	if hub.ShardCount() != 1 {
		t.Errorf("expected 1 shard, got %d", hub.ShardCount())
	}
}
