package websocket

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"

	"github.com/AlibekovAA/channel-relay/internal/common/logger"
)

// ShardedHub spreads channels over independent hubs. A channel always hashes
// to the same shard, so each channel is still owned by exactly one goroutine.
type ShardedHub struct {
	shards []*Hub
	count  int
	log    *logger.Logger
}

func NewShardedHub(log *logger.Logger, config HubConfig, shardCount int) *ShardedHub {
	if shardCount <= 0 {
		shardCount = 1
	}

	shards := make([]*Hub, shardCount)
	for i := 0; i < shardCount; i++ {
		shardConfig := config
		shardConfig.Name = strconv.Itoa(i)
		shards[i] = NewHub(log, shardConfig)
	}

	return &ShardedHub{
		shards: shards,
		count:  shardCount,
		log:    log,
	}
}

func (sh *ShardedHub) getShard(channel string) *Hub {
	hash := fnv.New32a()
	hash.Write([]byte(channel))
	return sh.shards[hash.Sum32()%uint32(sh.count)]
}

func (sh *ShardedHub) Register(connID, channel string, handle Outbound) {
	sh.getShard(channel).Register(connID, channel, handle)
}

func (sh *ShardedHub) Unregister(connID, channel string) {
	sh.getShard(channel).Unregister(connID, channel)
}

func (sh *ShardedHub) Broadcast(fromID, channel, text string) {
	sh.getShard(channel).Broadcast(fromID, channel, text)
}

func (sh *ShardedHub) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, shard := range sh.shards {
		wg.Add(1)
		go func(s *Hub) {
			defer wg.Done()
			s.Run(ctx)
		}(shard)
	}
	wg.Wait()
}

func (sh *ShardedHub) Channels(ctx context.Context) ([]ChannelInfo, error) {
	var all []ChannelInfo
	for _, shard := range sh.shards {
		infos, err := shard.Channels(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, infos...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (sh *ShardedHub) ShardCount() int {
	return sh.count
}
