package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"learnhub/internal/utils"

	redis "github.com/redis/go-redis/v9"
)

// BlockList stores blocked network identities.
type BlockList interface {
	// Add stores b unless the identity is already blocked; it reports whether
	// a new block was created.
	Add(ctx context.Context, b Block) (bool, error)
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Remove(ctx context.Context, ip string) error
	List(ctx context.Context) ([]Block, error)
}

type MemoryBlockList struct {
	mu     sync.RWMutex
	blocks map[string]Block
	clock  utils.Clock
}

func NewMemoryBlockList(clock utils.Clock) *MemoryBlockList {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &MemoryBlockList{blocks: make(map[string]Block), clock: clock}
}

func (l *MemoryBlockList) Add(_ context.Context, b Block) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := l.blocks[b.IP]; ok && !current.expired(l.clock.Now()) {
		return false, nil
	}
	l.blocks[b.IP] = b
	return true, nil
}

func (l *MemoryBlockList) IsBlocked(_ context.Context, ip string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.blocks[ip]
	return ok && !b.expired(l.clock.Now()), nil
}

func (l *MemoryBlockList) Remove(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.blocks, ip)
	return nil
}

func (l *MemoryBlockList) List(_ context.Context) ([]Block, error) {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Block, 0, len(l.blocks))
	for ip, b := range l.blocks {
		if b.expired(now) {
			delete(l.blocks, ip)
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.Before(out[j].BlockedAt) })
	return out, nil
}

const blockedIPPrefix = "blocked_ip:"

// RedisBlockList shares blocks between replicas. Expiring blocks map onto
// key TTLs.
type RedisBlockList struct {
	client *redis.Client
}

func NewRedisBlockList(client *redis.Client) *RedisBlockList {
	return &RedisBlockList{client: client}
}

func (l *RedisBlockList) Add(ctx context.Context, b Block) (bool, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	var ttl time.Duration
	if b.ExpiresAt != nil {
		ttl = time.Until(*b.ExpiresAt)
		if ttl <= 0 {
			return false, nil
		}
	}
	added, err := l.client.SetNX(ctx, blockedIPPrefix+b.IP, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("block %s: %w", b.IP, err)
	}
	return added, nil
}

func (l *RedisBlockList) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, blockedIPPrefix+ip).Result()
	if err != nil {
		return false, fmt.Errorf("check block %s: %w", ip, err)
	}
	return n > 0, nil
}

func (l *RedisBlockList) Remove(ctx context.Context, ip string) error {
	return l.client.Del(ctx, blockedIPPrefix+ip).Err()
}

func (l *RedisBlockList) List(ctx context.Context) ([]Block, error) {
	var out []Block
	iter := l.client.Scan(ctx, 0, blockedIPPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := l.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var b Block
		if err := json.Unmarshal(raw, &b); err != nil {
			b = Block{IP: strings.TrimPrefix(key, blockedIPPrefix)}
		}
		out = append(out, b)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.Before(out[j].BlockedAt) })
	return out, nil
}
