package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/stratrun/internal/domain/bars"
	"github.com/sawpanic/stratrun/internal/metrics"
)

// Redis entries live long enough to survive between scheduled runs; the
// age header inside the value is what enforces per-interval TTLs.
const redisRetention = 7 * 24 * time.Hour

const redisOpTimeout = 2 * time.Second

// RedisStore is an optional hot tier shared across scanner processes.
// Values carry their own fetched-at header because key TTL only bounds
// retention, not freshness.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "stratrun:ohlc:", now: time.Now}
}

func (s *RedisStore) key(symbol string, interval bars.Interval) string {
	return s.prefix + symbol + ":" + string(interval)
}

func (s *RedisStore) Get(symbol string, interval bars.Interval, maxAge time.Duration) (bars.Frame, bool) {
	f, age, ok := s.fetch(symbol, interval)
	if !ok || age > maxAge {
		metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return f, true
}

func (s *RedisStore) GetStale(symbol string, interval bars.Interval) (bars.Frame, bool) {
	f, _, ok := s.fetch(symbol, interval)
	if ok {
		metrics.CacheLookups.WithLabelValues("redis", "stale_hit").Inc()
	}
	return f, ok
}

func (s *RedisStore) Put(symbol string, interval bars.Interval, f bars.Frame) {
	if len(f) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	payload := s.now().UTC().Format(time.RFC3339) + "\n" + string(encodeFrame(f))
	if err := s.client.Set(ctx, s.key(symbol, interval), payload, redisRetention).Err(); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("redis cache write failed")
	}
}

func (s *RedisStore) fetch(symbol string, interval bars.Interval) (bars.Frame, time.Duration, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	payload, err := s.client.Get(ctx, s.key(symbol, interval)).Result()
	if err != nil {
		return nil, 0, false
	}
	header, body, found := strings.Cut(payload, "\n")
	if !found {
		return nil, 0, false
	}
	fetchedAt, err := time.Parse(time.RFC3339, header)
	if err != nil {
		return nil, 0, false
	}
	f, err := decodeFrame([]byte(body))
	if err != nil || len(f) == 0 {
		return nil, 0, false
	}
	return f, s.now().Sub(fetchedAt), true
}

// Tiered layers a hot store over the durable file tier. Gets prefer the
// hot tier and backfill it on a cold hit; puts land in both.
type Tiered struct {
	Hot  Store
	Cold Store
}

func (t *Tiered) Get(symbol string, interval bars.Interval, maxAge time.Duration) (bars.Frame, bool) {
	if f, ok := t.Hot.Get(symbol, interval, maxAge); ok {
		return f, true
	}
	f, ok := t.Cold.Get(symbol, interval, maxAge)
	if ok {
		t.Hot.Put(symbol, interval, f)
	}
	return f, ok
}

func (t *Tiered) GetStale(symbol string, interval bars.Interval) (bars.Frame, bool) {
	if f, ok := t.Cold.GetStale(symbol, interval); ok {
		return f, true
	}
	return t.Hot.GetStale(symbol, interval)
}

func (t *Tiered) Put(symbol string, interval bars.Interval, f bars.Frame) {
	t.Hot.Put(symbol, interval, f)
	t.Cold.Put(symbol, interval, f)
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*FileStore)(nil)
var _ Store = (*Tiered)(nil)

// Ping verifies connectivity at wiring time so a misconfigured hot tier
// degrades to file-only instead of failing every lookup mid-scan.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
