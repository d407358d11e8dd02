package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Mirror replicates presence state into redis so sidecar consumers can
// answer "is X online" without talking to the gateway. Keys expire: a
// crashed gateway leaves no permanently-online ghosts.
type Mirror struct {
	rdb  *redis.Client
	gwID string
	ttl  time.Duration
}

func NewMirror(c Config, gwID string, ttl time.Duration) (*Mirror, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Mirror{rdb: rdb, gwID: gwID, ttl: ttl}, nil
}

// presence key: im:presence:<user>
// value: gateway id; TTL bounds the online validity period
func presenceKey(user string) string { return "im:presence:" + user }
func lastSeenKey(user string) string { return "im:lastseen:" + user }

func (m *Mirror) Online(ctx context.Context, user string) error {
	return m.rdb.Set(ctx, presenceKey(user), m.gwID, m.ttl).Err()
}

func (m *Mirror) Offline(ctx context.Context, user string) error {
	pipe := m.rdb.Pipeline()
	pipe.Del(ctx, presenceKey(user))
	pipe.Set(ctx, lastSeenKey(user), time.Now().UnixMilli(), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// Lookup reports whether the user is online according to the mirror and
// which gateway holds the connection.
func (m *Mirror) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := m.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (m *Mirror) Close() error { return m.rdb.Close() }
