package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/redis/rueidis"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// DefaultKey is the hash holding pending unmutes, field "guild:user",
// value the unix millisecond deadline.
const DefaultKey = "pancymod:scheduled_unmutes"

// RedisStore persists pending unmutes in a Redis hash
type RedisStore struct {
	client rueidis.Client
	key    string
}

// NewRedisStore wraps a rueidis client
func NewRedisStore(client rueidis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

// Dial connects to Redis at addr
func Dial(addr, password string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		DisableCache: true,
	})
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "connect to redis", "addr", addr)
	}
	return client, nil
}

func (r *RedisStore) Save(ctx context.Context, e Entry) error {
	cmd := r.client.B().Hset().Key(r.key).FieldValue().
		FieldValue(key(e.GuildID, e.UserID), strconv.FormatInt(e.FireAt.UnixMilli(), 10)).
		Build()
	return errors.WithStack(r.client.Do(ctx, cmd).Error())
}

func (r *RedisStore) Delete(ctx context.Context, guildID, userID string) error {
	cmd := r.client.B().Hdel().Key(r.key).Field(key(guildID, userID)).Build()
	return errors.WithStack(r.client.Do(ctx, cmd).Error())
}

func (r *RedisStore) All(ctx context.Context) ([]Entry, error) {
	fields, err := r.client.Do(ctx, r.client.B().Hgetall().Key(r.key).Build()).AsStrMap()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	entries := make([]Entry, 0, len(fields))
	for field, value := range fields {
		guildID, userID, ok := strings.Cut(field, ":")
		ms, err := strconv.ParseInt(value, 10, 64)
		if !ok || err != nil {
			logger.Warn("Entrada de unmute corrupta: "+field, "Scheduler")
			continue
		}
		entries = append(entries, Entry{GuildID: guildID, UserID: userID, FireAt: time.UnixMilli(ms).UTC()})
	}
	return entries, nil
}
