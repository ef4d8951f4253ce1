package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

const (
	redisKeyPrefix = "okite:schedule:"
	redisDatesKey  = "okite:schedule:dates"
	redisLogKey    = "okite:log"
	redisLogMax    = 1000
)

// RedisBackend keeps one hash per date (fields excluded, override_hour,
// override_minute) and a set of known dates for enumeration. The event
// log is a capped list, newest first.
type RedisBackend struct {
	client *redis.Client
}

var (
	_ Backend  = (*RedisBackend)(nil)
	_ EventLog = (*RedisBackend)(nil)
)

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisBackend{client: client}, nil
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Close() error { return r.client.Close() }

func (r *RedisBackend) Get(ctx context.Context, date string) (domain.ScheduleEntry, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisKeyPrefix+date).Result()
	if err != nil {
		return domain.ScheduleEntry{}, false, err
	}
	if len(fields) == 0 {
		return domain.ScheduleEntry{}, false, nil
	}
	e, err := entryFromHash(date, fields)
	if err != nil {
		return domain.ScheduleEntry{}, false, err
	}
	return e, true, nil
}

// Put writes the hash and registers the date in one MULTI/EXEC.
func (r *RedisBackend) Put(ctx context.Context, e domain.ScheduleEntry) error {
	key := redisKeyPrefix + e.Date
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "excluded", boolToInt(e.Excluded))
		if e.Override != nil {
			pipe.HSet(ctx, key, "override_hour", e.Override.Hour, "override_minute", e.Override.Minute)
		} else {
			pipe.HDel(ctx, key, "override_hour", "override_minute")
		}
		pipe.SAdd(ctx, redisDatesKey, e.Date)
		return nil
	})
	return err
}

func (r *RedisBackend) All(ctx context.Context) ([]domain.ScheduleEntry, error) {
	dates, err := r.client.SMembers(ctx, redisDatesKey).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(dates)

	cmds := make([]*redis.MapStringStringCmd, len(dates))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, d := range dates {
			cmds[i] = pipe.HGetAll(ctx, redisKeyPrefix+d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScheduleEntry, 0, len(dates))
	for i, d := range dates {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		e, err := entryFromHash(d, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func entryFromHash(date string, fields map[string]string) (domain.ScheduleEntry, error) {
	e := domain.ScheduleEntry{Date: date, Excluded: fields["excluded"] == "1"}
	hs, ok := fields["override_hour"]
	if !ok {
		return e, nil
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return e, fmt.Errorf("%s override_hour: %w", date, err)
	}
	m := 0
	if ms, ok := fields["override_minute"]; ok {
		if m, err = strconv.Atoi(ms); err != nil {
			return e, fmt.Errorf("%s override_minute: %w", date, err)
		}
	}
	e.Override = &domain.ClockTime{Hour: h, Minute: m}
	return e, nil
}

// Append pushes e to the head of the log list and trims it.
func (r *RedisBackend) Append(ctx context.Context, e LogEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, redisLogKey, data)
		pipe.LTrim(ctx, redisLogKey, 0, redisLogMax-1)
		return nil
	})
	return err
}

func (r *RedisBackend) Recent(ctx context.Context, n int) ([]LogEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, redisLogKey, 0, int64(n-1)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]LogEntry, 0, len(raw))
	for _, s := range raw {
		var e LogEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
