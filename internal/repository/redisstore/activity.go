// Package redisstore keeps activities in Redis so rosters survive restarts
// and are shared by every server replica.
//
// Layout under the configured prefix:
//
//	<prefix>activities                      set of activity names
//	<prefix>activity:<name>                 hash: description, schedule, max_participants
//	<prefix>activity:<name>:participants    list of e-mails in signup order
//	<prefix>seeded                          set once the sample data is written
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/service/activity"
)

// appendScript checks membership and appends in one atomic step.
var appendScript = redis.NewScript(`
	if redis.call("sismember", KEYS[1], ARGV[1]) == 1 then
		return redis.call("rpush", KEYS[2], ARGV[2])
	end
	return -1
`)

// ActivityStore implements activity.Repository on Redis.
type ActivityStore struct {
	client *redis.Client
	prefix string
}

// NewActivityStore returns a store using keys under prefix.
func NewActivityStore(client *redis.Client, prefix string) *ActivityStore {
	return &ActivityStore{client: client, prefix: prefix}
}

func (s *ActivityStore) namesKey() string { return s.prefix + "activities" }
func (s *ActivityStore) seededKey() string { return s.prefix + "seeded" }
func (s *ActivityStore) metaKey(name string) string {
	return s.prefix + "activity:" + name
}
func (s *ActivityStore) participantsKey(name string) string {
	return s.prefix + "activity:" + name + ":participants"
}

// Seed writes seed the first time any replica starts against an empty
// keyspace. Later calls are no-ops, so existing rosters are kept.
func (s *ActivityStore) Seed(ctx context.Context, seed []domain.Activity) error {
	first, err := s.client.SetNX(ctx, s.seededKey(), 1, 0).Result()
	if err != nil {
		return fmt.Errorf("seed activities: %w", err)
	}
	if !first {
		return nil
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, a := range seed {
			p.SAdd(ctx, s.namesKey(), a.Name)
			p.HSet(ctx, s.metaKey(a.Name),
				"description", a.Description,
				"schedule", a.Schedule,
				"max_participants", a.MaxParticipants,
			)
			p.Del(ctx, s.participantsKey(a.Name))
			if len(a.Participants) > 0 {
				p.RPush(ctx, s.participantsKey(a.Name), toArgs(a.Participants)...)
			}
		}
		return nil
	})
	if err != nil {
		// let the next start retry
		s.client.Del(ctx, s.seededKey())
		return fmt.Errorf("seed activities: %w", err)
	}
	return nil
}

func (s *ActivityStore) List(ctx context.Context) (map[string]domain.Activity, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity names: %w", err)
	}

	metas := make([]*redis.MapStringStringCmd, len(names))
	rosters := make([]*redis.StringSliceCmd, len(names))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, name := range names {
			metas[i] = p.HGetAll(ctx, s.metaKey(name))
			rosters[i] = p.LRange(ctx, s.participantsKey(name), 0, -1)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	out := make(map[string]domain.Activity, len(names))
	for i, name := range names {
		a, err := decode(name, metas[i].Val(), rosters[i].Val())
		if err != nil {
			return nil, err
		}
		out[name] = a
	}
	return out, nil
}

func (s *ActivityStore) Get(ctx context.Context, name string) (domain.Activity, error) {
	var (
		meta   *redis.MapStringStringCmd
		roster *redis.StringSliceCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		meta = p.HGetAll(ctx, s.metaKey(name))
		roster = p.LRange(ctx, s.participantsKey(name), 0, -1)
		return nil
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	if len(meta.Val()) == 0 {
		return domain.Activity{}, activity.ErrNotFound
	}
	return decode(name, meta.Val(), roster.Val())
}

func (s *ActivityStore) AddParticipant(ctx context.Context, name, email string) error {
	n, err := appendScript.Run(ctx, s.client,
		[]string{s.namesKey(), s.participantsKey(name)}, name, email).Int64()
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if n < 0 {
		return activity.ErrNotFound
	}
	return nil
}

var errCorrupt = errors.New("corrupt activity record")

func decode(name string, meta map[string]string, roster []string) (domain.Activity, error) {
	capacity, err := strconv.Atoi(meta["max_participants"])
	if err != nil {
		return domain.Activity{}, fmt.Errorf("%w %q: max_participants: %v", errCorrupt, name, err)
	}
	if roster == nil {
		roster = []string{}
	}
	return domain.Activity{
		Name:            name,
		Description:     meta["description"],
		Schedule:        meta["schedule"],
		MaxParticipants: capacity,
		Participants:    roster,
	}, nil
}

func toArgs(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
