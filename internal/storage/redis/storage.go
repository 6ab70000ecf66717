package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New connects to Redis and clears session state left by an earlier process.
// Connection ids only live as long as the process that issued them, so a
// waiter or match from a previous run could never be disconnected.
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	s := &Storage{
		client: client,
		cfg:    cfg,
	}
	if err := s.Reset(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// resetScanCount is the SCAN batch size used by Reset
const resetScanCount = 100

// Reset deletes every pool and match key under the storage prefix.
// Keys outside the prefix are left alone.
func (s *Storage) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPattern(), resetScanCount).Result()
		if err != nil {
			return fmt.Errorf("reset session keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("reset session keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Waiting pool operations

func (s *Storage) Enqueue(ctx context.Context, entry model.WaitingEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	added, err := enqueueScript.Run(ctx, s.client,
		[]string{poolEntriesKey(), poolListKey()},
		string(entry.ID), data,
	).Int()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", entry.ID, err)
	}
	if added == 0 {
		return model.ErrAlreadyWaiting
	}
	return nil
}

func (s *Storage) DequeueOldest(ctx context.Context) (*model.WaitingEntry, error) {
	data, err := dequeueScript.Run(ctx, s.client,
		[]string{poolEntriesKey(), poolListKey()},
	).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPoolEmpty
		}
		return nil, fmt.Errorf("dequeue: %w", err)
	}

	var entry model.WaitingEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Storage) RemoveWaiting(ctx context.Context, id model.ConnectionID) (bool, error) {
	removed, err := removeWaitingScript.Run(ctx, s.client,
		[]string{poolEntriesKey(), poolListKey()},
		string(id),
	).Int()
	if err != nil {
		return false, fmt.Errorf("remove waiting %s: %w", id, err)
	}
	return removed == 1, nil
}

func (s *Storage) IsWaiting(ctx context.Context, id model.ConnectionID) (bool, error) {
	return s.client.HExists(ctx, poolEntriesKey(), string(id)).Result()
}

func (s *Storage) WaitingCount(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, poolListKey()).Result()
	return int(n), err
}

// Match registry operations

func (s *Storage) CreateMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	ids := match.Participants()
	created, err := createMatchScript.Run(ctx, s.client,
		[]string{matchKey(match.ID), connMatchKey(ids[0]), connMatchKey(ids[1]), matchesIndexKey()},
		data, string(match.ID),
	).Int()
	if err != nil {
		return fmt.Errorf("create match %s: %w", match.ID, err)
	}
	if created == 0 {
		return model.ErrAlreadyInMatch
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.ConnectionID) (*model.Match, error) {
	matchID, err := s.client.Get(ctx, connMatchKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	data, err := s.client.Get(ctx, matchKey(model.MatchID(matchID))).Bytes()
	if err != nil {
		// Removed between the two reads
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	// XX: only overwrite a match that is still registered
	ok, err := s.client.SetXX(ctx, matchKey(match.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save match %s: %w", match.ID, err)
	}
	if !ok {
		return model.ErrMatchNotFound
	}
	return nil
}

func (s *Storage) RemoveMatch(ctx context.Context, match *model.Match) error {
	ids := match.Participants()
	err := removeMatchScript.Run(ctx, s.client,
		[]string{matchKey(match.ID), connMatchKey(ids[0]), connMatchKey(ids[1]), matchesIndexKey()},
		string(match.ID),
	).Err()
	if err != nil {
		return fmt.Errorf("remove match %s: %w", match.ID, err)
	}
	return nil
}

func (s *Storage) MatchCount(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, matchesIndexKey()).Result()
	return int(n), err
}
