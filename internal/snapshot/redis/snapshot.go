package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/go-sod/kd/internal/snapshot"
)

type Config struct {
	Addr     string `envconfig:"KD_REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"KD_REDIS_PASSWORD"`
	DB       int    `envconfig:"KD_REDIS_DB" default:"0"`
	Prefix   string `envconfig:"KD_REDIS_PREFIX" default:"kd:snapshot:"`
}

var _ snapshot.Store = (*Store)(nil)

func NewClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Store keeps the blob and the metadata of an index under two keys and the
// index names in a set.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func (s *Store) blobKey(name string) string { return s.prefix + "blob:" + name }

func (s *Store) metaKey(name string) string { return s.prefix + "meta:" + name }

func (s *Store) namesKey() string { return s.prefix + "names" }

func (s *Store) Save(ctx context.Context, meta snapshot.Snapshot, blob []byte) (snapshot.Snapshot, error) {
	meta.Size = len(blob)
	bytes, err := json.Marshal(meta)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.blobKey(meta.Name), blob, 0)
		pipe.Set(ctx, s.metaKey(meta.Name), bytes, 0)
		pipe.SAdd(ctx, s.namesKey(), meta.Name)
		return nil
	}); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("redis save %s: %w", meta.Name, err)
	}
	return meta, nil
}

func (s *Store) Load(ctx context.Context, name string) ([]byte, snapshot.Snapshot, error) {
	var meta snapshot.Snapshot
	raw, err := s.client.Get(ctx, s.metaKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, meta, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, meta, fmt.Errorf("redis load %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, meta, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	blob, err := s.client.Get(ctx, s.blobKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, snapshot.Snapshot{}, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, snapshot.Snapshot{}, fmt.Errorf("redis load %s: %w", name, err)
	}
	return blob, meta, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis names: %w", err)
	}
	return names, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.blobKey(name), s.metaKey(name))
		pipe.SRem(ctx, s.namesKey(), name)
		return nil
	}); err != nil {
		return fmt.Errorf("redis delete %s: %w", name, err)
	}
	return nil
}
