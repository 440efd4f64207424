package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements RegionStore using Redis
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ctx:    ctx,
	}, nil
}

// redisKey builds keys of the form region:<country>:<region>, e.g. region:US:CA
func redisKey(countryCode, regionCode string) string {
	return fmt.Sprintf("region:%s:%s", normalizeCode(countryCode), normalizeCode(regionCode))
}

// RegionName implements RegionStore. Values are JSON-encoded Region rows.
func (s *RedisStore) RegionName(countryCode, regionCode string) (string, error) {
	val, err := s.client.Get(s.ctx, redisKey(countryCode, regionCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s/%s", ErrRegionNotFound, countryCode, regionCode)
		}
		return "", fmt.Errorf("Redis query failed: %w", err)
	}

	var region Region
	if err := json.Unmarshal([]byte(val), &region); err != nil {
		return "", fmt.Errorf("failed to decode region: %w", err)
	}

	return region.Name, nil
}

// Set adds or updates one region (no expiration)
func (s *RedisStore) Set(region Region) error {
	region.CountryCode = normalizeCode(region.CountryCode)
	region.RegionCode = normalizeCode(region.RegionCode)

	data, err := json.Marshal(region)
	if err != nil {
		return fmt.Errorf("failed to encode region: %w", err)
	}

	key := redisKey(region.CountryCode, region.RegionCode)
	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// Load writes regions in a single pipeline and returns how many were written
func (s *RedisStore) Load(regions []Region) (int, error) {
	if len(regions) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	for _, region := range regions {
		region.CountryCode = normalizeCode(region.CountryCode)
		region.RegionCode = normalizeCode(region.RegionCode)

		data, err := json.Marshal(region)
		if err != nil {
			return 0, fmt.Errorf("failed to encode region %s/%s: %w", region.CountryCode, region.RegionCode, err)
		}
		pipe.Set(s.ctx, redisKey(region.CountryCode, region.RegionCode), data, 0)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		return 0, fmt.Errorf("failed to store regions in Redis: %w", err)
	}
	return len(regions), nil
}

// LoadFromCSV loads a region CSV file into Redis. An empty path loads the
// built-in table.
func (s *RedisStore) LoadFromCSV(csvPath string) (int, error) {
	var (
		source *CSVStore
		err    error
	)
	if csvPath == "" {
		source, err = NewEmbeddedStore()
	} else {
		source, err = NewCSVStore(csvPath)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load CSV: %w", err)
	}
	defer source.Close()

	return s.Load(source.Regions())
}

// IsEmpty reports whether no region keys exist
func (s *RedisStore) IsEmpty() (bool, error) {
	keys, err := s.client.Keys(s.ctx, "region:*").Result()
	if err != nil {
		return false, fmt.Errorf("failed to check Redis keys: %w", err)
	}
	return len(keys) == 0, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
