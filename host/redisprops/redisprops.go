// Package redisprops persists host dynamic properties in Redis hashes, one
// hash per owner object. It lets several host processes share bridged state.
package redisprops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/logging"
)

// DefaultPrefix is prepended to every hash key.
const DefaultPrefix = "addonbridge:props"

// HashClient is the subset of redis.Cmdable the store needs.
type HashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}

// Options configures a Store.
type Options struct {
	// Prefix namespaces the hash keys. Defaults to DefaultPrefix.
	Prefix string
	// Timeout bounds each Redis round trip. Zero means no deadline.
	Timeout time.Duration
	Logger  logging.Logger
}

// Store hands out host.DynamicProperties backed by client.
type Store struct {
	client  HashClient
	prefix  string
	timeout time.Duration
	logger  logging.Logger
}

// New returns a store on top of an existing client.
func New(client HashClient, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: DefaultPrefix, Timeout: 2 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Store{
		client:  client,
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Dial connects to the Redis server at addr.
func Dial(addr string, optFns ...func(o *Options)) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr}), optFns...)
}

// Properties returns the property storage of one owner.
func (s *Store) Properties(owner string) *Properties {
	return &Properties{store: s, key: s.Key(owner)}
}

// EntityFactory returns a factory suitable for memhost.WorldOptions.
func (s *Store) EntityFactory() func(entityID string) host.DynamicProperties {
	return func(entityID string) host.DynamicProperties {
		return s.Properties("entity:" + entityID)
	}
}

// Key returns the hash key of owner.
func (s *Store) Key(owner string) string { return s.prefix + ":" + owner }

func (s *Store) context() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), s.timeout)
}

// Properties is the host.DynamicProperties of one owner.
type Properties struct {
	store *Store
	key   string
}

var _ host.DynamicProperties = (*Properties)(nil)

// DynamicProperty implements host.DynamicProperties. Read failures are
// logged and reported as a missing property.
func (p *Properties) DynamicProperty(name string) (any, bool) {
	ctx, cancel := p.store.context()
	defer cancel()

	raw, err := p.store.client.HGet(ctx, p.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		p.store.logger.Error("redisprops.get_failed", "key", p.key, "property", name, "error", err)
		return nil, false
	}
	v, err := DecodeValue(raw)
	if err != nil {
		p.store.logger.Warn("redisprops.decode_failed", "key", p.key, "property", name, "error", err)
		return nil, false
	}
	return v, true
}

// SetDynamicProperty implements host.DynamicProperties. A nil value removes
// the field.
func (p *Properties) SetDynamicProperty(name string, value any) error {
	ctx, cancel := p.store.context()
	defer cancel()

	if value == nil {
		if err := p.store.client.HDel(ctx, p.key, name).Err(); err != nil {
			return fmt.Errorf("delete %s of %s: %w", name, p.key, err)
		}
		return nil
	}

	raw, err := EncodeValue(value)
	if err != nil {
		return err
	}
	if err := p.store.client.HSet(ctx, p.key, name, raw).Err(); err != nil {
		return fmt.Errorf("set %s of %s: %w", name, p.key, err)
	}
	return nil
}

// EncodeValue renders a property value as stored in Redis.
func EncodeValue(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode property value: %w", err)
	}
	return string(raw), nil
}

// DecodeValue parses a stored property value.
func DecodeValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode property value: %w", err)
	}
	return v, nil
}
