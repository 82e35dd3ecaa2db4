package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
)

const opTimeout = 5 * time.Second

// ErrEmbeddedCredentials rejects URLs carrying a password outside the keyring.
var ErrEmbeddedCredentials = errors.New("redis URL must not contain a password")

// Store keeps each document as a plain string value under a namespaced key
// and announces writes on a pub/sub channel.
type Store struct {
	url     string
	prefix  string
	channel string
	rdb     *goredis.Client
}

func New(url string) *Store {
	return &Store{
		url:     url,
		prefix:  constants.AppName + ":doc:",
		channel: constants.AppName + ":" + constants.NotificationChannel,
	}
}

// ValidateURL checks that the URL parses and carries no password.
func ValidateURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("redis URL cannot be empty")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.Password != "" {
		return ErrEmbeddedCredentials
	}
	return nil
}

func (s *Store) connect() error {
	if s.rdb != nil {
		return nil
	}
	opts, err := goredis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = opTimeout

	rdb := goredis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping: %w", err)
	}
	s.rdb = rdb
	return nil
}

func (s *Store) markerKey() string {
	return constants.AppName + ":schema"
}

func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	created, err := s.rdb.SetNX(ctx, s.markerKey(), 1, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to initialize redis namespace: %w", err)
	}
	if !created {
		return fmt.Errorf("redis namespace %q already initialized", constants.AppName)
	}
	return nil
}

func (s *Store) Load() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	n, err := s.rdb.Exists(ctx, s.markerKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to inspect redis namespace: %w", err)
	}
	if n == 0 {
		_ = s.Close()
		return fmt.Errorf("redis namespace missing, run '%s init' first", constants.AppName)
	}
	return nil
}

func (s *Store) Close() error {
	if s.rdb == nil {
		return nil
	}
	err := s.rdb.Close()
	s.rdb = nil
	return err
}

func (s *Store) GetConfigPath() string {
	return "redis"
}

func (s *Store) Get(key string) ([]byte, error) {
	if s.rdb == nil {
		return nil, storage.ErrNotLoaded
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", key, err)
	}
	return value, nil
}

// Set writes the value and publishes the key in one MULTI/EXEC block.
func (s *Store) Set(key string, value []byte) error {
	if s.rdb == nil {
		return storage.ErrNotLoaded
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.prefix+key, value, 0)
		pipe.Publish(ctx, s.channel, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write document %q: %w", key, err)
	}
	return nil
}

func (s *Store) Watch(ctx context.Context, onChange func(key string)) error {
	if s.rdb == nil {
		return storage.ErrNotLoaded
	}
	if onChange == nil {
		return fmt.Errorf("onChange callback required")
	}

	sub := s.rdb.Subscribe(ctx, s.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					logger.Warn("Redis subscription closed", "channel", s.channel)
					_ = sub.Close()
					return
				}
				onChange(m.Payload)
			}
		}
	}()

	return nil
}
