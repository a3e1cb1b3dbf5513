package advicestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

// ClientFactory opens a Valkey connection.
type ClientFactory func() (valkey.Client, error)

// ValkeyStore persists advisories in a Valkey-compatible database. The client
// is opened on first use and shared until Close.
type ValkeyStore struct {
	factory ClientFactory
	prefix  string

	mu     sync.Mutex
	client valkey.Client
}

// NewValkeyStore builds a store that dials with opt on first use.
func NewValkeyStore(opt valkey.ClientOption, prefix string) *ValkeyStore {
	return NewValkeyStoreWithFactory(func() (valkey.Client, error) {
		return valkey.NewClient(opt)
	}, prefix)
}

// NewValkeyStoreWithFactory builds a store around a custom client factory.
func NewValkeyStoreWithFactory(factory ClientFactory, prefix string) *ValkeyStore {
	return &ValkeyStore{factory: factory, prefix: prefix}
}

// Get implements washadvisor.Store.
func (s *ValkeyStore) Get(ctx context.Context, key string) (washadvisor.CacheEntry, bool, error) {
	client, err := s.conn()
	if err != nil {
		return washadvisor.CacheEntry{}, false, err
	}
	payload, err := client.Do(ctx, client.B().Get().Key(s.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return washadvisor.CacheEntry{}, false, nil
		}
		return washadvisor.CacheEntry{}, false, err
	}
	var entry washadvisor.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return washadvisor.CacheEntry{}, false, fmt.Errorf("decode cached advisory %s: %w", key, err)
	}
	return entry, true, nil
}

// Set implements washadvisor.Store.
func (s *ValkeyStore) Set(ctx context.Context, key string, entry washadvisor.CacheEntry, ttl time.Duration) error {
	client, err := s.conn()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	builder := client.B().Set().Key(s.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return client.Do(ctx, cmd).Error()
}

// Close releases the shared client, if one was opened.
func (s *ValkeyStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

// conn opens the client on demand. A failed dial is retried on the next call.
func (s *ValkeyStore) conn() (valkey.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("connect valkey: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *ValkeyStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

var _ washadvisor.Store = (*ValkeyStore)(nil)
