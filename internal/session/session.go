package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// Session 服务端会话状态
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Realname string `json:"realname"`
}

// Store 会话存储
type Store interface {
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore 基于Redis的会话存储
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore 创建Redis会话存储
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Save 写入会话
func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(sess.ID), data, ttl).Err()
}

// Get 读取会话
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete 删除会话
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore 进程内会话存储，测试用
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Save 写入会话
func (s *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = memoryEntry{sess: *sess, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get 读取会话
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	sess := entry.sess
	return &sess, nil
}

// Delete 删除会话
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
