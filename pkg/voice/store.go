package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/code-100-precent/TableEcho/pkg/cache"
)

// DefaultSessionTTL 会话默认过期时间，每次写入都会续期
// 传输层从不上报call stop的僵尸通话靠它回收，不需要额外的清理任务
const DefaultSessionTTL = time.Hour

const sessionKeyPrefix = "voice:session:"

// SessionStore 会话存储，构建在统一缓存接口之上
// 不负责跨进程加锁，互斥由协调器的轮次守卫保证
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSessionStore 创建会话存储
func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{cache: c, ttl: ttl}
}

func sessionKey(callID string) string {
	return sessionKeyPrefix + callID
}

// Create 创建新会话，callID已存在时报错而不是静默覆盖
func (s *SessionStore) Create(ctx context.Context, session *Session) error {
	key := sessionKey(session.CallID)
	if s.cache.Exists(ctx, key) {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.CallID)
	}
	return s.put(ctx, key, session)
}

// Get 读取会话，不存在或已过期时返回 ErrSessionMissing
func (s *SessionStore) Get(ctx context.Context, callID string) (*Session, error) {
	value, ok := s.cache.Get(ctx, sessionKey(callID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionMissing, callID)
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, fmt.Errorf("voice: unexpected session value type %T", value)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("voice: decode session %s: %w", callID, err)
	}
	return &session, nil
}

// Update 读取最新会话、应用修改函数后写回，写回自动续期
// 修改函数永远作用于存储中的最新值，调用方不能假设手里的副本仍然有效
func (s *SessionStore) Update(ctx context.Context, callID string, mutator func(*Session) error) (*Session, error) {
	session, err := s.Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if err := mutator(session); err != nil {
		return nil, err
	}
	if err := s.put(ctx, sessionKey(callID), session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete 删除会话
func (s *SessionStore) Delete(ctx context.Context, callID string) error {
	return s.cache.Delete(ctx, sessionKey(callID))
}

// RenewTTL 手动续期
func (s *SessionStore) RenewTTL(ctx context.Context, callID string) error {
	return s.cache.Expire(ctx, sessionKey(callID), s.ttl)
}

func (s *SessionStore) put(ctx context.Context, key string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("voice: encode session %s: %w", session.CallID, err)
	}
	return s.cache.Set(ctx, key, string(raw), s.ttl)
}
