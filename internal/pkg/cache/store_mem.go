package cache

import (
	"context"
	"sync"
	"time"
)

// memStore 内存版缓存底座, 单进程部署与测试场景使用
// 过期采用惰性检查, 不起后台清理协程。
type memStore struct {
	mu      sync.Mutex
	lists   map[string][]string
	strings map[string]string
	expires map[string]time.Time
}

func NewMemStore() Store {
	return &memStore{
		lists:   make(map[string][]string),
		strings: make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (s *memStore) expired(key string) bool {
	deadline, ok := s.expires[key]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(s.lists, key)
		delete(s.strings, key)
		delete(s.expires, key)
		return true
	}
	return false
}

func (s *memStore) LPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired(key)
	list := s.lists[key]
	for _, v := range values {
		list = append([]string{v}, list...)
	}
	s.lists[key] = list
	return nil
}

func (s *memStore) LTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		return nil
	}
	list := s.lists[key]
	if start < 0 {
		start = 0
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		delete(s.lists, key)
		return nil
	}
	s.lists[key] = list[start : stop+1]
	return nil
}

func (s *memStore) LRange(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		return nil, nil
	}
	list := s.lists[key]
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

func (s *memStore) RewriteList(_ context.Context, key string, values []string, maxLen int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int64(len(values)) > maxLen {
		values = values[:maxLen]
	}
	list := make([]string, len(values))
	copy(list, values)
	s.lists[key] = list
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *memStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		return -2 * time.Nanosecond, nil
	}
	deadline, ok := s.expires[key]
	if !ok {
		return -1 * time.Nanosecond, nil
	}
	return time.Until(deadline), nil
}

func (s *memStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		return nil
	}
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *memStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, key)
	delete(s.strings, key)
	delete(s.expires, key)
	return nil
}

func (s *memStore) SetString(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *memStore) GetString(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		return "", false, nil
	}
	value, ok := s.strings[key]
	return value, ok, nil
}
