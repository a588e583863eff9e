package fakeredis

import (
	"sync"
	"time"
)

type entry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

// Store is a plain map[string][]byte with per-key expiry and a PUBLISH
// fan-out list, guarded by a single mutex. It is not meant to be fast, only
// predictable enough for integration tests.
type Store struct {
	mu   sync.Mutex
	data map[string]entry

	subsMu sync.Mutex
	subs   map[string]map[*Conn]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		subs: make(map[string]map[*Conn]bool),
	}
}

func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		delete(s.data, key)
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	s.data[key] = e
}

func (s *Store) Del(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			n++
		}
	}
	return n
}

func (s *Store) Exists(keys ...string) int {
	n := 0
	for _, k := range keys {
		if _, ok := s.Get(k); ok {
			n++
		}
	}
	return n
}

// Expire sets a key's remaining lifetime; it returns false if the key does
// not exist.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok || s.expired(e) {
		delete(s.data, key)
		return false
	}
	e.expireAt = time.Now().Add(ttl)
	s.data[key] = e
	return true
}

// TTL returns the remaining seconds until expiry, -1 if the key has no
// expiry, or -2 if the key does not exist.
func (s *Store) TTL(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return -2
	}
	if e.expireAt.IsZero() {
		return -1
	}
	return int64(time.Until(e.expireAt).Seconds())
}

func (s *Store) expired(e entry) bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}

// Subscribe registers conn for messages published to channel.
func (s *Store) Subscribe(channel string, conn *Conn) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subs[channel] == nil {
		s.subs[channel] = make(map[*Conn]bool)
	}
	s.subs[channel][conn] = true
}

// Unsubscribe removes conn from channel's subscriber set.
func (s *Store) Unsubscribe(channel string, conn *Conn) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	delete(s.subs[channel], conn)
}

// Publish delivers payload to every current subscriber of channel and
// returns the number of receivers.
func (s *Store) Publish(channel string, payload []byte) int {
	s.subsMu.Lock()
	receivers := make([]*Conn, 0, len(s.subs[channel]))
	for c := range s.subs[channel] {
		receivers = append(receivers, c)
	}
	s.subsMu.Unlock()

	for _, c := range receivers {
		_ = c.pushMessage(channel, payload)
	}
	return len(receivers)
}
