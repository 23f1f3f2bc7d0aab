package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionStartKey returns the cache key for a session's start timestamp.
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// SessionCodeKey returns the hash key buffering a session's autosaved code,
// one field per question index.
func (r *CacheKeyStruct) SessionCodeKey(sessionID string) string {
	return fmt.Sprintf("session:%s:code", sessionID)
}

// UserActiveSessionKey returns the cache key for a user's currently active
// exam session ID.
func (r *CacheKeyStruct) UserActiveSessionKey(userID string) string {
	return fmt.Sprintf("user:%s:active_session", userID)
}

var CacheKey = NewCacheKeyStruct()
