package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore invalidates bearer tokens issued before a password change.
// It keeps a per-user cutoff timestamp in Redis; without Redis everything
// degrades to "no tokens are revoked".
type TokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenStore(rdb *redis.Client, tokenTTL time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: tokenTTL}
}

func (t *TokenStore) revocationKey(userID uuid.UUID) string {
	return "token_invalid_before:" + userID.String()
}

// RevokeBefore voids every token of userID issued before at. The key
// expires with the token lifetime, after which the tokens it targeted are
// expired anyway.
func (t *TokenStore) RevokeBefore(userID uuid.UUID, at time.Time) {
	if t.rdb == nil {
		return
	}
	err := t.rdb.Set(context.Background(), t.revocationKey(userID),
		strconv.FormatInt(at.Unix(), 10), t.ttl).Err()
	if err != nil {
		log.Printf("⚠️  Could not record token revocation for %s: %v", userID, err)
	}
}

// IsRevoked reports whether a token issued at issuedAt has been voided.
func (t *TokenStore) IsRevoked(userID uuid.UUID, issuedAt time.Time) bool {
	if t.rdb == nil {
		return false
	}
	val, err := t.rdb.Get(context.Background(), t.revocationKey(userID)).Result()
	if err != nil {
		return false
	}
	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false
	}
	return issuedAt.Unix() < cutoff
}
