package infra

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrChallengeNotFound is returned when a challenge id is unknown, expired
// or already consumed.
var ErrChallengeNotFound = errors.New("challenge not found or expired")

const (
	challengePrefix = "mfa:challenge:"
	challengeTTL    = 5 * time.Minute
)

// ChallengeStore keeps half-authenticated login state in redis: the
// password step passed, the TOTP code is still pending. Entries are opaque
// ids with a short TTL and are consumed atomically on first use.
type ChallengeStore struct {
	rdb *redis.Client
}

func NewChallengeStore(rdb *redis.Client) *ChallengeStore {
	return &ChallengeStore{rdb: rdb}
}

// Create issues a new challenge id bound to the user.
func (s *ChallengeStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, challengePrefix+id, userID.String(), challengeTTL).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a challenge without consuming it, so a mistyped code can be
// retried until the TTL runs out.
func (s *ChallengeStore) Get(ctx context.Context, id string) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, challengePrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrChallengeNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrChallengeNotFound
	}
	return userID, nil
}

// Delete removes a challenge once it has authenticated successfully.
func (s *ChallengeStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, challengePrefix+id).Err()
}
