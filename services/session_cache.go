package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when a session key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrRevisionConflict is returned when the cached session changed between
	// read and write.
	ErrRevisionConflict = errors.New("session revision conflict")
)

func (svc *RedisService) SessionTTL() time.Duration {
	return svc.cfg.SessionTTL
}

func (svc *RedisService) SaveSession(ctx context.Context, session *model.GameSession, ttl time.Duration) error {
	return svc.Set(ctx, shared.SessionKey(session.SessionID), session, ttl)
}

func (svc *RedisService) GetSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	var session model.GameSession
	found, err := svc.GetJSON(ctx, shared.SessionKey(sessionID), &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &session, nil
}

// UpdateSession writes session only if the cached revision still equals
// session.Revision. On success session.Revision is advanced. A ttl <= 0 keeps
// the existing expiry.
func (svc *RedisService) UpdateSession(ctx context.Context, session *model.GameSession, ttl time.Duration) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	key := shared.SessionKey(session.SessionID)
	expected := session.Revision

	next := *session
	next.Revision = expected + 1
	data, err := shared.JSON.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	expiration := ttl
	if expiration <= 0 {
		expiration = redis.KeepTTL
	}

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		if err != nil {
			return err
		}

		var current struct {
			Revision int64 `json:"revision"`
		}
		if err := shared.JSON.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("failed to decode session revision: %w", err)
		}
		if current.Revision != expected {
			return ErrRevisionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, expiration)
			return nil
		})
		return err
	}

	err = svc.redis.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrRevisionConflict
	}
	if err != nil {
		return err
	}

	session.Revision = next.Revision
	return nil
}

func (svc *RedisService) DeleteSession(ctx context.Context, sessionID string) error {
	return svc.Delete(ctx, shared.SessionKey(sessionID))
}

func (svc *RedisService) GetLeaderboard(ctx context.Context) (*dto.LeaderboardResponse, error) {
	var board dto.LeaderboardResponse
	found, err := svc.GetJSON(ctx, shared.LeaderboardKey, &board)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &board, nil
}

func (svc *RedisService) SetLeaderboard(ctx context.Context, board *dto.LeaderboardResponse) error {
	return svc.Set(ctx, shared.LeaderboardKey, board, svc.cfg.LeaderboardTTL)
}

func (svc *RedisService) InvalidateLeaderboard(ctx context.Context) error {
	return svc.Delete(ctx, shared.LeaderboardKey)
}

func (svc *RedisService) GetUserStats(ctx context.Context, username string) (*dto.UserStatsResponse, error) {
	var stats dto.UserStatsResponse
	found, err := svc.GetJSON(ctx, shared.UserStatsKey(username), &stats)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &stats, nil
}

func (svc *RedisService) SetUserStats(ctx context.Context, stats *dto.UserStatsResponse) error {
	return svc.Set(ctx, shared.UserStatsKey(stats.Username), stats, svc.cfg.UserStatsTTL)
}

func (svc *RedisService) InvalidateUserStats(ctx context.Context, username string) error {
	return svc.Delete(ctx, shared.UserStatsKey(username))
}

// TouchActivity records the last session a user played in.
func (svc *RedisService) TouchActivity(ctx context.Context, userID, sessionID string) error {
	return svc.Set(ctx, shared.ActivityKey(userID), sessionID, shared.ActivityTTL)
}
