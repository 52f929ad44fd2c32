package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"gorm.io/gorm"
)

// memoryCache is an in-process stand-in for the Redis session cache. Values
// are stored encoded so callers never share memory with the cache.
type memoryCache struct {
	mu sync.Mutex

	sessions    map[string][]byte
	leaderboard *dto.LeaderboardResponse
	userStats   map[string]*dto.UserStatsResponse
	activity    map[string]string

	// beforeUpdate runs inside UpdateSession before the revision check.
	beforeUpdate func(c *memoryCache, sessionID string)

	invalidateErr error
	updateErr     error
	getErr        error

	leaderboardInvalidations int
	statsInvalidations       int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		sessions:  map[string][]byte{},
		userStats: map[string]*dto.UserStatsResponse{},
		activity:  map[string]string{},
	}
}

func (c *memoryCache) SessionTTL() time.Duration {
	return shared.DefaultSessionTTL
}

func (c *memoryCache) SaveSession(_ context.Context, session *model.GameSession, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.put(session)
}

func (c *memoryCache) put(session *model.GameSession) error {
	raw, err := shared.JSON.Marshal(session)
	if err != nil {
		return err
	}
	c.sessions[session.SessionID] = raw
	return nil
}

func (c *memoryCache) load(sessionID string) (*model.GameSession, error) {
	raw, ok := c.sessions[sessionID]
	if !ok {
		return nil, ErrCacheMiss
	}
	var session model.GameSession
	if err := shared.JSON.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *memoryCache) GetSession(_ context.Context, sessionID string) (*model.GameSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.load(sessionID)
}

func (c *memoryCache) UpdateSession(_ context.Context, session *model.GameSession, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hook := c.beforeUpdate; hook != nil {
		c.beforeUpdate = nil
		hook(c, session.SessionID)
	}
	if c.updateErr != nil {
		return c.updateErr
	}

	current, err := c.load(session.SessionID)
	if err != nil {
		return err
	}
	if current.Revision != session.Revision {
		return ErrRevisionConflict
	}

	next := *session
	next.Revision++
	if err := c.put(&next); err != nil {
		return err
	}
	session.Revision = next.Revision
	return nil
}

func (c *memoryCache) DeleteSession(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func (c *memoryCache) InvalidateLeaderboard(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.leaderboardInvalidations++
	c.leaderboard = nil
	return nil
}

func (c *memoryCache) InvalidateUserStats(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.statsInvalidations++
	delete(c.userStats, username)
	return nil
}

func (c *memoryCache) TouchActivity(_ context.Context, userID, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity[userID] = sessionID
	return nil
}

func (c *memoryCache) GetLeaderboard(context.Context) (*dto.LeaderboardResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leaderboard == nil {
		return nil, ErrCacheMiss
	}
	board := *c.leaderboard
	return &board, nil
}

func (c *memoryCache) SetLeaderboard(_ context.Context, board *dto.LeaderboardResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *board
	c.leaderboard = &stored
	return nil
}

func (c *memoryCache) GetUserStats(_ context.Context, username string) (*dto.UserStatsResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.userStats[username]
	if !ok {
		return nil, ErrCacheMiss
	}
	return stats, nil
}

func (c *memoryCache) SetUserStats(_ context.Context, stats *dto.UserStatsResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userStats[stats.Username] = stats
	return nil
}

// memoryStore mimics the Postgres store, including the completion guard.
type memoryStore struct {
	mu sync.Mutex

	users   map[string]*model.User
	games   map[string]*model.Game
	matches map[string][]model.GameMatch

	// beforeComplete runs once at the start of CompleteGame, outside the lock.
	beforeComplete func()

	createErr error
	appendErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:   map[string]*model.User{},
		games:   map[string]*model.Game{},
		matches: map[string][]model.GameMatch{},
	}
}

func (s *memoryStore) FindOrCreateUser(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		copied := *u
		return &copied, nil
	}
	u := &model.User{ID: "user-" + username, Username: username}
	s.users[username] = u
	copied := *u
	return &copied, nil
}

func (s *memoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryStore) CreateGame(_ context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	copied := *game
	s.games[game.ID] = &copied
	return nil
}

func (s *memoryStore) AppendMatch(_ context.Context, match *model.GameMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.matches[match.GameID] = append(s.matches[match.GameID], *match)
	return nil
}

func (s *memoryStore) CompleteGame(_ context.Context, result model.GameResult) error {
	s.mu.Lock()
	hook := s.beforeComplete
	s.beforeComplete = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[result.GameID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if game.IsCompleted {
		return ErrGameAlreadyCompleted
	}

	completedAt := result.CompletedAt
	game.Score = result.Score
	game.Moves = result.Moves
	game.MatchedPairs = result.MatchedPairs
	game.WrongMoves = result.WrongMoves
	game.LongestStreak = result.LongestStreak
	game.TimeElapsedMs = result.TimeElapsedMs
	game.ScoreBreakdown = result.ScoreBreakdown
	game.Rating = result.Rating
	game.IsCompleted = true
	game.CompletedAt = &completedAt

	for _, u := range s.users {
		if u.ID != result.UserID {
			continue
		}
		u.TotalGames++
		u.TotalScore += int64(result.Score)
		u.BestScore = max(u.BestScore, result.Score)
		if u.BestTimeMs == 0 || result.TimeElapsedMs < u.BestTimeMs {
			u.BestTimeMs = result.TimeElapsedMs
		}
		u.LastPlayedAt = &completedAt
	}
	return nil
}

func (s *memoryStore) GetGame(_ context.Context, gameID string) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *game
	copied.Matches = append([]model.GameMatch(nil), s.matches[gameID]...)
	for _, u := range s.users {
		if u.ID == game.UserID {
			copied.User = *u
		}
	}
	return &copied, nil
}

func (s *memoryStore) ListCompletedGames(_ context.Context, userID string, limit int) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Game
	for _, g := range s.games {
		if g.UserID == userID && g.IsCompleted {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) TopPlayers(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, u := range s.users {
		if u.TotalGames == 0 {
			continue
		}
		out = append(out, model.LeaderboardEntry{
			UserID:     u.ID,
			Username:   u.Username,
			BestScore:  u.BestScore,
			BestTimeMs: u.BestTimeMs,
			TotalGames: u.TotalGames,
			TotalScore: u.TotalScore,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestScore != out[j].BestScore {
			return out[i].BestScore > out[j].BestScore
		}
		if out[i].BestTimeMs != out[j].BestTimeMs {
			return out[i].BestTimeMs < out[j].BestTimeMs
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var errBoom = errors.New("boom")

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
