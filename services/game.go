package services

import (
	"context"
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/model"
	"github.com/lac-hong-legacy/pairup_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const GAME_SVC = "game_svc"

// maxUpdateAttempts bounds the read-validate-write cycle of a match when the
// cached session keeps changing underneath it.
const maxUpdateAttempts = 3

// SessionCache is the live session state the orchestrator reads and writes.
type SessionCache interface {
	SessionTTL() time.Duration
	SaveSession(ctx context.Context, session *model.GameSession, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*model.GameSession, error)
	UpdateSession(ctx context.Context, session *model.GameSession, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error
	InvalidateLeaderboard(ctx context.Context) error
	InvalidateUserStats(ctx context.Context, username string) error
	TouchActivity(ctx context.Context, userID, sessionID string) error
}

// GameStore is the authoritative record of users and games.
type GameStore interface {
	FindOrCreateUser(ctx context.Context, username string) (*model.User, error)
	CreateGame(ctx context.Context, game *model.Game) error
	AppendMatch(ctx context.Context, match *model.GameMatch) error
	CompleteGame(ctx context.Context, result model.GameResult) error
	GetGame(ctx context.Context, gameID string) (*model.Game, error)
	ListCompletedGames(ctx context.Context, userID string, limit int) ([]model.Game, error)
}

type GameService struct {
	appContext.DefaultService

	cache     SessionCache
	store     GameStore
	metrics   *Metrics
	generator *gameplay.Generator

	now   func() time.Time
	newID func() string
}

func (svc GameService) Id() string {
	return GAME_SVC
}

// NewGameService builds the orchestrator outside of the service container.
func NewGameService(cache SessionCache, store GameStore, metrics *Metrics, generator *gameplay.Generator) *GameService {
	svc := &GameService{
		cache:     cache,
		store:     store,
		metrics:   metrics,
		generator: generator,
	}
	svc.setDefaults()
	return svc
}

func (svc *GameService) setDefaults() {
	if svc.metrics == nil {
		svc.metrics = NewMetrics()
	}
	if svc.generator == nil {
		svc.generator = gameplay.NewGenerator(nil)
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = newSessionID
	}
}

func (svc *GameService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *GameService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.metrics = svc.Service(MONITORING_SVC).(*MonitoringService).Metrics()
	svc.setDefaults()
	return nil
}

func (svc *GameService) StartGame(ctx context.Context, req dto.StartGameRequest) (*dto.StartGameResponse, error) {
	tier, err := gameplay.LookupTier(req.Difficulty)
	if err != nil && req.Difficulty != "" {
		return nil, shared.NewConfigurationError(err, "Unknown difficulty tier: "+req.Difficulty)
	}
	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError("Invalid start request", dto.FormatValidationErrors(err))
	}

	user, err := svc.store.FindOrCreateUser(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	cards, err := svc.generator.Generate(tier.Name, req.Categories)
	if err != nil {
		return nil, shared.NewConfigurationError(err, "Failed to deal cards")
	}

	filter := req.Categories
	if filter == nil {
		filter = []string{}
	}
	categories, err := datatypes.NewJSONType(filter).MarshalJSON()
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	deck, err := shared.JSON.Marshal(cards)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	startedAt := svc.now()
	game := &model.Game{
		ID:          svc.newID(),
		UserID:      user.ID,
		Difficulty:  tier.Name,
		Categories:  datatypes.JSON(categories),
		Cards:       datatypes.JSON(deck),
		TotalPairs:  tier.Pairs(),
		IsCompleted: false,
		StartedAt:   startedAt,
	}
	if err := svc.store.CreateGame(ctx, game); err != nil {
		return nil, err
	}

	session := &model.GameSession{
		SessionID:  game.ID,
		UserID:     user.ID,
		Username:   user.Username,
		Difficulty: tier.Name,
		Categories: req.Categories,
		Cards:      cards,
		Matches:    []model.MatchEvent{},
		StartedAt:  startedAt,
	}
	if err := svc.cache.SaveSession(ctx, session, svc.cache.SessionTTL()); err != nil {
		return nil, shared.NewTransientError(err, "Failed to store session")
	}

	svc.metrics.SessionStarted(tier.Name)
	log.WithFields(log.Fields{
		"session_id": session.SessionID,
		"username":   user.Username,
		"difficulty": tier.Name,
	}).Info("Game session started")

	return &dto.StartGameResponse{
		SessionID:  session.SessionID,
		Username:   user.Username,
		Difficulty: tier.Name,
		Cards:      dto.NewDeckView(cards),
		Config:     dto.NewTierResponse(tier),
		StartedAt:  startedAt,
	}, nil
}

// SubmitMatch evaluates one pairing attempt. Rejected submissions leave the
// session untouched; every accepted one advances the move counter by one.
func (svc *GameService) SubmitMatch(ctx context.Context, req dto.MatchRequest) (*dto.MatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError("Invalid match request", dto.FormatValidationErrors(err))
	}

	for attempt := 1; ; attempt++ {
		session, err := svc.loadActiveSession(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}

		tier, err := gameplay.LookupTier(session.Difficulty)
		if err != nil {
			return nil, shared.NewConfigurationError(err, "Session has an unknown difficulty tier")
		}

		outcome, err := svc.applyMatch(session, tier, req.Card1ID, req.Card2ID)
		if err != nil {
			return nil, err
		}

		err = svc.cache.UpdateSession(ctx, session, 0)
		if errors.Is(err, ErrRevisionConflict) {
			svc.metrics.RevisionConflict()
			if attempt < maxUpdateAttempts {
				log.WithFields(log.Fields{
					"session_id": req.SessionID,
					"attempt":    attempt,
				}).Debug("Session changed concurrently, retrying match")
				continue
			}
			return nil, shared.NewTransientError(err, "Session is being updated concurrently")
		}
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.NewNotFoundError("Game session not found or expired")
		}
		if err != nil {
			return nil, shared.NewTransientError(err, "Failed to update session")
		}

		svc.metrics.MatchSubmitted(outcome.event != nil)
		if outcome.event != nil {
			svc.recordMatch(ctx, session, outcome.event)
		}
		if err := svc.cache.TouchActivity(ctx, session.UserID, session.SessionID); err != nil {
			svc.metrics.CacheFailure("touch_activity")
			log.WithError(err).WithField("user_id", session.UserID).Warn("Failed to record activity")
		}

		return svc.matchResponse(session, tier, outcome), nil
	}
}

type matchOutcome struct {
	card1, card2 gameplay.Card
	event        *model.MatchEvent
}

// applyMatch mutates session in place for an accepted submission.
func (svc *GameService) applyMatch(session *model.GameSession, tier gameplay.Tier, card1ID, card2ID string) (*matchOutcome, error) {
	if card1ID == card2ID {
		return nil, shared.NewValidationError("Cards must differ", []dto.ValidationError{
			{Field: "card2_id", Message: "card2_id must differ from card1_id"},
		})
	}

	i1, i2 := session.CardIndex(card1ID), session.CardIndex(card2ID)
	if i1 < 0 || i2 < 0 {
		return nil, shared.NewInvalidCardError("Card does not belong to this session")
	}
	if session.Cards[i1].IsMatched || session.Cards[i2].IsMatched {
		return nil, shared.NewAlreadyMatchedError("Card is already matched")
	}

	now := svc.now()
	session.Moves++

	if session.Cards[i1].PairID != session.Cards[i2].PairID {
		return &matchOutcome{card1: session.Cards[i1], card2: session.Cards[i2]}, nil
	}

	since := session.StartedAt
	if session.LastMatchAt != nil {
		since = *session.LastMatchAt
	}
	bonus := tier.MatchBonus(now.Sub(since))

	session.Cards[i1].IsMatched = true
	session.Cards[i2].IsMatched = true
	session.Cards[i1].IsFlipped = true
	session.Cards[i2].IsFlipped = true

	event := model.MatchEvent{
		Card1ID:     card1ID,
		Card2ID:     card2ID,
		PairID:      session.Cards[i1].PairID,
		ElapsedMs:   now.Sub(session.StartedAt).Milliseconds(),
		BasePoints:  tier.PointsPerMatch,
		BonusPoints: bonus,
		MatchedAt:   now,
	}
	session.Matches = append(session.Matches, event)
	session.Score += event.BasePoints + event.BonusPoints
	session.LastMatchAt = &now

	return &matchOutcome{card1: session.Cards[i1], card2: session.Cards[i2], event: &event}, nil
}

// recordMatch appends the event to the persistent log. The cache already
// holds it, so a failure here is only logged.
func (svc *GameService) recordMatch(ctx context.Context, session *model.GameSession, event *model.MatchEvent) {
	err := svc.store.AppendMatch(ctx, &model.GameMatch{
		ID:          svc.newID(),
		GameID:      session.SessionID,
		Card1ID:     event.Card1ID,
		Card2ID:     event.Card2ID,
		PairID:      event.PairID,
		ElapsedMs:   event.ElapsedMs,
		BasePoints:  event.BasePoints,
		BonusPoints: event.BonusPoints,
		CreatedAt:   event.MatchedAt,
	})
	if err != nil {
		log.WithError(err).WithField("session_id", session.SessionID).Warn("Failed to persist match event")
	}
}

func (svc *GameService) matchResponse(session *model.GameSession, tier gameplay.Tier, outcome *matchOutcome) *dto.MatchResponse {
	resp := &dto.MatchResponse{
		SessionID:    session.SessionID,
		IsMatch:      outcome.event != nil,
		Card1:        dto.NewCardView(outcome.card1, true),
		Card2:        dto.NewCardView(outcome.card2, true),
		Score:        session.Score,
		MovesCount:   session.Moves,
		MatchedPairs: session.MatchedPairs(),
		TotalPairs:   session.TotalPairs(),
		AllMatched:   session.AllMatched(),
	}
	if outcome.event != nil {
		resp.PointsEarned = outcome.event.BasePoints + outcome.event.BonusPoints
		resp.BonusPoints = outcome.event.BonusPoints
	} else {
		resp.FlipBackDelayMs = tier.FlipBackDelay.Milliseconds()
	}
	return resp
}

// CompleteGame finalizes a session once every pair is matched. The store
// write is authoritative and happens first; the cache is only touched once it
// has succeeded.
func (svc *GameService) CompleteGame(ctx context.Context, req dto.CompleteGameRequest) (*dto.CompleteGameResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewValidationError("Invalid complete request", dto.FormatValidationErrors(err))
	}

	session, err := svc.loadActiveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.AllMatched() {
		return nil, shared.NewGameIncompleteError("Game session still has unmatched pairs", dto.MatchProgress{
			MatchedPairs: session.MatchedPairs(),
			TotalPairs:   session.TotalPairs(),
		})
	}

	tier, err := gameplay.LookupTier(session.Difficulty)
	if err != nil {
		return nil, shared.NewConfigurationError(err, "Session has an unknown difficulty tier")
	}

	completedAt := svc.now()
	elapsed := completedAt.Sub(session.StartedAt)
	wrongMoves := max(0, session.Moves-session.MatchedPairs())
	streak := gameplay.LongestStreak(session.MatchOffsets())

	result := gameplay.CalculateScore(gameplay.ScoreInput{
		Matches:    session.MatchedPairs(),
		WrongMoves: wrongMoves,
		Elapsed:    elapsed,
		Streak:     streak,
	}, tier)
	rating := gameplay.Rate(result.Total, tier)

	breakdown, err := shared.JSON.Marshal(result.Breakdown)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}

	previous, err := svc.store.ListCompletedGames(ctx, session.UserID, 0)
	if err != nil {
		return nil, err
	}

	err = svc.store.CompleteGame(ctx, model.GameResult{
		GameID:         session.SessionID,
		UserID:         session.UserID,
		Score:          result.Total,
		Moves:          session.Moves,
		MatchedPairs:   session.MatchedPairs(),
		WrongMoves:     wrongMoves,
		LongestStreak:  streak,
		TimeElapsedMs:  elapsed.Milliseconds(),
		ScoreBreakdown: datatypes.JSON(breakdown),
		Rating:         rating,
		CompletedAt:    completedAt,
	})
	switch {
	case errors.Is(err, ErrGameAlreadyCompleted):
		svc.dropStaleSession(ctx, session.SessionID)
		return nil, shared.NewConflictError("Game session already completed")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, shared.NewNotFoundError("Game not found")
	case err != nil:
		return nil, err
	}

	svc.markCompleted(ctx, session, completedAt)
	svc.invalidateScores(ctx, session.Username)
	svc.metrics.SessionCompleted(tier.Name, rating, result.Total)

	finished := gameplay.CompletedGame{
		Difficulty: tier.Name,
		Score:      result.Total,
		WrongMoves: wrongMoves,
		Elapsed:    elapsed,
		Streak:     streak,
	}
	before := completedGames(previous)
	after := append(before[:len(before):len(before)], finished)
	unlocked := gameplay.NewlyUnlocked(
		gameplay.Achievements(gameplay.Totals(before), before),
		gameplay.Achievements(gameplay.Totals(after), after),
	)
	if unlocked == nil {
		unlocked = []gameplay.Achievement{}
	}

	log.WithFields(log.Fields{
		"session_id": session.SessionID,
		"username":   session.Username,
		"score":      result.Total,
		"rating":     rating,
	}).Info("Game session completed")

	return &dto.CompleteGameResponse{
		SessionID:       session.SessionID,
		FinalScore:      result.Total,
		Breakdown:       result.Breakdown,
		Rating:          rating,
		Moves:           session.Moves,
		MatchedPairs:    session.MatchedPairs(),
		WrongMoves:      wrongMoves,
		LongestStreak:   streak,
		TimeElapsedMs:   elapsed.Milliseconds(),
		NewAchievements: unlocked,
	}, nil
}

// markCompleted flips the cached completion flag. When the flip cannot be
// applied the entry is dropped so no stale in-progress state survives.
func (svc *GameService) markCompleted(ctx context.Context, session *model.GameSession, completedAt time.Time) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		session.IsCompleted = true
		session.CompletedAt = &completedAt

		err := svc.cache.UpdateSession(ctx, session, 0)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrRevisionConflict) {
			log.WithError(err).WithField("session_id", session.SessionID).Warn("Failed to flag cached session completed")
			break
		}

		svc.metrics.RevisionConflict()
		fresh, err := svc.cache.GetSession(ctx, session.SessionID)
		if err != nil {
			break
		}
		*session = *fresh
	}

	svc.metrics.CacheFailure("complete_session")
	svc.dropSession(ctx, session.SessionID)
}

// dropStaleSession removes the cached entry only while it still reads as in
// progress. A concurrent completion may already have flagged it completed.
func (svc *GameService) dropStaleSession(ctx context.Context, sessionID string) {
	cached, err := svc.cache.GetSession(ctx, sessionID)
	if errors.Is(err, ErrCacheMiss) {
		return
	}
	if err == nil && cached.IsCompleted {
		return
	}
	svc.dropSession(ctx, sessionID)
}

func (svc *GameService) dropSession(ctx context.Context, sessionID string) {
	if err := svc.cache.DeleteSession(ctx, sessionID); err != nil {
		svc.metrics.CacheFailure("delete_session")
		log.WithError(err).WithField("session_id", sessionID).Warn("Failed to drop cached session")
	}
}

// invalidateScores clears the derived snapshots. Each key is cleared on its
// own; one failing does not stop the other.
func (svc *GameService) invalidateScores(ctx context.Context, username string) {
	if err := svc.cache.InvalidateLeaderboard(ctx); err != nil {
		svc.metrics.CacheFailure("invalidate_leaderboard")
		log.WithError(err).Warn("Failed to invalidate leaderboard cache")
	}
	if err := svc.cache.InvalidateUserStats(ctx, username); err != nil {
		svc.metrics.CacheFailure("invalidate_user_stats")
		log.WithError(err).WithField("username", username).Warn("Failed to invalidate user stats cache")
	}
}

// GetGame returns a snapshot of the session, rebuilding it from the store
// when the cache entry is gone.
func (svc *GameService) GetGame(ctx context.Context, sessionID string) (*dto.GameSnapshotResponse, error) {
	session, err := svc.cache.GetSession(ctx, sessionID)
	if errors.Is(err, ErrCacheMiss) {
		session, err = svc.recoverSession(ctx, sessionID)
	} else if err != nil {
		log.WithError(err).WithField("session_id", sessionID).Warn("Session cache unavailable, reading from store")
		session, err = svc.recoverSession(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	tier, err := gameplay.LookupTier(session.Difficulty)
	if err != nil {
		return nil, shared.NewConfigurationError(err, "Session has an unknown difficulty tier")
	}
	return dto.NewGameSnapshotResponse(session, tier), nil
}

func (svc *GameService) recoverSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	game, err := svc.store.GetGame(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("Game not found")
	}
	if err != nil {
		return nil, err
	}
	return sessionFromGame(game)
}

// loadActiveSession returns the cached session, or the error a match or
// completion should fail with.
func (svc *GameService) loadActiveSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	session, err := svc.cache.GetSession(ctx, sessionID)
	if errors.Is(err, ErrCacheMiss) {
		return nil, shared.NewNotFoundError("Game session not found or expired")
	}
	if err != nil {
		return nil, shared.NewTransientError(err, "Failed to load session")
	}
	if session.IsCompleted {
		return nil, shared.NewConflictError("Game session already completed")
	}
	return session, nil
}
