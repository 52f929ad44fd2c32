package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/lac-hong-legacy/pairup_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAlreadyCompleted = errors.New("game row already completed")

type GameRepository struct {
	BaseRepository
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *GameRepository) Create(ctx context.Context, game *model.Game) error {
	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	return ds.conn(ctx).Omit(clause.Associations).Create(game).Error
}

func (ds *GameRepository) AppendMatch(ctx context.Context, match *model.GameMatch) error {
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	// Retried appends must not duplicate a row.
	return ds.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(match).Error
}

// Complete finalizes the game row and folds the result into the owner's
// aggregates in one transaction. Only a game that is not yet completed is
// updated; a second completion returns ErrAlreadyCompleted.
func (ds *GameRepository) Complete(ctx context.Context, result model.GameResult) error {
	return ds.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Game{}).
			Where("id = ? AND is_completed = ?", result.GameID, false).
			Updates(map[string]interface{}{
				"score":           result.Score,
				"moves":           result.Moves,
				"matched_pairs":   result.MatchedPairs,
				"wrong_moves":     result.WrongMoves,
				"longest_streak":  result.LongestStreak,
				"time_elapsed_ms": result.TimeElapsedMs,
				"score_breakdown": result.ScoreBreakdown,
				"rating":          result.Rating,
				"is_completed":    true,
				"completed_at":    result.CompletedAt,
				"updated_at":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Game{}).Where("id = ?", result.GameID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrAlreadyCompleted
		}

		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", result.UserID).
			First(&user).Error; err != nil {
			return err
		}

		user.TotalGames++
		user.TotalScore += int64(result.Score)
		if result.Score > user.BestScore {
			user.BestScore = result.Score
		}
		if result.TimeElapsedMs > 0 && (user.BestTimeMs == 0 || result.TimeElapsedMs < user.BestTimeMs) {
			user.BestTimeMs = result.TimeElapsedMs
		}
		completedAt := result.CompletedAt
		user.LastPlayedAt = &completedAt
		user.UpdatedAt = time.Now()

		return tx.Save(&user).Error
	})
}

// HasResult reports whether the game row is completed with exactly this result.
func (ds *GameRepository) HasResult(ctx context.Context, result model.GameResult) (bool, error) {
	var count int64
	err := ds.conn(ctx).Model(&model.Game{}).
		Where("id = ? AND is_completed = ?", result.GameID, true).
		Where("score = ? AND moves = ? AND wrong_moves = ? AND time_elapsed_ms = ? AND rating = ?",
			result.Score, result.Moves, result.WrongMoves, result.TimeElapsedMs, result.Rating).
		Count(&count).Error
	return count > 0, err
}

func (ds *GameRepository) GetWithMatches(ctx context.Context, gameID string) (*model.Game, error) {
	var game model.Game
	err := ds.conn(ctx).
		Preload("Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("elapsed_ms ASC")
		}).
		Preload("User").
		Where("id = ?", gameID).
		First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// ListCompleted returns the user's completed games, newest first. A limit of
// zero returns all of them.
func (ds *GameRepository) ListCompleted(ctx context.Context, userID string, limit int) ([]model.Game, error) {
	var games []model.Game
	query := ds.conn(ctx).
		Omit("cards").
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("completed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}
