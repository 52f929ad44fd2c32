package repositories

import (
	"context"

	"github.com/lac-hong-legacy/pairup_api/model"
	"gorm.io/gorm"
)

const leaderboardViewSQL = `
CREATE OR REPLACE VIEW leaderboard AS
SELECT
	id AS user_id,
	username,
	best_score,
	best_time_ms,
	total_games,
	total_score,
	last_played_at
FROM users
WHERE total_games > 0
ORDER BY best_score DESC, best_time_ms ASC, username ASC`

// CreateLeaderboardView (re)creates the ranked players view.
func CreateLeaderboardView(db *gorm.DB) error {
	return db.Exec(leaderboardViewSQL).Error
}

type LeaderboardRepository struct {
	BaseRepository
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *LeaderboardRepository) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := ds.conn(ctx).
		Order("best_score DESC").
		Order("best_time_ms ASC").
		Order("username ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
