package shared

import "time"

const (
	SessionKeyPrefix   = "session:"
	UserStatsKeyPrefix = "user_stats:"
	ActivityKeyPrefix  = "activity:"
	RateLimitKeyPrefix = "rate_limit:"
	LeaderboardKey     = "leaderboard:top"

	DefaultSessionTTL     = time.Hour
	DefaultLeaderboardTTL = 5 * time.Minute
	DefaultUserStatsTTL   = 30 * time.Minute
	ActivityTTL           = 24 * time.Hour

	LeaderboardSnapshotSize = 100
	DefaultLeaderboardLimit = 10
	RecentGamesLimit        = 10
)

func SessionKey(sessionID string) string {
	return SessionKeyPrefix + sessionID
}

func UserStatsKey(username string) string {
	return UserStatsKeyPrefix + username
}

func ActivityKey(userID string) string {
	return ActivityKeyPrefix + userID
}

func RateLimitKey(identifier string) string {
	return RateLimitKeyPrefix + identifier
}
