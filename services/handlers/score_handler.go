package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/shared"
)

type ScoreHandler struct {
	scoreSvc ScoreServiceInterface
}

func NewScoreHandler(scoreSvc ScoreServiceInterface) *ScoreHandler {
	return &ScoreHandler{
		scoreSvc: scoreSvc,
	}
}

// @Summary Get Player Stats
// @Description Aggregate stats, recent games and achievements of a player
// @Tags scores
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} shared.Response{data=dto.UserStatsResponse}
// @Failure 404 {object} shared.Response
// @Router /scores/{username} [get]
func (h *ScoreHandler) GetUserStats(c *fiber.Ctx) error {
	stats, err := h.scoreSvc.GetUserStats(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, stats)
}

// @Summary Get Leaderboard
// @Description Top players, served from a short-lived snapshot
// @Tags scores
// @Produce json
// @Param limit query int false "Limit results (default 10, max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /leaderboard [get]
func (h *ScoreHandler) GetLeaderboard(c *fiber.Ctx) error {
	board, err := h.scoreSvc.GetLeaderboard(c.UserContext(), parseLimit(c))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "max-age=30")
	return shared.ResponseOK(c, board)
}

// @Summary Get Fresh Leaderboard
// @Description Top players read straight from the database
// @Tags scores
// @Produce json
// @Param limit query int false "Limit results (default 10, max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /leaderboard/fresh [get]
func (h *ScoreHandler) GetFreshLeaderboard(c *fiber.Ctx) error {
	board, err := h.scoreSvc.GetFreshLeaderboard(c.UserContext(), parseLimit(c))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, board)
}

func parseLimit(c *fiber.Ctx) int {
	limit := shared.DefaultLeaderboardLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= shared.LeaderboardSnapshotSize {
			limit = parsed
		}
	}
	return limit
}
