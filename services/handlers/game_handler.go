package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/shared"
)

type GameHandler struct {
	gameSvc GameServiceInterface
}

func NewGameHandler(gameSvc GameServiceInterface) *GameHandler {
	return &GameHandler{
		gameSvc: gameSvc,
	}
}

// @Summary Start Game
// @Description Start a new game session for a player
// @Tags game
// @Accept json
// @Produce json
// @Param request body dto.StartGameRequest true "Player and difficulty"
// @Success 201 {object} shared.Response{data=dto.StartGameResponse}
// @Failure 400 {object} shared.Response{data=[]dto.ValidationError}
// @Router /game/start [post]
func (h *GameHandler) StartGame(c *fiber.Ctx) error {
	var req dto.StartGameRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.gameSvc.StartGame(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, resp)
}

// @Summary Submit Match
// @Description Flip two cards and check whether they form a pair
// @Tags game
// @Accept json
// @Produce json
// @Param request body dto.MatchRequest true "Session and the two cards"
// @Success 200 {object} shared.Response{data=dto.MatchResponse}
// @Failure 400 {object} shared.Response
// @Failure 404 {object} shared.Response
// @Router /game/match [post]
func (h *GameHandler) SubmitMatch(c *fiber.Ctx) error {
	var req dto.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.gameSvc.SubmitMatch(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Complete Game
// @Description Finalize a session whose pairs are all matched and compute the final score
// @Tags game
// @Accept json
// @Produce json
// @Param request body dto.CompleteGameRequest true "Session to complete"
// @Success 200 {object} shared.Response{data=dto.CompleteGameResponse}
// @Failure 400 {object} shared.Response
// @Failure 404 {object} shared.Response
// @Router /game/complete [post]
func (h *GameHandler) CompleteGame(c *fiber.Ctx) error {
	var req dto.CompleteGameRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.gameSvc.CompleteGame(c.UserContext(), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Get Game
// @Description Fetch a snapshot of a game session
// @Tags game
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.GameSnapshotResponse}
// @Failure 404 {object} shared.Response
// @Router /game/{id} [get]
func (h *GameHandler) GetGame(c *fiber.Ctx) error {
	resp, err := h.gameSvc.GetGame(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}
