package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/pairup_api/dto"
	"github.com/lac-hong-legacy/pairup_api/gameplay"
	"github.com/lac-hong-legacy/pairup_api/services/handlers"
	"github.com/lac-hong-legacy/pairup_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type envelope[T any] struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Error   shared.ErrorKind `json:"error"`
	Data    T                `json:"data"`
}

type apiFixture struct {
	*gameFixture
	app  *fiber.App
	deps map[string]handlers.Pinger
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f, scores := newScoreFixture(t)
	deps := map[string]handlers.Pinger{
		"redis":    pingFunc(func(context.Context) error { return nil }),
		"postgres": pingFunc(func(context.Context) error { return nil }),
	}
	monitoring := &MonitoringService{metrics: f.svc.metrics}
	app := NewApp(HttpConfig{AppEnv: "production", AllowedOrigins: "*"}, Routes{
		Games:     f.svc,
		Scores:    scores,
		Metrics:   monitoring.Metrics(),
		MetricsUI: monitoring.MetricsHandler(),
		Deps:      deps,
	})
	return &apiFixture{gameFixture: f, app: app, deps: deps}
}

func doJSON[T any](t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope[T]) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := shared.JSON.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out envelope[T]
	require.NoError(t, shared.JSON.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestAPI_GameFlow(t *testing.T) {
	f := newAPIFixture(t)

	status, started := doJSON[dto.StartGameResponse](t, f.app, http.MethodPost, "/game/start", dto.StartGameRequest{
		Username:   "alice",
		Difficulty: gameplay.DifficultyEasy,
	})
	require.Equal(t, fiber.StatusCreated, status)
	require.NotEmpty(t, started.Data.SessionID)
	assert.Len(t, started.Data.Cards, 16)

	sessionID := started.Data.SessionID
	pairs := pairsOf(f.deck(t, sessionID))

	status, matched := doJSON[dto.MatchResponse](t, f.app, http.MethodPost, "/game/match", dto.MatchRequest{
		SessionID: sessionID,
		Card1ID:   pairs[0][0],
		Card2ID:   pairs[0][1],
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, matched.Data.IsMatch)
	assert.Equal(t, 15, matched.Data.PointsEarned)
	assert.Equal(t, 1, matched.Data.MovesCount)

	status, snap := doJSON[dto.GameSnapshotResponse](t, f.app, http.MethodGet, "/game/"+sessionID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, snap.Data.MatchedPairs)

	status, early := doJSON[dto.MatchProgress](t, f.app, http.MethodPost, "/game/complete", dto.CompleteGameRequest{SessionID: sessionID})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, shared.KindGameIncomplete, early.Error)
	assert.Equal(t, dto.MatchProgress{MatchedPairs: 1, TotalPairs: 8}, early.Data)

	for _, p := range pairs[1:] {
		status, matched = doJSON[dto.MatchResponse](t, f.app, http.MethodPost, "/game/match", dto.MatchRequest{
			SessionID: sessionID,
			Card1ID:   p[0],
			Card2ID:   p[1],
		})
		require.Equal(t, fiber.StatusOK, status)
	}
	assert.True(t, matched.Data.AllMatched)

	status, done := doJSON[dto.CompleteGameResponse](t, f.app, http.MethodPost, "/game/complete", dto.CompleteGameRequest{SessionID: sessionID})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 80, done.Data.Breakdown.Base)
	assert.Equal(t, 8, done.Data.MatchedPairs)

	status, again := doJSON[any](t, f.app, http.MethodPost, "/game/complete", dto.CompleteGameRequest{SessionID: sessionID})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, shared.KindConflict, again.Error)

	status, stats := doJSON[dto.UserStatsResponse](t, f.app, http.MethodGet, "/scores/alice", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, stats.Data.TotalGames)

	status, board := doJSON[dto.LeaderboardResponse](t, f.app, http.MethodGet, "/leaderboard?limit=5", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, board.Data.Entries, 1)
	assert.Equal(t, "alice", board.Data.Entries[0].Username)

	status, fresh := doJSON[dto.LeaderboardResponse](t, f.app, http.MethodGet, "/leaderboard/fresh", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, fresh.Data.Cached)
}

func TestAPI_Metrics(t *testing.T) {
	f := newAPIFixture(t)

	status, _ := doJSON[dto.StartGameResponse](t, f.app, http.MethodPost, "/game/start", dto.StartGameRequest{
		Username:   "alice",
		Difficulty: gameplay.DifficultyEasy,
	})
	require.Equal(t, fiber.StatusCreated, status)

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `game_sessions_started_total{difficulty="easy"} 1`)
	assert.Contains(t, body, `http_requests_total{endpoint="/game/start",method="POST",status="201"} 1`)
	assert.NotContains(t, body, `endpoint="/metrics"`, "scrapes are not counted")
}

func TestAPI_Errors(t *testing.T) {
	f := newAPIFixture(t)

	status, body := doJSON[[]dto.ValidationError](t, f.app, http.MethodPost, "/game/start", dto.StartGameRequest{
		Username:   "x",
		Difficulty: gameplay.DifficultyEasy,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, shared.KindValidation, body.Error)
	require.NotEmpty(t, body.Data)
	assert.Equal(t, "username", body.Data[0].Field)

	status, cfgErr := doJSON[any](t, f.app, http.MethodPost, "/game/start", dto.StartGameRequest{
		Username:   "alice",
		Difficulty: "nightmare",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, shared.KindConfiguration, cfgErr.Error)

	status, missing := doJSON[any](t, f.app, http.MethodPost, "/game/match", dto.MatchRequest{
		SessionID: "0195a0d2-1c7b-7d4e-9a2f-3b8c5d6e7f80",
		Card1ID:   "a",
		Card2ID:   "b",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, shared.KindNotFound, missing.Error)

	status, _ = doJSON[any](t, f.app, http.MethodGet, "/scores/nobody", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON[any](t, f.app, http.MethodGet, "/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAPI_MalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/game/match", bytes.NewBufferString("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Health(t *testing.T) {
	f := newAPIFixture(t)

	status, healthy := doJSON[dto.HealthResponse](t, f.app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", healthy.Data.Status)
	assert.Equal(t, "healthy", healthy.Data.Checks["postgres"])

	f.deps["postgres"] = pingFunc(func(context.Context) error { return errBoom })

	status, unhealthy := doJSON[dto.HealthResponse](t, f.app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", unhealthy.Data.Status)
	assert.Equal(t, "unhealthy", unhealthy.Data.Checks["postgres"])
	assert.Equal(t, "healthy", unhealthy.Data.Checks["redis"])
}

func TestAPI_Ping(t *testing.T) {
	f := newAPIFixture(t)

	status, body := doJSON[string](t, f.app, http.MethodGet, "/ping", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pong", body.Data)
}
