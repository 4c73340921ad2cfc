package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	api_middleware "github.com/stargrid/stargrid/api/middleware"
	"github.com/stargrid/stargrid/internal/leaderboard"
)

var LeaderboardService *leaderboard.LeaderboardService

func RegisterLeaderboardRoutes(g *echo.Group, s *leaderboard.LeaderboardService) {
	LeaderboardService = s
	g.GET("/leaderboard", TopLeaderboardHandler)
	g.POST("/daily", SubmitDailyHandler)
	g.GET("/daily/:day", GetDailyHandler)
}

func TopLeaderboardHandler(c echo.Context) error {
	size := 10
	if raw := c.QueryParam("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
		}
		size = parsed
	}

	entries, err := LeaderboardService.Top(c.Request().Context(), size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}

type dailySubmission struct {
	Day        string `json:"day"`
	Score      int    `json:"score"`
	TimeMillis int64  `json:"timeMillis"`
}

func SubmitDailyHandler(c echo.Context) error {
	accountID, err := api_middleware.AccountID(c)
	if err != nil {
		return err
	}

	var body dailySubmission
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}

	stored, err := LeaderboardService.SubmitDaily(c.Request().Context(), accountID, body.Day, body.Score, body.TimeMillis)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"stored": stored})
}

func GetDailyHandler(c echo.Context) error {
	accountID, err := api_middleware.AccountID(c)
	if err != nil {
		return err
	}

	score, err := LeaderboardService.GetDaily(c.Request().Context(), accountID, c.Param("day"))
	if err != nil {
		return err
	}
	if score == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no score for that day")
	}
	return c.JSON(http.StatusOK, score)
}
