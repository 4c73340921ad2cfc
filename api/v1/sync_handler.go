package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	api_middleware "github.com/stargrid/stargrid/api/middleware"
	"github.com/stargrid/stargrid/internal/progress"
)

const INVALID_REQUEST = "invalid request"

var SyncService *progress.SyncService

func RegisterSyncRoutes(g *echo.Group, s *progress.SyncService) {
	SyncService = s
	g.POST("", SyncHandler)
	g.POST("/reset", ResetHandler)
}

func SyncHandler(c echo.Context) error {
	accountID, err := api_middleware.AccountID(c)
	if err != nil {
		return err
	}

	var req progress.SyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}

	resp, err := SyncService.Sync(c.Request().Context(), accountID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func ResetHandler(c echo.Context) error {
	accountID, err := api_middleware.AccountID(c)
	if err != nil {
		return err
	}

	agg, err := SyncService.Reset(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agg)
}
