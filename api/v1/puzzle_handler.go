package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stargrid/stargrid/internal/puzzle"
)

var PuzzleSupplier puzzle.Supplier

func RegisterPuzzleRoutes(g *echo.Group, s puzzle.Supplier) {
	PuzzleSupplier = s
	g.POST("", NewPuzzleHandler)
}

func NewPuzzleHandler(c echo.Context) error {
	var req puzzle.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}

	p, err := PuzzleSupplier.NewPuzzle(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
