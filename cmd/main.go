package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	api_middleware "github.com/stargrid/stargrid/api/middleware"
	v1 "github.com/stargrid/stargrid/api/v1"
	"github.com/stargrid/stargrid/internal/apperrors"
	"github.com/stargrid/stargrid/internal/leaderboard"
	"github.com/stargrid/stargrid/internal/progress"
	"github.com/stargrid/stargrid/internal/puzzle"
	"github.com/stargrid/stargrid/internal/user"
	"github.com/stargrid/stargrid/pkg/db"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️File .env not found, using system values")
	}

	gormDB, rdb := db.Connect()
	gormDB.AutoMigrate(&user.User{}, &progress.ProgressRecord{}, &progress.ConsumedTransaction{}, &leaderboard.DailyScore{})

	userRepo := user.NewGormUserRepository(gormDB)
	userService := user.NewUserService(userRepo)

	ratings := leaderboard.NewRedisRatingRepository(rdb)
	syncService := progress.NewSyncService(
		progress.NewGormProgressRepository(gormDB),
		ratings,
	)
	leaderboardService := leaderboard.NewLeaderboardService(
		ratings,
		leaderboard.NewGormDailyScoreRepository(gormDB),
		userRepo,
	)
	supplier := puzzle.NewHTTPSupplier(os.Getenv("PUZZLE_SERVICE_URL"))

	e := echo.New()
	e.HTTPErrorHandler = apperrors.EchoErrorHandler(e)

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	v1.RegisterUserRoutes(api.Group("/users"), userService)

	sg := api.Group("/sync")
	sg.Use(api_middleware.SetupJWTMiddleware())
	v1.RegisterSyncRoutes(sg, syncService)

	lg := api.Group("")
	lg.Use(api_middleware.SetupJWTMiddleware())
	v1.RegisterLeaderboardRoutes(lg, leaderboardService)

	pg := api.Group("/puzzles")
	pg.Use(api_middleware.SetupJWTMiddleware())
	v1.RegisterPuzzleRoutes(pg, supplier)

	e.Logger.Fatal(e.Start(":8080"))
}
