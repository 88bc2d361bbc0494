package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/api"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/arena"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/config"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/logging"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/storage"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/version"
)

func main() {
	srv, err := config.LoadServer()
	if err != nil {
		logging.Fatal("Invalid server configuration", err, nil)
	}

	// Battle data (species, moves, type chart, balance) is required; the
	// server refuses to start without a valid file.
	tbl, err := config.LoadTables(srv.TablesPath)
	if err != nil {
		logging.Fatal("Missing or invalid battle configuration", err, logging.Fields{
			"config_path": srv.TablesPath,
			"hint":        "create a veramon_config.json with 'species_list', 'move_list', 'type_chart' and 'balance' sections",
		})
	}

	db, err := storage.OpenAndMigrate(srv.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	reg := arena.NewRegistry(tbl, repo, arena.Options{
		ActionTimeout:  srv.ActionTimeout,
		IdleLimit:      srv.IdleLimit,
		PersistRetries: srv.PersistRetries,
	})

	// Battles interrupted by the last shutdown come back before the API
	// starts accepting requests, so clients never observe a gap.
	recovered, err := reg.Recover()
	if err != nil {
		logging.Fatal("Failed to recover battles", err, nil)
	}
	logging.Info("Recovery finished", logging.Fields{constants.LogFieldCount: recovered})

	// Background sweep: deliver deadline ticks to battles whose action
	// window has passed. Each session re-checks its own clock, so a tick
	// racing a submission is harmless.
	go func() {
		ticker := time.NewTicker(srv.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			reg.SweepTimeouts(time.Now())
		}
	}()

	handler := api.NewBattleHandler(reg, tbl)

	router := gin.Default()
	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteSpecies, handler.ListSpecies)
		apiRoutes.GET(constants.RouteMoves, handler.ListMoves)
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.GET(constants.RouteHealth, api.Health)

		apiRoutes.POST(constants.RouteBattles, handler.CreateBattle)
		apiRoutes.POST(constants.RouteBattleJoin, handler.JoinBattle)
		apiRoutes.GET(constants.RouteBattleByID, handler.GetBattle)
		apiRoutes.POST(constants.RouteBattleAction, handler.SubmitAction)
		apiRoutes.POST(constants.RouteBattleForfeit, handler.ForfeitBattle)
		apiRoutes.GET(constants.RouteBattleHistory, handler.GetHistory)
		apiRoutes.GET(constants.RouteBattleTurn, handler.GetTurn)
		apiRoutes.GET(constants.RouteBattleEvents, handler.BattleEvents)
	}

	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: srv.Address,
		"version":              version.Human(),
	})
	if err := router.Run(srv.Address); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
