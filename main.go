package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parqedit/parqedit/crdb"
	"github.com/parqedit/parqedit/gologger"
	"github.com/parqedit/parqedit/http_server"
	"github.com/parqedit/parqedit/migrations"
	"github.com/parqedit/parqedit/utils"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting parqedit api")

	// The commit log is optional: without CRDB_DSN saves just skip it
	if utils.CRDB_DSN != "" {
		if err := crdb.ConnectToDB(); err != nil {
			logger.Error().Err(err).Msg("error connecting to CRDB")
			os.Exit(1)
		}

		if err := migrations.CheckMigrations(utils.CRDB_DSN); err != nil {
			logger.Error().Err(err).Msg("Error checking migrations")
			os.Exit(1)
		}
	} else {
		logger.Info().Msg("CRDB_DSN not set, commit log disabled")
	}

	httpServer := http_server.StartHTTPServer()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))
	time.Sleep(time.Second * time.Duration(sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
}
