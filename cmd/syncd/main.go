package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-studio-sync/internal/app"
	"github.com/MKhiriev/go-studio-sync/internal/config"
	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("syncd")
	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().
		Str("local", cfg.Storage.Local.DSN).
		Str("objects", cfg.Storage.Objects.Endpoint).
		Any("sync", cfg.Sync).
		Any("server", cfg.Server).
		Msg("received configs")

	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	daemon, err := app.NewApp(context.Background(), cfg, build, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating app")
	}

	if err = daemon.Run(); err != nil {
		log.Fatal().Err(err).Msg("syncd run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
