package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/feedhaven/feedhaven/conf"
	"github.com/feedhaven/feedhaven/db"
	"github.com/feedhaven/feedhaven/feeds"
	"github.com/feedhaven/feedhaven/models"
	"github.com/feedhaven/feedhaven/store"
)

// logErrorHandler routes caught storage failures to the log
type logErrorHandler struct{}

func (logErrorHandler) HandleError(err error) {
	log.Error().Err(err).Msg("Storage error")
}

func main() {
	// Load config
	conf.LoadConfig()

	// Execution context, canceled on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Connect to the database and initialize the schema
	conn, err := db.Connect(viper.GetString("DBPath"))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open the database")
	}
	st := store.New(conn, logErrorHandler{})
	defer st.Close()
	if !st.Initialize(ctx) {
		log.Fatal().Msg("Could not initialize the database schema")
	}

	st.OnSourceUpdated(func(source *models.FeedSource) {
		log.Info().Int64("id", source.ID).Str("name", source.Name).Msg("Feed source updated")
	})
	st.OnRefreshCompleted(func() {
		log.Info().Msg("Refresh completed")
	})

	manager := feeds.New(st, feeds.Options{
		Timeout:       viper.GetDuration("RequestTimeout"),
		UserAgent:     viper.GetString("UserAgent"),
		ParallelFetch: viper.GetInt("ParallelFetch"),
	})

	// Subscribe any feed URLs passed as arguments, then refresh everything
	for _, uri := range os.Args[1:] {
		if _, _, err := manager.FetchAndStore(ctx, uri, nil); err != nil {
			log.Error().Str("uri", uri).Err(err).Msg("Could not subscribe feed")
		}
	}

	err = manager.RefreshAll(ctx, func(p feeds.RefreshProgress) {
		log.Info().
			Int64("source_id", p.SourceID).
			Str("uri", p.URI).
			Bool("failed", p.Stage == feeds.StageFailed).
			Int("completed", p.Completed).
			Int("total", p.Total).
			Msg("Refresh progress")
	})
	if err != nil {
		log.Error().Err(err).Msg("Refresh aborted")
	}
}
