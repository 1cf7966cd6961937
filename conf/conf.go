package conf

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// LoadConfig reads the configuration file and sets the defaults. A missing
// file is fine; the defaults carry the app.
func LoadConfig() {
	viper.SetConfigName("feedhaven")
	viper.AddConfigPath("$HOME/.feedhaven")
	viper.AddConfigPath(".")

	viper.SetDefault("DBPath", "feedhaven.db")
	viper.SetDefault("UserAgent", "FeedHaven/1.0")
	viper.SetDefault("RequestTimeout", 20*time.Second)
	viper.SetDefault("ParallelFetch", 4)
	viper.SetDefault("LogLevel", "info")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal().Err(err).Msg("Fatal error reading config file")
		}
	}

	setLoggerLevel()
}

func setLoggerLevel() {
	level, err := zerolog.ParseLevel(viper.GetString("LogLevel"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
