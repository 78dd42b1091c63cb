package core

import (
	"time"
)

type Config struct {
	Subsonic SubsonicConfig
	Bus      BusConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type SubsonicConfig struct {
	ServerURL  string
	Username   string
	Password   string
	ClientName string
	APIVersion string
	Timeout    time.Duration

	// SearchLimit caps per-kind results requested from the catalog's
	// free-text search.
	SearchLimit int
}

type BusConfig struct {
	URL                   string
	ReconnectDelaySecs    int
	MaxReconnectDelaySecs int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language string

	// MatchThreshold is the minimum similarity for constraint filtering
	// (album/track candidates checked against a requested artist name).
	// Best-match selection itself never rejects.
	MatchThreshold float64

	RandomBatchSize  int
	SimilarBatchSize int

	// QueueLowWaterMark is the remaining-track count at or below which a
	// continuation session fetches the next batch.
	QueueLowWaterMark int
	QueuePollInterval time.Duration

	// RefillBackoffMax bounds the exponential back-off applied when
	// continuation batch fetches keep failing or coming back empty.
	RefillBackoffMax time.Duration

	RecentTracksSize int
}

func DefaultConfig() *Config {
	return &Config{
		Subsonic: SubsonicConfig{
			ClientName:  "subvox",
			APIVersion:  "1.16.1",
			Timeout:     10 * time.Second,
			SearchLimit: 20,
		},
		Bus: BusConfig{
			URL:                   "ws://127.0.0.1:8181/core",
			ReconnectDelaySecs:    1,
			MaxReconnectDelaySecs: 30,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:          "en",
			MatchThreshold:    0.8,
			RandomBatchSize:   20,
			SimilarBatchSize:  20,
			QueueLowWaterMark: 1,
			QueuePollInterval: 2 * time.Second,
			RefillBackoffMax:  60 * time.Second,
			RecentTracksSize:  500,
		},
	}
}
