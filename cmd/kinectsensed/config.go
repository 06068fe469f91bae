package main

import (
	"github.com/e7canasta/kinect-sense/internal/platform/config"
)

// appConfig is the daemon configuration, read from environment variables
// (optionally seeded from a .env file).
type appConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// SourceURI selects the frame source: "sim" for the synthetic
	// generator, "test" for the GStreamer test source, or a capture file.
	SourceURI  string
	StreamKind string
	Width      int
	Height     int
	TargetFPS  float64
	Loop       bool

	// Depth reliable window in millimeters; MaxDepth 0 means full range.
	MinDepth int
	MaxDepth int

	// CastGroup is the multicast addr:port for presence masks; empty
	// disables broadcasting. Depth streams only.
	CastGroup     string
	CastThreshold int

	// WarmupSeconds measures source stability after start; 0 skips it.
	WarmupSeconds int
}

func loadConfig() appConfig {
	return appConfig{
		Port:      config.GetEnv("PORT", "8080"),
		LogLevel:  config.GetEnv("LOG_LEVEL", "info"),
		LogFormat: config.GetEnv("LOG_FORMAT", "json"),

		SourceURI:  config.GetEnv("SOURCE_URI", "sim"),
		StreamKind: config.GetEnv("STREAM_KIND", "depth"),
		Width:      config.GetEnvInt("FRAME_WIDTH", 0),
		Height:     config.GetEnvInt("FRAME_HEIGHT", 0),
		TargetFPS:  config.GetEnvFloat("TARGET_FPS", 15),
		Loop:       config.GetEnvBool("LOOP", true),

		MinDepth: config.GetEnvInt("MIN_DEPTH_MM", 500),
		MaxDepth: config.GetEnvInt("MAX_DEPTH_MM", 4500),

		CastGroup:     config.GetEnv("CAST_GROUP", ""),
		CastThreshold: config.GetEnvInt("CAST_THRESHOLD_MM", 2000),

		WarmupSeconds: config.GetEnvInt("WARMUP_SECONDS", 0),
	}
}
