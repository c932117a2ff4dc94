package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds all configuration values for the HTTP API server.
type ServerConfig struct {
	ServerHost        string
	ServerPort        string
	RedisURL          string
	PostgresURL       string
	BasicAuthUsername string
	BasicAuthPassword string
	Token             string
	Prefork           bool
	CheckpointDir     string
}

// LoadServerConfig loads server configuration from environment variables.
func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerHost:        getEnvMust("PVMINER_SERVER_HOST"),
		ServerPort:        getEnvMust("PVMINER_SERVER_PORT"),
		RedisURL:          getEnvMust("PVMINER_REDIS_URL"),
		PostgresURL:       getEnvMust("PVMINER_POSTGRES_URL"),
		BasicAuthUsername: getEnvMust("PVMINER_SERVER_BASIC_AUTH_USER"),
		BasicAuthPassword: getEnvMust("PVMINER_SERVER_BASIC_AUTH_PASS"),
		Token:             getEnvMust("PVMINER_SERVER_TOKEN"),
		Prefork:           getEnvBoolDefault("PVMINER_SERVER_PREFORK", false),
		CheckpointDir:     getEnvMust("PVMINER_CHECKPOINT_DIR"),
	}
}

// ExploreConfig holds all configuration values for one exploration run.
type ExploreConfig struct {
	EnginePath         string
	EngineOptions      map[string]string
	RootFEN            string
	SearchDepth        int
	MoveTimeMs         int
	MultiPV            int
	DepthRatio         float64
	MaxDepth           int
	MaxPositions       int
	ProjectDir         string
	Project            string
	SessionID          string
	CheckpointInterval time.Duration
	CheckpointRetain   int
	PostgresURL        string
	RedisURL           string
}

// LoadExploreConfig loads exploration configuration from environment variables.
func LoadExploreConfig() *ExploreConfig {
	projectDir := getEnvMust("PVMINER_PROJECT_DIR")

	intervalSec := getEnvIntDefault("PVMINER_CHECKPOINT_INTERVAL_SEC", 60)

	return &ExploreConfig{
		EnginePath:         getEnvMust("PVMINER_ENGINE_PATH"),
		EngineOptions:      parseEngineOptions(os.Getenv("PVMINER_ENGINE_OPTIONS")),
		RootFEN:            os.Getenv("PVMINER_ROOT_FEN"),
		SearchDepth:        getEnvIntDefault("PVMINER_SEARCH_DEPTH", 20),
		MoveTimeMs:         getEnvIntDefault("PVMINER_MOVE_TIME_MS", 0),
		MultiPV:            getEnvIntDefault("PVMINER_MULTI_PV", 1),
		DepthRatio:         getEnvFloatDefault("PVMINER_DEPTH_RATIO", 0.5),
		MaxDepth:           getEnvIntDefault("PVMINER_MAX_DEPTH", 0),
		MaxPositions:       getEnvIntDefault("PVMINER_MAX_POSITIONS", 0),
		ProjectDir:         projectDir,
		Project:            getEnvDefault("PVMINER_PROJECT", defaultProjectName(projectDir)),
		SessionID:          os.Getenv("PVMINER_SESSION_ID"),
		CheckpointInterval: time.Duration(intervalSec) * time.Second,
		CheckpointRetain:   getEnvIntDefault("PVMINER_CHECKPOINT_RETENTION", 5),
		PostgresURL:        getEnvMust("PVMINER_POSTGRES_URL"),
		RedisURL:           getEnvMust("PVMINER_REDIS_URL"),
	}
}

// parseEngineOptions parses "Threads=4;Hash=256" into a setoption map.
func parseEngineOptions(raw string) map[string]string {
	options := make(map[string]string)

	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		if !found {
			slog.Error("Cannot parse engine option, expected key=value", "option", pair)
			os.Exit(1)
		}

		options[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return options
}

func defaultProjectName(projectDir string) string {
	cleaned := strings.TrimRight(projectDir, "/")

	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		return cleaned[idx+1:]
	}

	return cleaned
}

// getEnvMust either returns the environment variable or logs a fatal error if it is not set.
func getEnvMust(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Environment variable is not set", "key", key)
		os.Exit(1)
	}
	return value
}

func getEnvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Cannot load environment variable, it must be an integer", "key", key, "value", value)
		os.Exit(1)
	}

	return parsed
}

func getEnvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Error("Cannot load environment variable, it must be a number", "key", key, "value", value)
		os.Exit(1)
	}

	return parsed
}

func getEnvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	if value != "true" && value != "false" {
		slog.Error("Cannot load environment variable, it must be \"true\" or \"false\"", "key", key, "value", value)
		os.Exit(1)
	}

	return value == "true"
}
