package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cgm-mcp/internal/insulin"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"
	"cgm-mcp/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	CacheDir            string
	Profiles            *profile.Catalog
	ProfileKey          string
	Regimen             *insulin.Regimen
	Analysis            report.Options
	NarrativeNotice     string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment. exeDir is
// the default data path when DATA_PATH is unset.
func FromEnv(exeDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	catalog, err := loadCatalog(getEnv("CGM_PROFILES_FILE", ""))
	if err != nil {
		return nil, err
	}

	profileKey := getEnv("CGM_PROFILE", catalog.DefaultKey())
	if _, err := catalog.Lookup(profileKey); err != nil {
		return nil, fmt.Errorf("CGM_PROFILE: %w", err)
	}

	var regimen *insulin.Regimen
	if path := getEnv("CGM_REGIMEN_FILE", ""); path != "" {
		regimen, err = insulin.LoadRegimen(path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("Loaded insulin regimen")
	}

	opts := report.DefaultOptions()
	opts.MAGEThreshold = getEnvFloat("CGM_MAGE_THRESHOLD", stats.DefaultMAGEThreshold)
	opts.Correlation.Tolerance = time.Duration(getEnvFloat("CGM_JOIN_TOLERANCE_MINUTES", stats.DefaultJoinTolerance.Minutes()) * float64(time.Minute))
	opts.Correlation.Horizon = time.Duration(getEnvFloat("CGM_HORIZON_HOURS", stats.DefaultObservationHorizon.Hours()) * float64(time.Hour))
	if opts.MAGEThreshold <= 0 {
		return nil, fmt.Errorf("CGM_MAGE_THRESHOLD must be positive, got %v", opts.MAGEThreshold)
	}
	if opts.Correlation.Tolerance <= 0 || opts.Correlation.Horizon <= 0 {
		return nil, fmt.Errorf("join tolerance and horizon must be positive")
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		Profiles:            catalog,
		ProfileKey:          profileKey,
		Regimen:             regimen,
		Analysis:            opts,
		NarrativeNotice:     getEnv("CGM_NARRATIVE_NOTICE", ""),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

// Profile resolves key against the catalog, falling back to the configured
// default profile.
func (c *AppConfig) Profile(key string) (profile.PatientProfile, error) {
	if key == "" {
		key = c.ProfileKey
	}
	return c.Profiles.Lookup(key)
}

func loadCatalog(path string) (*profile.Catalog, error) {
	if path == "" {
		return profile.Builtin()
	}
	c, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("profiles", len(c.Keys())).Msg("Loaded profile catalog")
	return c, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid number")
	}
	return fallback
}
