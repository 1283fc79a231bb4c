package config

import (
	"os"
	"strconv"
	"strings"

	"thesis-catalog/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	LogLevel    string
	MaxFileSize int64

	// StorePath and VaultRoot are resolved once here and never recomputed
	// per call; every component receives them through this struct.
	StorePath string
	VaultRoot string

	Courses        []string
	AuthorDenylist []string
	KeywordTopN    int

	WatermarkEnabled  bool
	WatermarkText     string
	WatermarkLogoPath string

	GCPProjectID string
	GCPLocation  string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default

		StorePath: getEnvOrDefault("STORE_PATH", "./data/thesis_repository.db"),
		VaultRoot: getEnvOrDefault("VAULT_ROOT", "./data/thesis_files"),

		Courses:        getEnvListOrDefault("COURSES", []string{"BSCS", "BSOA", "BSBA", "BSED", "BEED", "ABREED"}),
		AuthorDenylist: getEnvListOrDefault("AUTHOR_DENYLIST", []string{"Cainta", "Rizal"}),
		KeywordTopN:    int(getEnvInt64OrDefault("KEYWORD_TOP_N", 5)),

		WatermarkEnabled:  getEnvBoolOrDefault("WATERMARK_ENABLED", false),
		WatermarkText:     getEnvOrDefault("WATERMARK_TEXT", "CCC RESEARCH PROPERTY"),
		WatermarkLogoPath: getEnvOrDefault("WATERMARK_LOGO", ""),

		GCPProjectID: getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:  getEnvOrDefault("GCP_LOCATION", "us-central1"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetStorePath returns the SQLite database file path
func (c *AppConfig) GetStorePath() string {
	return c.StorePath
}

// GetVaultRoot returns the root directory of stored PDFs
func (c *AppConfig) GetVaultRoot() string {
	return c.VaultRoot
}

// GetCourses returns the enumerated program codes
func (c *AppConfig) GetCourses() []string {
	return c.Courses
}

// GetAuthorDenylist returns institutional tokens excluded from author guesses
func (c *AppConfig) GetAuthorDenylist() []string {
	return c.AuthorDenylist
}

// GetKeywordTopN returns how many keyword phrases extraction targets
func (c *AppConfig) GetKeywordTopN() int {
	return c.KeywordTopN
}

// GetWatermarkEnabled reports whether stored copies get watermarked
func (c *AppConfig) GetWatermarkEnabled() bool {
	return c.WatermarkEnabled
}

// GetWatermarkText returns the diagonal stamp text
func (c *AppConfig) GetWatermarkText() string {
	return c.WatermarkText
}

// GetWatermarkLogoPath returns the optional logo image path, empty when unset
func (c *AppConfig) GetWatermarkLogoPath() string {
	return c.WatermarkLogoPath
}

// GetGCPProjectID returns the project used for embedding calls
func (c *AppConfig) GetGCPProjectID() string {
	return c.GCPProjectID
}

// GetGCPLocation returns the region used for embedding calls
func (c *AppConfig) GetGCPLocation() string {
	return c.GCPLocation
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
