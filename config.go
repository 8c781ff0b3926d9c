package session

import (
	"encoding/hex"
	"os"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds session runtime options
type Config interface {
	GetAPIBase() string
	GetStorageDSN() string
	GetStorageKey() []byte
	GetLogLevel() string
}

// devStorageKey backs local development when SESSION_STORAGE_KEY is unset.
// 32 bytes, never for production use.
const devStorageKey = "localmart-dev-session-key-000000"

// EnvConfig implements Config from environment variables, loading a .env
// file when one is present.
type EnvConfig struct {
	apiBase  string
	dsn      string
	key      []byte
	logLevel string
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from the environment.
// SESSION_STORAGE_KEY, when set, must be 64 hex characters (32 bytes).
func LoadConfig() (*EnvConfig, error) {
	_ = godotenv.Load()

	key := []byte(devStorageKey)
	if keyHex := os.Getenv("SESSION_STORAGE_KEY"); keyHex != "" {
		decoded, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "SESSION_STORAGE_KEY is not valid hex").
				WithCode(errors.CodeBadRequest)
		}
		if len(decoded) != secretBoxKeySize {
			return nil, errors.New("SESSION_STORAGE_KEY must decode to 32 bytes", errors.CategoryBadInput).
				WithCode(errors.CodeBadRequest)
		}
		key = decoded
	}

	return &EnvConfig{
		apiBase:  getEnv("SESSION_API_BASE", "http://localhost:8000"),
		dsn:      getEnv("SESSION_STORAGE_DSN", "file:session.db?cache=shared"),
		key:      key,
		logLevel: getEnv("SESSION_LOG_LEVEL", "info"),
	}, nil
}

func (c *EnvConfig) GetAPIBase() string    { return c.apiBase }
func (c *EnvConfig) GetStorageDSN() string { return c.dsn }
func (c *EnvConfig) GetStorageKey() []byte { return c.key }
func (c *EnvConfig) GetLogLevel() string   { return c.logLevel }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
