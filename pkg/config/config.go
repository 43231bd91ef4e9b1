// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pubauth/pkg/flags"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	// External verification service backing the public collaborators.
	VerifierURL     string
	VerifierTimeout time.Duration

	// Future flag sources (see LoadFlags).
	FlagsFile string
	FlagsRaw  string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:             env("AUTH_ENV", "dev"),
		LogLevel:        env("LOG_LEVEL", ""),
		HTTPAddr:        env("AUTH_HTTP_ADDR", ":8080"),
		VerifierURL:     env("VERIFIER_URL", "http://localhost:8090"),
		VerifierTimeout: envDur("VERIFIER_TIMEOUT_SEC", 5) * time.Second,
		FlagsFile:       env("FUTURE_FLAGS_FILE", ""),
		FlagsRaw:        env("FUTURE_FLAGS", ""),
	}
}

// LoadFlags resolves future flags once. FlagsFile wins over FlagsRaw.
// On error the returned configuration is empty, which keeps every flag off.
func (c Config) LoadFlags() (flags.Configuration, error) {
	if c.FlagsFile != "" {
		f, err := flags.LoadFile(c.FlagsFile)
		if err != nil {
			return flags.Configuration{}, fmt.Errorf("future flags file %s: %w", c.FlagsFile, err)
		}
		return f, nil
	}
	f, err := flags.ParseEnv(c.FlagsRaw)
	if err != nil {
		return flags.Configuration{}, fmt.Errorf("FUTURE_FLAGS: %w", err)
	}
	return f, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
