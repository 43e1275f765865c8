package ptyharness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

const defaultEnvFile = "~/.config/ptyharness/ptyharness.env"

// Environment variables read by LoadConfig.
const (
	EnvFile     = "PTYHARNESS_ENV_FILE"
	EnvProgram  = "PTYHARNESS_PROGRAM"
	EnvTimeout  = "PTYHARNESS_TIMEOUT"
	EnvSettle   = "PTYHARNESS_SETTLE"
	EnvPoll     = "PTYHARNESS_POLL"
	EnvKeyDelay = "PTYHARNESS_KEY_DELAY"
	EnvLog      = "PTYHARNESS_LOG"
	EnvUpdate   = "PTYHARNESS_UPDATE"

	// EnvCollectPoll is the pause after an empty read while collecting.
	// EnvPoll only governs WaitFor and WaitExit polling.
	EnvCollectPoll = "PTYHARNESS_COLLECT_POLL"
)

// Config holds harness tunables sourced from the environment. Zero fields
// mean "not set" and leave the built-in defaults alone.
type Config struct {
	ProgramPath  string
	Timeout      time.Duration
	Settle       time.Duration
	PollInterval time.Duration
	CollectPoll  time.Duration
	KeyDelay     time.Duration
	LogLevel     string
	Update       bool
}

// LoadConfig reads the PTYHARNESS_* variables. Values missing from the
// process environment fall back to the dotenv file named by
// PTYHARNESS_ENV_FILE (default ~/.config/ptyharness/ptyharness.env). A
// missing file is not an error.
func LoadConfig() (Config, error) {
	fileVars, err := readEnvFile()
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	}

	cfg := Config{
		ProgramPath: lookup(EnvProgram),
		LogLevel:    lookup(EnvLog),
		Update:      truthy(lookup(EnvUpdate)),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvTimeout, &cfg.Timeout},
		{EnvSettle, &cfg.Settle},
		{EnvPoll, &cfg.PollInterval},
		{EnvCollectPoll, &cfg.CollectPoll},
		{EnvKeyDelay, &cfg.KeyDelay},
	}
	for _, d := range durations {
		v := lookup(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", d.key, err)
		}
		if parsed < 0 {
			return Config{}, fmt.Errorf("config: %s: negative duration %v", d.key, parsed)
		}
		*d.dst = parsed
	}

	return cfg, nil
}

func readEnvFile() (map[string]string, error) {
	path := os.Getenv(EnvFile)
	if path == "" {
		path = defaultEnvFile
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", path, err)
	}

	vars, err := godotenv.Read(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", expanded, err)
	}
	return vars, nil
}

// truthy reports whether v is one of the accepted "on" spellings.
func truthy(v string) bool {
	return v == "1" || v == "true" || v == "yes"
}
