package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingDSN is returned when no connection string can be resolved.
var ErrMissingDSN = errors.New("connection string not set")

// Load reads a pipeline file on top of Default. Unknown keys are rejected.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(b)
}

// Decode parses JSON on top of Default.
func Decode(b []byte) (Pipeline, error) {
	p := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	if p.Entities == nil {
		p.Entities = Options{}
	}
	return p, nil
}

// ResolveDSN returns the connection string from, in order: explicit, the
// envKey entry of envFile, and the envKey process variable.
func ResolveDSN(explicit, envKey, envFile string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	if envKey == "" {
		return "", fmt.Errorf("%w: no dsn and no env key", ErrMissingDSN)
	}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil {
			return "", fmt.Errorf("read env file %s: %w", envFile, err)
		}
		if s := strings.TrimSpace(vals[envKey]); s != "" {
			return s, nil
		}
	}
	if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
		return s, nil
	}
	return "", fmt.Errorf("%w: pass a dsn or set %s", ErrMissingDSN, envKey)
}
