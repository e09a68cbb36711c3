// Package config provides environment helpers for go-classroom commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by the commands.
const (
	EnvLogFile  = "CLASSROOM_LOG_FILE"
	EnvModel    = "CLASSROOM_MODEL"
	EnvDSN      = "CLASSROOM_DSN"
	EnvDevice   = "CLASSROOM_DEVICE"
	EnvHTTPPort = "CLASSROOM_HTTP_PORT"
	EnvLogLevel = "LOG_LEVEL"
)

// String returns the value of key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns key parsed as an int, or def if unset or malformed.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Float returns key parsed as a float64, or def if unset or malformed.
func Float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Duration returns key parsed with time.ParseDuration, or def.
// A bare number is read as seconds.
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

// Set reports whether key is present in the environment.
func Set(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
