// Package env reads process environment variables with fallbacks, for
// the few knobs that live outside the envconfig-managed configuration.
package env

import (
	"os"
	"strings"
)

// Get returns the variable's value, or fallback when it is unset or
// blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
