package provider

import (
	"os"
	"strings"
)

// LookupFunc reads one environment variable. os.Getenv in production,
// a map in tests.
type LookupFunc func(name string) string

// ResolveAPIKey returns the credential for a provider. An explicit key wins;
// otherwise the env names are tried in order and the first non-empty value
// is returned. The second result is false when nothing was found.
func ResolveAPIKey(explicit string, envNames []string, lookup LookupFunc) (string, bool) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, true
	}
	if lookup == nil {
		lookup = os.Getenv
	}
	for _, name := range envNames {
		if key := strings.TrimSpace(lookup(name)); key != "" {
			return key, true
		}
	}
	return "", false
}
