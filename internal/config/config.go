package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// legacySchemes are connection-string prefixes left over from deployments of
// the previous stack. They are rewritten to the form the pgx driver accepts.
var legacySchemes = []string{
	"postgresql+psycopg://",
	"postgresql+asyncpg://",
	"postgresql://",
}

// NormalizeDatabaseURL trims stray whitespace and quotes from a database URL
// and rewrites legacy scheme prefixes to postgres://. A missing or malformed
// URL is an error; callers treat it as fatal at startup.
func NormalizeDatabaseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)

	if s == "" {
		return "", fmt.Errorf("database URL is required")
	}

	for _, scheme := range legacySchemes {
		if strings.HasPrefix(s, scheme) {
			s = "postgres://" + strings.TrimPrefix(s, scheme)
			break
		}
	}

	if !strings.Contains(s, "://") {
		return "", fmt.Errorf("database URL is malformed: missing scheme")
	}

	return s, nil
}

// ParseCORSOrigins parses an origin allow-list supplied either as a JSON
// array or as a comma-separated list. An empty input yields no origins,
// which disables CORS.
func ParseCORSOrigins(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	if strings.HasPrefix(s, "[") {
		var origins []string
		if err := json.Unmarshal([]byte(s), &origins); err != nil {
			return nil, fmt.Errorf("failed to parse CORS origins as JSON: %w", err)
		}
		return origins, nil
	}

	var origins []string
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins, nil
}
