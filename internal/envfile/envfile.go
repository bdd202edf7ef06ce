package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// RequiredKeys is the subset of environment keys the stack cannot start
// without. Keys use the bot's double-underscore nesting (DB__PASSWORD maps
// to database.password and so on).
var RequiredKeys = []string{
	"DB__PASSWORD",
	"EXCHANGES__BINANCE_API_KEY",
	"EXCHANGES__BINANCE_SECRET_KEY",
	"MONITORING__TELEGRAM_BOT_TOKEN",
}

// placeholderPrefix marks values copied straight from .env.example
// ("your_password_here" and friends). Such values count as unset.
const placeholderPrefix = "your_"

// Load reads and parses a key=value environment file.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads key=value lines. Blank lines and #-comments are skipped, an
// optional "export " prefix is dropped, and surrounding quotes are stripped.
func Parse(r io.Reader) (map[string]string, error) {
	env := make(map[string]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		raw = strings.TrimPrefix(raw, "export ")

		key, value, found := strings.Cut(raw, "=")
		if !found {
			return nil, fmt.Errorf("invalid env line %d: %q", line, raw)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid env line %d: empty key", line)
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		env[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}

// MissingKeys returns the required keys that are absent, empty, or still
// carry a placeholder value. A non-empty result is a warning for the
// pipeline; stages that depend on a specific key treat its absence as their
// own precondition failure.
func MissingKeys(env map[string]string, required []string) []string {
	var missing []string
	for _, key := range required {
		if IsPlaceholder(env[key]) {
			missing = append(missing, key)
		}
	}
	return missing
}

// IsPlaceholder reports whether a value counts as unset for validation:
// the empty string, or an .env.example placeholder.
func IsPlaceholder(value string) bool {
	if value == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(value), placeholderPrefix)
}
