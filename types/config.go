package types

import "time"

// Config holds the daemon configuration assembled from CLI flags.
type Config struct {
	Addr string

	// Upstream completion service
	ProviderURL   string
	ProviderKey   string
	ProviderModel string

	// Gateway policy
	CacheSize        int
	CacheTTL         time.Duration
	RequestsPerMin   int
	MinSuggestionLen int

	// Controller timing
	TextChangeDebounce time.Duration
	CursorIdleDelay    time.Duration
	AcceptCooldown     time.Duration
	CompletionTimeout  time.Duration

	LogLevel string
	LogFile  string
}

// DefaultConfig returns the configuration defaults used by the serve command.
func DefaultConfig() Config {
	return Config{
		Addr:               "127.0.0.1:8731",
		ProviderURL:        "https://generativelanguage.googleapis.com",
		ProviderModel:      "gemini-2.0-flash",
		CacheSize:          200,
		CacheTTL:           30 * time.Minute,
		RequestsPerMin:     10,
		MinSuggestionLen:   3,
		TextChangeDebounce: 100 * time.Millisecond,
		CursorIdleDelay:    300 * time.Millisecond,
		AcceptCooldown:     time.Second,
		CompletionTimeout:  10 * time.Second,
		LogLevel:           "info",
	}
}
