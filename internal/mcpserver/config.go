package mcpserver

import (
	"log/slog"
	"os"

	"github.com/erraggy/oasplit/internal/config"
)

// configEnv names the environment variable holding an optional config file
// path. OASPLIT_* variables override the file either way.
const configEnv = "OASPLIT_CONFIG"

// defaultMaxLimit caps every paged tool result.
const defaultMaxLimit = 1000

// serverConfig holds all configurable MCP server defaults.
type serverConfig struct {
	*config.Config

	// MaxLimit is the largest page any tool returns.
	MaxLimit int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads the config file named by OASPLIT_CONFIG, if any, and the
// OASPLIT_* environment. An invalid configuration logs a warning and falls
// back to the defaults.
func loadConfig() *serverConfig {
	path := os.Getenv(configEnv)
	c, err := config.Load(path)
	if err != nil {
		slog.Warn("invalid oasplit configuration, using defaults", "path", path, "error", err) //nolint:gosec // G706: values are structured log fields, not format strings
		c = config.Default()
	}
	return &serverConfig{Config: c, MaxLimit: defaultMaxLimit}
}
