package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/oasplit/internal/mcpserver"
)

// MCPFlags contains flags for the mcp command
type MCPFlags struct {
	Verbose bool
}

// SetupMCPFlags creates and configures a FlagSet for the mcp command.
func SetupMCPFlags() (*flag.FlagSet, *MCPFlags) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	flags := &MCPFlags{}

	fs.BoolVar(&flags.Verbose, "v", false, "verbose logging to stderr")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: oasplit mcp [flags]\n\n")
		Writef(output, "Run the MCP server over stdio. Tools: split, normalize, search.\n")
		Writef(output, "Settings come from the file named by OASPLIT_CONFIG and OASPLIT_* variables.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
	}

	return fs, flags
}

// HandleMCP executes the mcp command. It blocks until the client disconnects
// or the process is interrupted.
func HandleMCP(args []string) error {
	fs, flags := SetupMCPFlags()
	fs.SetOutput(Stderr)

	if _, err := parseArgs(fs, args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(flags.Verbose, false)
	defer func() { _ = log.Sync() }()
	return mcpserver.Run(ctx, log)
}
