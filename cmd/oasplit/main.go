package main

import (
	"fmt"
	"os"

	"github.com/erraggy/oasplit"
	"github.com/erraggy/oasplit/cmd/oasplit/commands"
	"github.com/erraggy/oasplit/internal/cliutil"
)

// commandNames lists every top-level command, for typo suggestions.
var commandNames = []string{"split", "normalize", "search", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("oasplit v%s\n", oasplit.Version())
		if len(args) > 0 && args[0] == "-long" {
			fmt.Println(oasplit.BuildInfo())
		}
	case "help", "-h", "--help":
		printUsage()
	case "split":
		err = commands.HandleSplit(args)
	case "normalize":
		err = commands.HandleNormalize(args)
	case "search":
		err = commands.HandleSearch(args)
	case "mcp":
		err = commands.HandleMCP(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the command closest to input within an edit
// distance of 2, or "" when none is that close.
func suggestCommand(input string) string {
	return cliutil.Suggest(input, commandNames, 2)
}

func printUsage() {
	fmt.Println(`oasplit - OpenAPI document splitter

Usage:
  oasplit <command> [options]

Commands:
  split       Split OpenAPI documents into path and operation records
  normalize   Print the canonical form and resource key of raw routes
  search      Search the records of an OpenAPI document
  mcp         Run the MCP server over stdio
  version     Show version information (-long for build details)
  help        Show this help message

Examples:
  oasplit split openapi.yaml
  oasplit split -o fragments -format json -prune openapi.yaml
  oasplit split -endpoint /users -endpoint /orders https://example.com/openapi.yaml
  cat openapi.yaml | oasplit split -q -
  oasplit normalize /api/v1/users/{id} /v2/orders
  oasplit search -query "list pets" -method get openapi.yaml

Run 'oasplit <command> --help' for more information on a command.`)
}
