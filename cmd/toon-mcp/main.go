// Command toon-mcp converts between JSON and TOON as an MCP server, an HTTP
// API or a one-shot command.
package main

import (
	"os"

	"github.com/paularlott/toon-mcp/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
