// Package cli implements the toon-mcp command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/paularlott/toon-mcp/config"
)

// Version is set at build time.
var Version = "dev"

const serverName = "toon-mcp"

var errorIcon = color.New(color.FgRed).Sprint("✗")

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   serverName,
		Short: "Convert between JSON and TOON over MCP, HTTP or the command line",
		Long: `toon-mcp converts JSON to Token-Oriented Object Notation and back.

By default it runs an MCP server on stdin/stdout. With --mode http it serves
the MCP endpoint, a REST API and Prometheus metrics instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	addServerFlags(flags)
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("binding flags: %v", err))
	}

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// addServerFlags registers the settings config.Load resolves. They are
// persistent so every subcommand accepts them.
func addServerFlags(flags *pflag.FlagSet) {
	flags.String(config.KeyMode, config.ModeMCP, "Server mode: mcp (stdio) or http")
	flags.String(config.KeyHost, "0.0.0.0", "HTTP listen host")
	flags.Int(config.KeyPort, 8080, "HTTP listen port")
	flags.BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
	flags.String(config.KeyLogFormat, "console", "Log format: console or json")
	flags.StringP(config.KeyConfig, "c", "", "Path to a config file (YAML, TOML or JSON)")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serverName, Version)
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorIcon, err.Error())
		return err
	}
	return nil
}
