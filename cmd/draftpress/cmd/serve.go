package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfenderov/draftpress/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server over stdio.

Tools:
  - convert_document: Convert a local .docx without publishing it
  - search_publications: Search past outcomes (journal enabled only)
  - get_publication: Get one outcome by ID (journal enabled only)

Example:
  draftpress serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var j mcp.Journal
	if cfg.Journal.Enabled {
		client, err := newJournal(cfg)
		if err != nil {
			return fmt.Errorf("failed to create journal client: %w", err)
		}
		j = client
	}

	server := mcp.NewServer(mcp.Config{
		Name:     cfg.MCP.Name,
		Version:  cfg.MCP.Version,
		Strategy: cfg.Converter.Strategy,
	}, j)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
