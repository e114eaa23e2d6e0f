package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"pkt.systems/gocha"
)

func newImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import spec skeletons from other formats (openapi)",
	}

	openapi := &cobra.Command{
		Use:   "openapi",
		Short: "Import from OpenAPI/Swagger",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromCmd(cmd)
			src, _ := cmd.Flags().GetString("source")
			outDir, _ := cmd.Flags().GetString("output")
			outFile, _ := cmd.Flags().GetString("output-file")
			name, _ := cmd.Flags().GetString("collection-name")
			groupBy, _ := cmd.Flags().GetString("group-by")
			insecure, _ := cmd.Flags().GetBool("insecure")
			allowRemoteRefs, _ := cmd.Flags().GetBool("allow-remote-refs")
			allowFileRefs, _ := cmd.Flags().GetBool("allow-file-refs")
			active, _ := cmd.Flags().GetBool("active")
			includePaths, _ := cmd.Flags().GetStringSlice("include-path")
			if src == "" {
				return fmt.Errorf("--source is required")
			}
			if outDir == "" && outFile == "" {
				return fmt.Errorf("either --output or --output-file is required")
			}
			return gocha.ImportOpenAPI(cmd.Context(), gocha.ImportOptions{
				Source:          src,
				OutputDir:       outDir,
				OutputFile:      outFile,
				CollectionName:  name,
				GroupBy:         groupBy,
				IncludePaths:    includePaths,
				Insecure:        insecure,
				AllowRemoteRefs: allowRemoteRefs,
				AllowFileRefs:   allowFileRefs,
				Active:          active,
				Logger:          logger,
			})
		},
	}

	addLoggingFlags(importCmd.Flags())
	addLoggingFlags(openapi.Flags())

	openapi.Flags().StringP("source", "s", "", "Path or URL to source file")
	openapi.Flags().StringP("output", "o", "", "Output directory for the collection")
	openapi.Flags().StringP("output-file", "f", "", "Output JSON summary instead of a directory")
	openapi.Flags().StringP("collection-name", "n", "", "Name for the imported collection")
	openapi.Flags().Bool("insecure", false, "Skip TLS verification when fetching URL")
	openapi.Flags().StringP("group-by", "g", "tags", "Group by tags|path")
	openapi.Flags().Bool("allow-remote-refs", false, "Allow following remote $refs inside the OpenAPI document")
	openapi.Flags().Bool("allow-file-refs", false, "Allow absolute/local file $refs (blocked by default for security)")
	openapi.Flags().Bool("active", false, "Emit runnable it stubs instead of pending xit stubs")
	openapi.Flags().StringSliceP("include-path", "i", nil, "Only import operations whose path starts with one of these prefixes (repeatable)")

	importCmd.AddCommand(openapi)
	return importCmd
}
