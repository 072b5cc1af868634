// Package cli provides common utilities for the voxlate command-line
// tool.
//
// This package includes:
//   - Output formatting (YAML, JSON, table)
//   - Request file loading (YAML/JSON, stdin)
//   - Human-readable duration and size formatting
//   - Static terminal panels
//
// Example usage:
//
//	// Output a result in the requested format
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
//
//	// Load a batch request file
//	var req BatchRequest
//	err := cli.LoadRequest("batch.yaml", &req)
package cli
