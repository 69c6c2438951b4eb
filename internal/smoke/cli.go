package smoke

import "os"

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Catalog Smoke Tool
==================

Runs the public API contract against a running catalog server: health,
unrouted paths, preflight, and create/list/duplicate/delete for every
resource. Records created by the run are deleted again.

Usage:
  go run ./cmd/catalog-smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -workers int
        Concurrent creates of one name in the race check (default 8)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log passing checks too
  -help
        Show this help message
`)
}
