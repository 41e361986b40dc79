// servicetitan-mcp serves American Leak Detection's ServiceTitan
// reporting tools over the Model Context Protocol on stdio.
//
// Run directly to serve MCP, or verify credentials first:
//
//	servicetitan-mcp --check
package main

import (
	"fmt"
	"os"

	"servicetitan-mcp/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "servicetitan-mcp:", err)
		os.Exit(1)
	}
}
