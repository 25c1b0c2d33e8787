package cmd

import (
	"context"
	"fmt"
	"strings"
)

const usage = `modelrelay routes assistant turns to the right model and streams the result.

Usage:
  modelrelay serve [flags]
  modelrelay key set <provider> <api-key>
  modelrelay key delete <provider>

Commands:
  serve    Start the HTTP server
  key      Manage provider credentials in the OS keyring

Flags:
  -h, --help  Show this help message`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "key":
		return key(args[1:])
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage() error {
	fmt.Println(strings.TrimSpace(usage))
	return nil
}
