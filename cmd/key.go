package cmd

import (
	"errors"
	"fmt"

	"modelrelay/internal/secrets"
)

const keyUsage = `Usage:
  modelrelay key set <provider> <api-key>
  modelrelay key delete <provider>`

func key(args []string) error {
	if len(args) == 0 {
		return errors.New(keyUsage)
	}

	ks, err := secrets.NewKeyStore(nil)
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}

	switch args[0] {
	case "set":
		if len(args) != 3 {
			return errors.New(keyUsage)
		}
		if err := ks.Set(args[1], args[2]); err != nil {
			return fmt.Errorf("store key for %s: %w", args[1], err)
		}
		fmt.Printf("stored credentials for %s (%s)\n", args[1], secrets.MaskKey(args[2]))
		return nil
	case "delete":
		if len(args) != 2 {
			return errors.New(keyUsage)
		}
		if err := ks.Delete(args[1]); err != nil {
			return fmt.Errorf("delete key for %s: %w", args[1], err)
		}
		fmt.Printf("deleted credentials for %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown key subcommand %q\n\n%s", args[0], keyUsage)
	}
}
