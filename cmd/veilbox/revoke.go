package main

import (
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

var (
	revokeKind string
	revokePath string
	revokeHost string
)

// revokeCmd removes a remembered grant.
var revokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Remove a remembered capability grant",
	Long: `Remove a capability from the remembered grant set. The capability
resolves per policy again on the next run (typically back to prompt or
denied).`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if revokeKind == "" {
			return fmt.Errorf("--kind is required")
		}

		d := domain.Descriptor{Kind: domain.Kind(revokeKind), Path: revokePath, Host: revokeHost}
		if err := d.Validate(); err != nil {
			return err
		}

		store, err := grantStore()
		if err != nil {
			return err
		}
		remembered, err := store.Load()
		if err != nil {
			return err
		}

		kept := remembered[:0]
		removed := 0
		for _, existing := range remembered {
			if existing.Equals(d) {
				removed++
				continue
			}
			kept = append(kept, existing)
		}

		if removed == 0 {
			fmt.Printf("No remembered grant matches %s\n", d.String())
			return nil
		}

		if err := store.Save(kept); err != nil {
			return err
		}
		fmt.Printf("Revoked %s (updated %s)\n", d.String(), store.ConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)

	revokeCmd.Flags().StringVar(&revokeKind, "kind", "", "Capability kind (read, write, net, env, run, ffi, hrtime)")
	revokeCmd.Flags().StringVar(&revokePath, "path", "", "Path scope for read/write grants")
	revokeCmd.Flags().StringVar(&revokeHost, "host", "", "Host scope for net grants")
}
