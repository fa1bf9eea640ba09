package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/veilbox-dev/veilbox/internal/config"
	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
	"github.com/veilbox-dev/veilbox/internal/infrastructure/grants"
)

var (
	grantKind string
	grantPath string
	grantHost string
)

// grantCmd manages remembered capability grants.
var grantCmd = &cobra.Command{
	Use:   "grant [manifest.yaml]",
	Short: "Remember capability grants for future runs",
	Long: `Add capabilities to the remembered grant set. Remembered grants resolve
to "granted" without prompting on every later run.

With a manifest argument, an interactive picker offers the manifest's
declared permissions. With --kind (plus --path or --host where the kind is
scoped), a single grant is added directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runGrantPicker(args[0])
		}
		return runGrantDirect()
	},
}

// grantsListCmd prints the remembered grant set.
var grantsListCmd = &cobra.Command{
	Use:   "grants",
	Short: "List remembered capability grants",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := grantStore()
		if err != nil {
			return err
		}

		remembered, err := store.Load()
		if err != nil {
			return err
		}
		if len(remembered) == 0 {
			fmt.Printf("No remembered grants in %s\n", store.ConfigPath())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tSCOPE")
		for _, d := range remembered {
			scope := d.Scope()
			if scope == "" {
				scope = "-"
			}
			fmt.Fprintf(w, "%s\t%s\n", d.Kind, scope)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(grantsListCmd)

	grantCmd.Flags().StringVar(&grantKind, "kind", "", "Capability kind (read, write, net, env, run, ffi, hrtime)")
	grantCmd.Flags().StringVar(&grantPath, "path", "", "Path scope for read/write grants")
	grantCmd.Flags().StringVar(&grantHost, "host", "", "Host scope for net grants")
}

// grantStore opens the grant store at the configured location.
func grantStore() (*grants.FileStore, error) {
	sysConfig, err := config.LoadSystemConfig(systemConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	path := sysConfig.GrantsPath
	if path == "" {
		path = config.DefaultGrantsPath()
	}
	return grants.NewFileStore(path), nil
}

// runGrantDirect adds one grant described by flags.
func runGrantDirect() error {
	if grantKind == "" {
		return fmt.Errorf("either a manifest argument or --kind is required")
	}

	d := domain.Descriptor{Kind: domain.Kind(grantKind), Path: grantPath, Host: grantHost}
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

	for _, existing := range remembered {
		if existing.Equals(d) {
			fmt.Printf("Already granted: %s\n", d.String())
			return nil
		}
	}

	if err := store.Save(append(remembered, d)); err != nil {
		return err
	}
	fmt.Printf("Granted %s (saved to %s)\n", d.String(), store.ConfigPath())
	return nil
}

// runGrantPicker offers the manifest's permissions in a multi-select.
func runGrantPicker(manifestPath string) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	store, err := grantStore()
	if err != nil {
		return err
	}
	remembered, err := store.Load()
	if err != nil {
		return err
	}

	// Offer only what is not already remembered.
	candidates := make([]domain.Descriptor, 0, len(manifest.Permissions))
	for _, d := range manifest.Permissions {
		already := false
		for _, existing := range remembered {
			if existing.Equals(d) {
				already = true
				break
			}
		}
		if !already {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) == 0 {
		fmt.Println("All manifest permissions are already granted.")
		return nil
	}

	options := make([]huh.Option[int], len(candidates))
	for i, d := range candidates {
		options[i] = huh.NewOption(d.String(), i)
	}

	var selected []int
	err = huh.NewMultiSelect[int]().
		Title(fmt.Sprintf("Grant permissions for %s", manifest.Name)).
		Options(options...).
		Value(&selected).
		Run()
	if err != nil {
		return err
	}

	if len(selected) == 0 {
		fmt.Println("Nothing selected, no grants saved.")
		return nil
	}

	for _, i := range selected {
		remembered = append(remembered, candidates[i])
	}
	if err := store.Save(remembered); err != nil {
		return err
	}
	fmt.Printf("Saved %d grant(s) to %s\n", len(selected), store.ConfigPath())
	return nil
}
