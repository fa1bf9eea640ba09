package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cobra"

	"github.com/veilbox-dev/veilbox/internal/config"
	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
	"github.com/veilbox-dev/veilbox/internal/infrastructure/audit"
	"github.com/veilbox-dev/veilbox/internal/permissions"
)

var (
	filterExpr   string
	requestMode  bool
	failOnDenied bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <manifest.yaml>",
	Short: "Resolve a workload's declared permissions against the policy",
	Long: `Load a workload manifest and resolve every declared permission against
the configured policy, printing the resulting state per capability.

With --request, permissions the policy leaves at "prompt" are escalated
interactively, one at a time.

Filtering:
  --filter "state == 'denied'"             Only show denied capabilities
  --filter "kind == 'net'"                 Only show network capabilities
  --filter "kind == 'read' and state != 'granted'"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheckAction(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&filterExpr, "filter", "", "Filter expression over {kind, scope, state}")
	checkCmd.Flags().BoolVar(&requestMode, "request", false, "Interactively escalate permissions left at prompt")
	checkCmd.Flags().BoolVar(&failOnDenied, "fail-on-denied", false, "Exit non-zero if any permission resolves to denied")
}

// runCheckAction implements the core logic for the check command
func runCheckAction(ctx context.Context, manifestPath string) error {
	slog.Info("loading manifest", "path", manifestPath)

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	slog.Info("manifest loaded", "name", manifest.Name, "permissions", len(manifest.Permissions))

	filter, err := compileFilter(filterExpr)
	if err != nil {
		return err
	}

	service, _, err := buildService(requestMode)
	if err != nil {
		return err
	}

	// Warm the cache in parallel, then attach the audit recorder so any
	// escalation below is traceable.
	if err := service.Preload(ctx, manifest.Permissions); err != nil {
		return err
	}

	recorder := audit.NewRecorder(0)
	statuses := make([]*permissions.Status, 0, len(manifest.Permissions))
	for _, d := range manifest.Permissions {
		status, err := service.Query(ctx, d)
		if err != nil {
			return err
		}
		recorder.Attach(status)
		statuses = append(statuses, status)
	}

	if requestMode {
		// Prompting is sequential on purpose: one question at a time.
		for i, d := range manifest.Permissions {
			if statuses[i].State() != domain.StatePrompt {
				continue
			}
			if _, err := service.Request(ctx, d); err != nil {
				return err
			}
		}
	}

	denied, err := printStatuses(manifest, statuses, filter)
	if err != nil {
		return err
	}

	if transitions := recorder.Entries(); len(transitions) > 0 {
		slog.Info("permission states changed during this run", "transitions", len(transitions))
	}

	if failOnDenied && denied > 0 {
		return fmt.Errorf("%d of %d permissions denied", denied, len(manifest.Permissions))
	}
	return nil
}

// printStatuses renders the resolution table and returns the denied count.
func printStatuses(manifest *config.Manifest, statuses []*permissions.Status, filter *vm.Program) (int, error) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSCOPE\tSTATE")

	denied := 0
	for i, status := range statuses {
		d := manifest.Permissions[i]
		state := status.State()
		if state == domain.StateDenied {
			denied++
		}

		if filter != nil {
			keep, err := runFilter(filter, d, state)
			if err != nil {
				return 0, err
			}
			if !keep {
				continue
			}
		}

		scope := d.Scope()
		if scope == "" {
			scope = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Kind, scope, state)
	}

	return denied, w.Flush()
}

// compileFilter compiles the --filter expression, if any.
func compileFilter(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := expr.Compile(expression, expr.Env(filterEnv(domain.Descriptor{}, "")), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid --filter expression: %w", err)
	}
	return program, nil
}

func runFilter(program *vm.Program, d domain.Descriptor, state domain.State) (bool, error) {
	result, err := expr.Run(program, filterEnv(d, state))
	if err != nil {
		return false, fmt.Errorf("--filter evaluation failed: %w", err)
	}
	keep, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("--filter expression must return a boolean")
	}
	return keep, nil
}

func filterEnv(d domain.Descriptor, state domain.State) map[string]interface{} {
	return map[string]interface{}{
		"kind":  string(d.Kind),
		"scope": d.Scope(),
		"state": string(state),
	}
}
