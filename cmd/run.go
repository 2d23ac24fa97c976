// -- cmd/run.go --
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/observability"
)

var (
	runDryRun bool
	runYes    bool
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Generate and execute a task from the command line.",
	Long: `Generates an instruction plan for the given natural-language task,
prints it for review, and executes it after confirmation. Use --yes to skip
the confirmation and --dry-run to only print the plan.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := observability.GetLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := buildRuntime(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Processes.Teardown()

		task := strings.Join(args, " ")
		seq, err := rt.Generator.Generate(ctx, task)
		if err != nil {
			return fmt.Errorf("could not generate instructions for %q: %w", task, err)
		}

		fmt.Printf("Plan for %q (%d steps):\n", task, len(seq))
		for i, inst := range seq {
			fmt.Printf("  %d. %s %v\n", i+1, inst.Action, inst.Params)
		}

		if runDryRun {
			return nil
		}

		if !runYes && !cfg.Executor.AutoExecute {
			if !confirm("Execute this plan?") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		sessionID := uuid.New().String()
		rt.Store.Create(sessionID)
		runErr := rt.Executor.Run(ctx, sessionID, seq)

		logs, _, err := rt.Store.Snapshot(sessionID)
		if err == nil {
			for _, entry := range logs {
				fmt.Printf("[%s] %s\n", entry.Timestamp, entry.Message)
			}
		}

		// One-shot mode has no later close-browser call, so release here.
		if rt.Store.HasBrowser(sessionID) {
			_ = rt.Store.ReleaseBrowser(sessionID)
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the plan without executing")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the confirmation prompt")
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
