// Command mini runs a single agent task from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	minisweagent "github.com/SWE-agent/mini-swe-agent"
	"github.com/SWE-agent/mini-swe-agent/agent"
	"github.com/SWE-agent/mini-swe-agent/config"
	"github.com/SWE-agent/mini-swe-agent/logging"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

type runFlags struct {
	task       string
	configPath string
	provider   string
	modelName  string
	output     string
	agentsDir  string
	cwd        string
	stepLimit  int
	costLimit  float64
	yolo       bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "mini",
		Short: "Run an autonomous shell-command agent on a task",
		Long: "mini drives a language model through a command loop: the model proposes\n" +
			"shell commands, mini executes them and feeds the output back, until the\n" +
			"task is submitted or a limit is hit. The finished run is saved as a\n" +
			"trajectory file.",
		Version:       minisweagent.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.task, "task", "t", "", "task description (required)")
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "", "model provider (anthropic, openai)")
	cmd.Flags().StringVarP(&flags.modelName, "model", "m", "", "model name")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "trajectory.json", "trajectory output path")
	cmd.Flags().StringVar(&flags.agentsDir, "agents-dir", "", "subagent descriptor directory")
	cmd.Flags().StringVarP(&flags.cwd, "cwd", "w", "", "working directory for commands")
	cmd.Flags().IntVar(&flags.stepLimit, "step-limit", 0, "step ceiling (0 = config default)")
	cmd.Flags().Float64Var(&flags.costLimit, "cost-limit", 0, "cost ceiling in USD (0 = config default)")
	cmd.Flags().BoolVarP(&flags.yolo, "yolo", "y", false, "execute commands without confirmation")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

func run(ctx context.Context, flags runFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flags)

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level})

	approver := newTerminalApprover(os.Stdin, os.Stdout)
	a, err := minisweagent.NewAgent(cfg, func(o *minisweagent.Options) {
		o.Logger = logger
		o.Approver = approver
	})
	if err != nil {
		return err
	}
	approver.agent = a

	// Ctrl-C cancels the run; the agent observes it at the next step
	// boundary and records a UserInterruption.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(headerStyle.Render("mini-swe-agent ") + dimStyle.Render("v"+minisweagent.Version))
	fmt.Println(dimStyle.Render("task: ") + flags.task)

	res, err := a.Run(ctx, flags.task)
	if err != nil {
		return err
	}

	if saveErr := minisweagent.SaveTrajectory(flags.output, a, res); saveErr != nil {
		return saveErr
	}

	style := okStyle
	if res.ExitStatus != string(agent.Submitted) {
		style = failStyle
	}
	fmt.Println()
	fmt.Println(style.Render(res.ExitStatus) +
		dimStyle.Render(fmt.Sprintf(" (%d steps, $%.2f)", res.Steps, res.Cost)))
	if res.Submission != "" {
		fmt.Println(res.Submission)
	}
	fmt.Println(dimStyle.Render("trajectory saved to " + flags.output))
	return nil
}

func applyFlags(cfg *config.Config, flags runFlags) {
	if flags.provider != "" {
		cfg.Model.Provider = flags.provider
	}
	if flags.modelName != "" {
		cfg.Model.Name = flags.modelName
	}
	if flags.agentsDir != "" {
		cfg.AgentsDir = flags.agentsDir
	}
	if flags.cwd != "" {
		cfg.Environment.Cwd = flags.cwd
	}
	if flags.stepLimit > 0 {
		cfg.Agent.StepLimit = flags.stepLimit
	}
	if flags.costLimit > 0 {
		cfg.Agent.CostLimit = flags.costLimit
	}
	if flags.yolo {
		cfg.Agent.Mode = agent.ModeYolo
	}
}
