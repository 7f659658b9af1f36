// Package cli provides the command-line interface for vmlaunch.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javanstorm/vmlaunch/internal/agent"
	"github.com/javanstorm/vmlaunch/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "vmlaunch",
	Short: "Run tart VMs as launchd background agents",
	Long: `vmlaunch installs each tart VM as a per-user launchd agent so it runs
headless in the background and is restarted if it crashes.

Every VM gets one unit in ~/Library/LaunchAgents and a stdout/stderr log
pair in ~/Library/Logs/vmlaunch. The agent's state (launchd) and the VM's
state (tart) are queried separately and reported side by side by "list".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          rootArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if err := loadConfig(); err != nil {
			return configError(err)
		}
		return setupLogging(cmd.ErrOrStderr(), logLevel, config.Global)
	},
}

// loadConfig populates config.Global.
var loadConfig = config.Load

var logLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default from config, warn)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(uninstallCmd)
}

// Execute runs the root command with the process arguments and returns the
// exit status.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %s\n", singleLine(err.Error()))
	return ExitCode(err)
}

func rootArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// nameArg accepts exactly one non-empty VM name.
func nameArg(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 1:
		if args[0] == "" {
			return &agent.Error{Kind: agent.KindValidation, Op: cmd.Name(), Err: agent.ErrEmptyName}
		}
		return nil
	case 0:
		return usageErrorf("%s requires a VM name", cmd.CommandPath())
	default:
		return usageErrorf("%s accepts one VM name, got %d arguments", cmd.CommandPath(), len(args))
	}
}

// setupLogging routes logrus to out at the --log-level flag's level, or
// the configured one when the flag is unset.
func setupLogging(out io.Writer, flagLevel string, cfg *config.Config) error {
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	var (
		level logrus.Level
		err   error
	)
	if flagLevel != "" {
		level, err = logrus.ParseLevel(flagLevel)
		if err != nil {
			return usageErrorf("invalid --log-level %q: %v", flagLevel, err)
		}
	} else if level, err = cfg.Level(); err != nil {
		return configError(err)
	}
	logrus.SetLevel(level)
	return nil
}

func singleLine(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}
