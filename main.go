package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"hotbind/config"
	"hotbind/doctor"
	"hotbind/hotkey"
	"hotbind/keybind"
	"hotbind/log"
	"hotbind/shutdown"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logPath    string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "hotbind",
		Short:         "Global hotkeys through the desktop portal or raw keyboard input",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Resolve log directory early
			logPath, err := log.ResolveDir(flags.logPath)
			if err != nil {
				return fmt.Errorf("failed to resolve log directory: %w", err)
			}
			log.SetDir(logPath)
			if err := log.EnsureDir(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
				return nil
			}
			setupCrashLog()
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/hotbind/config.toml)")
	pf.StringVar(&flags.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "mirror diagnostics to stderr")

	root.AddCommand(
		newRunCmd(flags),
		newWatchCmd(flags),
		newParseCmd(),
		newDoctorCmd(flags),
		newVersionCmd(),
	)
	return root
}

func setupCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Register the configured bindings and print each trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			out := cmd.OutOrStdout()
			a.onBackend = func(k hotkey.Kind) {
				fmt.Fprintf(out, "backend: %s\n", k)
			}
			a.onTrigger = func(t keybind.Trigger, shortcut string) {
				fmt.Fprintf(out, "%s\t%d\t%s\n", t.Kind, t.ID, shortcut)
			}
			return a.run(cmd.Context())
		},
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of bindings, held keys and tap/hold gestures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal() {
				return errors.New("watch needs a terminal, use run instead")
			}
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			return runWatch(cmd.Context(), a)
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <shortcut>...",
		Short: "Print the normalized form of shortcuts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, spec := range args {
				id, err := keybind.ParseStrict(spec)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", spec, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", spec, id)
			}
			if failed > 0 {
				return fmt.Errorf("%d shortcut(s) rejected", failed)
			}
			return nil
		},
	}
}

func newDoctorCmd(flags *rootFlags) *cobra.Command {
	var (
		selfTest bool
		shortcut string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run hotkey backend diagnostics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if err := initLogging(cfg, flags); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
			}
			defer log.Close()
			code := doctor.Run(doctor.Options{
				Engine:   cfg.Engine(hotkey.DetectEnvironment()),
				Shortcut: shortcut,
				SelfTest: selfTest,
				Timeout:  timeout,
				Out:      cmd.OutOrStdout(),
				Log:      log.Logger(),
			})
			if code != 0 {
				return errDoctorFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&selfTest, "self-test", false, "synthesize the test shortcut instead of waiting for a key press")
	cmd.Flags().StringVar(&shortcut, "shortcut", "ctrl+shift+k", "shortcut used for the detection check")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the shortcut")
	return cmd
}

var errDoctorFailed = errors.New("diagnostics failed")

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hotbind %s\n", version)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	m, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m.Get(), nil
}

func initLogging(cfg *config.Config, flags *rootFlags) error {
	opts := log.Options{Level: cfg.Log.Level}
	if flags.logLevel != "" {
		opts.Level = flags.logLevel
	}
	if flags.verbose || cfg.Log.Console {
		opts.Console = os.Stderr
	}
	return log.Init(opts)
}

func execute() {
	ctx, cancel := shutdown.Context(context.Background())
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !errors.Is(err, errDoctorFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
