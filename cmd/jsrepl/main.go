// jsrepl is an interactive evaluator for remote JavaScript runtimes. It
// attaches to a running engine's inspector endpoint over a websocket,
// evaluates fragments there, and renders the resulting remote values.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jsrepl/cmd/jsrepl/repl"
	"jsrepl/internal/config"
	"jsrepl/internal/eval"
	"jsrepl/internal/history"
	"jsrepl/internal/inspector"
	"jsrepl/internal/launch"
)

const issueTracker = "https://github.com/jsrepl/jsrepl/issues"

var (
	flagURL     string
	flagLaunch  bool
	flagEval    string
	flagPrint   bool
	flagWatch   bool
	flagNoColor bool
	flagConfig  string
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jsrepl [script.js]",
	Short: "jsrepl - evaluate JavaScript in a live remote runtime",
	Long: `jsrepl attaches to a running JavaScript engine through its inspector
protocol and evaluates your input there. Values stay in the remote runtime;
jsrepl addresses them by handle and renders them remotely.

Run without arguments for an interactive prompt, pass a script file or -e
for single-shot evaluation, or add --watch to re-evaluate a script whenever
it changes.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		logger, err = cfg.BuildLogger(verbose)
		return err
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "inspector endpoint (ws:// or http:// debug port)")
	rootCmd.Flags().BoolVar(&flagLaunch, "launch", false, "spawn a local headless target to evaluate against")
	rootCmd.Flags().StringVarP(&flagEval, "eval", "e", "", "evaluate the given source and exit")
	rootCmd.Flags().BoolVarP(&flagPrint, "print", "p", false, "print the rendered result in single-shot mode")
	rootCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-evaluate the script file whenever it changes")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagURL != "" {
		cfg.Endpoint.URL = flagURL
	}
	if flagLaunch {
		cfg.Endpoint.Launch = true
	}
	if flagNoColor {
		cfg.Display.Colors = "never"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint := cfg.Endpoint.URL
	if endpoint == "" && cfg.Endpoint.Launch {
		controlURL, kill, err := launch.Spawn(ctx)
		if err != nil {
			return err
		}
		defer kill()
		endpoint = controlURL
		logger.Info("spawned local target", zap.String("control_url", controlURL))
	}
	if endpoint == "" {
		return errors.New("no endpoint: pass --url, set endpoint.url in the config, or use --launch")
	}

	wsURL, err := launch.Resolve(ctx, endpoint)
	if err != nil {
		return err
	}
	logger.Info("connecting", zap.String("url", wsURL))

	conn, err := inspector.Dial(ctx, wsURL, logger)
	if err != nil {
		return err
	}
	client := inspector.NewClient(conn, logger)
	defer client.Close()

	session := eval.NewSession(cfg.DisplayOptions())
	engine := eval.New(client, session, logger)
	if err := engine.Enable(ctx); err != nil {
		return err
	}
	pipe := eval.Passthrough()

	switch {
	case flagEval != "":
		return evalOnce(ctx, engine, pipe, flagEval)
	case len(args) == 1 && flagWatch:
		return watchScript(ctx, engine, pipe, args[0])
	case len(args) == 1:
		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return evalOnce(ctx, engine, pipe, string(source))
	default:
		hist := history.Open(cfg.History.Path, cfg.History.Limit)
		return repl.Run(engine, pipe, hist, wsURL, logger)
	}
}

func main() {
	defer func() {
		// An unexpected error anywhere in the evaluation path must crash
		// loudly rather than hang silently.
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "jsrepl: unexpected internal error: %v\n", r)
			fmt.Fprintf(os.Stderr, "please report this at %s\n", issueTracker)
			os.Exit(70)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			// Already reported; just carry the code.
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "jsrepl:", err)
		os.Exit(1)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}
