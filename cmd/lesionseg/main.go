package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/app"
	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const logLevelEnv = "LESIONSEG_LOG_LEVEL"

type options struct {
	mode    string
	weights string
	image   string
	config  string
	output  string
	version bool
	help    bool
}

func parseFlags(args []string) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("lesionseg", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	for _, name := range []string{"m", "mode"} {
		fs.StringVar(&opts.mode, name, "", "mode: train, predict, investigate or serve")
	}
	for _, name := range []string{"w", "weights"} {
		fs.StringVar(&opts.weights, name, "", "weight file for predict (default: newest checkpoint)")
	}
	for _, name := range []string{"i", "image"} {
		fs.StringVar(&opts.image, name, "", "input image for predict")
	}
	for _, name := range []string{"c", "config"} {
		fs.StringVar(&opts.config, name, "", "YAML configuration file")
	}
	for _, name := range []string{"o", "output"} {
		fs.StringVar(&opts.output, name, "", "output file (predict) or directory (investigate)")
	}
	fs.BoolVar(&opts.version, "version", false, "print version information")
	fs.BoolVar(&opts.help, "help", false, "print this help message")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "lesionseg - skin lesion segmentation toolkit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: lesionseg -m <train|predict|investigate|serve> [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  -m, --mode       train, predict, investigate or serve")
	fmt.Fprintln(out, "  -w, --weights    Weight file for predict (default: newest checkpoint)")
	fmt.Fprintln(out, "  -i, --image      Input image for predict")
	fmt.Fprintln(out, "  -c, --config     YAML configuration file")
	fmt.Fprintln(out, "  -o, --output     Output file (predict) or panel directory (investigate)")
	fmt.Fprintln(out, "  --version        Print version information")
	fmt.Fprintln(out, "  --help           Print this help message")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables:")
	fmt.Fprintf(out, "  %s=debug    Override the configured log level\n", logLevelEnv)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "In serve mode the MCP protocol runs over stdin/stdout.")
}

// setupLogging sends logs to stderr, since stdout carries the MCP protocol
// in serve mode.
func setupLogging(level string) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if env := os.Getenv(logLevelEnv); env != "" {
		level = env
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return nil
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:])
	if err == flag.ErrHelp {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("lesionseg %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}
	if opts.help {
		fs.SetOutput(os.Stdout)
		usage(fs)
		return
	}

	cfg, err := config.Load(opts.config)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	log.WithFields(log.Fields{
		"version": Version,
		"commit":  GitCommit,
		"mode":    opts.mode,
	}).Debug("lesionseg starting")

	a, err := app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, opts); err != nil {
		log.WithError(err).WithField("mode", opts.mode).Fatal("run failed")
	}
}

func run(ctx context.Context, a *app.App, opts *options) error {
	switch opts.mode {
	case "train":
		res, err := a.Train(ctx)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"run_dir": res.RunDir,
			"epoch":   res.Epoch,
		}).Info("training finished")
		return nil

	case "predict":
		pred, err := a.Predict(ctx, opts.image, opts.weights, opts.output)
		if err != nil {
			return err
		}
		return printJSON(pred)

	case "investigate":
		report, err := a.Investigate(ctx, opts.output)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "serve":
		return server.New(a, Version).Run(ctx, os.Stdin, os.Stdout)

	case "":
		return fmt.Errorf("missing --mode; run with --help for usage")
	default:
		return fmt.Errorf("unknown mode %q; want train, predict, investigate or serve", opts.mode)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
