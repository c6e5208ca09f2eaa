// Package main is the command-line front end for the docview source
// pipeline. It resolves caller file references into canonical descriptors
// and watches local sources for changes, which is the part of the viewer
// lifecycle that is useful without a host view attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/docview/internal/config"
	"github.com/dshills/docview/internal/logging"
	"github.com/dshills/docview/internal/source"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	log := logging.New(logCfg)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 1
	}

	switch args[0] {
	case "resolve":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Error: resolve takes exactly one input")
			return 1
		}
		return runResolve(cfg, log, args[1])
	case "watch":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Error: watch takes exactly one file path")
			return 1
		}
		return runWatch(log, args[1])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		flag.Usage()
		return 1
	}
}

// runResolve canonicalizes one input and prints the resulting descriptor.
func runResolve(cfg config.Config, log *logging.Logger, input string) int {
	pipeline := source.NewPipeline(
		source.WithOrigin(cfg.Viewer.Origin),
		source.WithAdvisoryFunc(func(adv source.Advisory) {
			fmt.Printf("advisory: [%s] %s\n", adv.Code, adv.Message)
		}),
		source.WithLogger(log.WithComponent("source")),
	)

	desc, err := pipeline.Resolve(context.Background(), input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if desc == nil {
		fmt.Println("kind: none")
		return 0
	}

	switch desc.Kind() {
	case source.KindURL:
		fmt.Println("kind: url")
		fmt.Printf("url:  %s\n", desc.URL)
	case source.KindBytes:
		fmt.Println("kind: bytes")
		fmt.Printf("size: %d\n", len(desc.Data))
	case source.KindRange:
		fmt.Println("kind: range")
		fmt.Printf("size: %d\n", desc.Range.Length())
	}
	for k, v := range desc.Options {
		fmt.Printf("option %s: %v\n", k, v)
	}
	return 0
}

// runWatch prints a line for every settled change to a local source file
// until interrupted.
func runWatch(log *logging.Logger, path string) int {
	watcher, err := source.NewWatcher(path,
		func() { fmt.Printf("changed: %s\n", path) },
		source.WithWatcherLogger(log.WithComponent("watch")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer watcher.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("watching %s\n", path)
	<-signals
	return 0
}

type cliOptions struct {
	configPath string
	logLevel   string
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "docview - document source inspection\n\n")
		fmt.Fprintf(os.Stderr, "Usage: docview [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  resolve <input>   Canonicalize a file reference and print it\n")
		fmt.Fprintf(os.Stderr, "  watch <file>      Report changes to a local source file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  docview resolve https://example.com/doc.pdf\n")
		fmt.Fprintf(os.Stderr, "  docview resolve 'data:application/pdf;base64,JVBERi0x'\n")
		fmt.Fprintf(os.Stderr, "  docview -c docview.toml watch ./doc.pdf\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("docview %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}
