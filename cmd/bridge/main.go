package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/typebridge/adapter"
	"github.com/wippyai/typebridge/erased"
	"github.com/wippyai/typebridge/wasmhost"
)

var version = "0.1.0"

// argList collects repeated -arg flags.
type argList []string

func (a *argList) String() string { return strings.Join(*a, ",") }

func (a *argList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

func main() {
	var (
		args        argList
		configFile  = flag.String("config", "", "Config file (.yaml, .yml or .toml)")
		funcName    = flag.String("func", "", "Function to call")
		list        = flag.Bool("list", false, "List functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Var(&args, "arg", "Argument to pass (repeatable; #N refers to a handle)")
	flag.Parse()

	if err := run(*configFile, *funcName, args, *list, *interactive, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, funcName string, args []string, listOnly, interactive, verbose bool) error {
	cfg := &Config{}
	if configFile != "" {
		var err error
		if cfg, err = LoadConfig(configFile); err != nil {
			return err
		}
	}

	log, err := cfg.Log.NewLogger(verbose)
	if err != nil {
		return err
	}
	defer log.Sync()
	erased.SetLogger(log.Named("erased"))
	adapter.SetLogger(log.Named("adapter"))
	wasmhost.SetLogger(log.Named("wasmhost"))

	m, err := newDemoModule()
	if err != nil {
		return fmt.Errorf("build module: %w", err)
	}
	s, err := newSession(m, log)
	if err != nil {
		return err
	}
	defer s.close()

	if interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode requires a terminal")
		}
		return runInteractive(s)
	}

	if listOnly || (funcName == "" && len(cfg.Calls) == 0) {
		fmt.Printf("Module: %s\n\nFunctions:\n", m.Name())
		for _, sig := range s.signatures() {
			fmt.Printf("  %s\n", sig)
		}
		return nil
	}

	ctx := context.Background()
	calls := cfg.Calls
	if funcName != "" {
		calls = append(calls, CallSpec{Func: funcName, Args: args})
	}
	log.Info("running calls", zap.Int("count", len(calls)), zap.String("version", version))
	for _, c := range calls {
		out, err := s.call(ctx, c.Func, c.Args)
		if err != nil {
			log.Error("call failed", zap.String("func", c.Func), zap.Strings("args", c.Args), zap.Error(err))
			return fmt.Errorf("call %s: %w", c.Func, err)
		}
		fmt.Printf("%s(%s) = %s\n", c.Func, strings.Join(c.Args, ", "), out)
	}
	return nil
}
