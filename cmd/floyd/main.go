package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/funvibe/floyd/internal/config"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/typesystem"
	"github.com/funvibe/floyd/pkg/floyd"
)

const bytecodeExt = ".fbc"

// invocation is the parsed command line.
type invocation struct {
	command string
	path    string
	args    []string
	// source is the program text the tree was parsed from, used to turn
	// offsets into line and column numbers.
	source string
	output string
	disasm bool
	debug  bool
}

func parseArgs(argv []string) (*invocation, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("missing command")
	}
	inv := &invocation{command: argv[0]}
	switch inv.command {
	case "help", "-help", "--help":
		inv.command = "help"
		return inv, nil
	}
	rest := argv[1:]
	for len(rest) > 0 {
		arg := rest[0]
		if inv.path != "" && inv.command != "compile" {
			// Everything after the program belongs to the program.
			inv.args = append(inv.args, rest...)
			break
		}
		rest = rest[1:]
		switch arg {
		case "-debug", "--debug":
			inv.debug = true
		case "-disasm", "--disasm":
			inv.disasm = true
		case "-o", "-source", "--source":
			if len(rest) == 0 {
				return nil, fmt.Errorf("%s needs a value", arg)
			}
			if arg == "-o" {
				inv.output = rest[0]
			} else {
				inv.source = rest[0]
			}
			rest = rest[1:]
		default:
			if strings.HasPrefix(arg, "-") && inv.path == "" {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			if inv.path != "" {
				return nil, fmt.Errorf("unexpected argument %s", arg)
			}
			inv.path = arg
		}
	}
	if inv.path == "" {
		return nil, fmt.Errorf("%s: missing input file", inv.command)
	}
	return inv, nil
}

// outputPath is where compile writes the program for input.
func outputPath(input string) string {
	return strings.TrimSuffix(input, config.SourceFileExt) + bytecodeExt
}

func loadConfig(path string) (*config.Config, error) {
	found, err := config.FindConfig(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if found == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(found)
}

func newLogger(cfg *config.Config, debug bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isatty.IsTerminal(os.Stderr.Fd())}
	level := cfg.LogLevel()
	if debug {
		level = zerolog.DebugLevel
	}
	if cfg.Trace.Instructions {
		level = zerolog.TraceLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func usage() {
	fmt.Println(`Usage: floyd <command> [flags] <file> [args...]

Commands:
  run      <file.ast.json> [args...]   analyze, compile and run a syntax tree
  exec     <file.fbc> [args...]        run a compiled program
  compile  <file.ast.json>             write a compiled program (.fbc)
  resolve  <file.ast.json>             print the resolved tree as JSON
  help                                 show this message

Flags:
  -o <path>        compile output path
  -disasm          compile: print the instruction listing
  -source <path>   program text for line/column positions in errors
  -debug           log pipeline stages`)
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	inv, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		usage()
		os.Exit(2)
	}
	if inv.command == "help" {
		usage()
		return
	}

	cfg, err := loadConfig(inv.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := floyd.Options{
		Config:   cfg,
		Logger:   newLogger(cfg, inv.debug),
		FilePath: inv.path,
		Output:   os.Stdout,
	}

	var code int
	switch inv.command {
	case "run":
		code = handleRun(ctx, inv, opts)
	case "exec":
		code = handleExec(ctx, inv, opts)
	case "compile":
		code = handleCompile(ctx, inv, opts)
	case "resolve":
		code = handleResolve(ctx, inv, opts)
	default:
		fmt.Fprintf(os.Stderr, "floyd: unknown command %s\n", inv.command)
		usage()
		code = 2
	}
	stop()
	os.Exit(code)
}

// report prints err with positions taken from the -source file when given.
func report(inv *invocation, err error) {
	var src []byte
	if inv.source != "" {
		src, _ = os.ReadFile(inv.source)
	}
	diagnostics.NewPrinter(os.Stderr, inv.path, src).Print(err)
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func handleRun(ctx context.Context, inv *invocation, opts floyd.Options) int {
	src, err := readInput(inv.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		return 1
	}
	p, err := floyd.Compile(ctx, src, opts)
	if err != nil {
		report(inv, err)
		return 1
	}
	return finish(ctx, inv, p, opts)
}

func handleExec(ctx context.Context, inv *invocation, opts floyd.Options) int {
	data, err := readInput(inv.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		return 1
	}
	p, err := floyd.Load(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s: %s\n", inv.path, err)
		return 1
	}
	return finish(ctx, inv, p, opts)
}

// finish runs p and turns its exit value into a process exit code: an int
// result is the code, any other result is printed.
func finish(ctx context.Context, inv *invocation, p *floyd.Program, opts floyd.Options) int {
	res, err := p.Run(ctx, inv.args, opts)
	if err != nil {
		report(inv, err)
		return 1
	}
	if res.Exit.Kind() == typesystem.KindInt {
		return int(res.Exit.AsInt())
	}
	if s := res.ExitString(); s != "" {
		fmt.Println(s)
	}
	return 0
}

func handleCompile(ctx context.Context, inv *invocation, opts floyd.Options) int {
	src, err := readInput(inv.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		return 1
	}
	p, err := floyd.Compile(ctx, src, opts)
	if err != nil {
		report(inv, err)
		return 1
	}
	if inv.disasm {
		fmt.Print(p.Disassemble())
	}

	data, err := p.Serialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Serialization error: %s\n", err)
		return 1
	}
	out := inv.output
	if out == "" {
		out = outputPath(inv.path)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing program file: %s\n", err)
		return 1
	}
	opts.Logger.Info().Str("program", p.ID()).Int("bytes", len(data)).Msgf("compiled %s -> %s", inv.path, out)
	return 0
}

func handleResolve(ctx context.Context, inv *invocation, opts floyd.Options) int {
	src, err := readInput(inv.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "floyd: %s\n", err)
		return 1
	}
	data, err := floyd.Resolve(ctx, src, opts)
	if err != nil {
		report(inv, err)
		return 1
	}
	os.Stdout.Write(data)
	fmt.Println()
	return 0
}
