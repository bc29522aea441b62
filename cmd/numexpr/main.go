// cmd/numexpr/main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/text"
	"github.com/mattn/go-isatty"

	"numexpr"
	"numexpr/internal/repl"
)

const version = "0.1.0"

var buildDate = "unknown"

// commandAliases mirrors a short letter per subcommand, resolved
// before dispatch the same way a one-letter alias map shortens a
// larger CLI's everyday commands.
var commandAliases = map[string]string{
	"c": "compile",
	"e": "eval",
	"b": "bench",
	"i": "repl",
	"x": "explain",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		if len(args) > 1 {
			showCommandHelp(args[1])
		} else {
			showUsage()
		}
		return
	case "--version", "-v", "version":
		showVersion()
		return
	case "completion":
		if len(args) < 2 {
			fmt.Println("Usage: numexpr completion <bash|zsh|fish>")
			os.Exit(1)
		}
		generateCompletion(args[1])
		return
	case "repl":
		repl.Start()
		return
	case "compile":
		compileCommand(args[1:])
		return
	case "eval":
		evalCommand(args[1:])
		return
	case "bench":
		benchCommand(args[1:])
		return
	case "explain":
		explainCommand(args[1:])
		return
	case "serve":
		serveCommand(args[1:])
		return
	case "cache":
		cacheCommand(args[1:])
		return
	}

	suggestCommand(cmd)
}

func showUsage() {
	fmt.Println("numexpr - numerical expression compile-and-evaluate engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  numexpr compile <expr>              Check that <expr> compiles        (alias: c)")
	fmt.Println("  numexpr eval <expr> [name=v ...]     Compile and evaluate once         (alias: e)")
	fmt.Println("  numexpr bench <expr> [name=v ...]    Time repeated evaluation          (alias: b)")
	fmt.Println("  numexpr repl                         Start interactive scratchpad      (alias: i)")
	fmt.Println("  numexpr explain <expr>               Print the parsed AST              (alias: x)")
	fmt.Println("  numexpr serve [addr]                 Serve a live diagnostics websocket")
	fmt.Println("  numexpr cache prune [days]           Evict stale entries from the JIT cache")
	fmt.Println()
	fmt.Println("Shell Integration:")
	fmt.Println("  numexpr completion bash|zsh|fish     Generate shell completion")
	fmt.Println()
	fmt.Println("Help:")
	fmt.Println("  numexpr help <command>               Show detailed help for a command")
	fmt.Println("  numexpr --version                    Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  numexpr eval \"2*a + b\" a=3 b=4")
	fmt.Println("  numexpr bench \"sqrt(a*a+b*b)\" a=3 b=4")
}

func showVersion() {
	fmt.Printf("numexpr v%s\n", version)
	fmt.Printf("Build Date: %s\n", buildDate)
	fmt.Printf("Engine:     %s\n", numexpr.Version())
}

// parseAssignments turns "name=value" CLI operands into a variable
// table of float64 scalars, in argument order.
func parseAssignments(args []string) ([]numexpr.VarDesc, []numexpr.Array, error) {
	vars := make([]numexpr.VarDesc, 0, len(args))
	arrays := make([]numexpr.Array, 0, len(args))
	for _, arg := range args {
		eq := strings.Index(arg, "=")
		if eq <= 0 {
			return nil, nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		name := arg[:eq]
		val, err := strconv.ParseFloat(arg[eq+1:], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %v", arg, err)
		}
		vars = append(vars, numexpr.VarDesc{Name: name, Declared: numexpr.Float64})
		arrays = append(arrays, numexpr.NewFloat64Array([]float64{val}))
	}
	return vars, arrays, nil
}

func compileCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: numexpr compile <expr> [name=value ...]")
		os.Exit(1)
	}
	vars, _, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := numexpr.Compile(args[0], vars, numexpr.Auto); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func evalCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: numexpr eval <expr> [name=value ...]")
		os.Exit(1)
	}
	vars, arrays, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	e, err := numexpr.Compile(args[0], vars, numexpr.Float64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out := make(numexpr.Float64Output, 1)
	if err := numexpr.Evaluate(e, arrays, 1, out, numexpr.Params{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out[0])
}

func benchCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: numexpr bench <expr> [name=value ...]")
		os.Exit(1)
	}
	vars, arrays, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	e, err := numexpr.Compile(args[0], vars, numexpr.Float64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out := make(numexpr.Float64Output, 1)

	const iterations = 200_000
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := numexpr.Evaluate(e, arrays, 1, out, numexpr.Params{}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)
	perOp := elapsed / iterations
	fmt.Printf("%s evaluations in %s (%s/op)\n", humanize.Comma(iterations), elapsed, perOp)
}

// explainCommand compiles the expression and prints a one-line-per-node
// summary of its AST, colorized when stdout is a terminal.
func explainCommand(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: numexpr explain <expr>")
		os.Exit(1)
	}
	vars, _, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	e, err := numexpr.Compile(args[0], vars, numexpr.Auto)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	color := isatty.IsTerminal(os.Stdout.Fd())
	fmt.Println(numexpr.Explain(e, color))
}

// serveCommand starts an HTTP server exposing a /diagnostics
// websocket endpoint: every diagnostic line this process logs (JIT
// fallbacks, compiled-kernel events, block-evaluate arena
// announcements) streams to every connected subscriber live.
func serveCommand(args []string) {
	addr := ":8080"
	if len(args) > 0 {
		addr = args[0]
	}
	http.HandleFunc("/diagnostics", numexpr.DiagnosticsHandler())
	fmt.Printf("numexpr: serving diagnostics websocket on %s/diagnostics\n", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cacheCommand manages the on-disk JIT kernel cache. The only
// subcommand today is "prune", which evicts entries unused for more
// than the given number of days (default 30).
func cacheCommand(args []string) {
	if len(args) < 1 || args[0] != "prune" {
		fmt.Fprintln(os.Stderr, "Usage: numexpr cache prune [days]")
		os.Exit(1)
	}
	days := 30
	if len(args) > 1 {
		d, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		days = d
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	evicted, err := numexpr.PruneCache(cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("pruned %s cached kernel(s) unused for more than %d day(s)\n", humanize.Comma(int64(len(evicted))), days)
}

func showCommandHelp(command string) {
	help := map[string]string{
		"compile": "numexpr compile <expr> [name=value ...]\n\nParses and type-checks <expr> without evaluating it.",
		"eval":    "numexpr eval <expr> [name=value ...]\n\nCompiles <expr> and evaluates it once against the given scalars.",
		"bench":   "numexpr bench <expr> [name=value ...]\n\nCompiles <expr> and times 200000 repeated evaluations.",
		"repl":    "numexpr repl\n\nStarts an interactive scratchpad: \"name = expr\" assigns, a bare\nexpression prints its value.",
		"explain": "numexpr explain <expr> [name=value ...]\n\nPrints the parsed AST, one line per node.",
		"serve":   "numexpr serve [addr]\n\nServes a /diagnostics websocket (default addr \":8080\") streaming\nthis process's JIT and block-evaluate diagnostic lines live.",
		"cache":   "numexpr cache prune [days]\n\nEvicts JIT cache entries unused for more than [days] days (default 30),\nremoving their on-disk shared objects.",
	}
	if body, ok := help[command]; ok {
		fmt.Println(text.Indent(body, "  "))
		return
	}
	fmt.Fprintf(os.Stderr, "No help available for %q\n", command)
	showUsage()
}

func suggestCommand(cmd string) {
	allCommands := []string{"compile", "eval", "bench", "repl", "explain", "serve", "cache", "help", "version", "completion"}

	fmt.Fprintf(os.Stderr, "Error: Unknown command %q\n", cmd)

	suggestions := findSimilarCommands(cmd, allCommands, 3)
	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr, "\nDid you mean one of these?")
		for _, s := range suggestions {
			alias := ""
			for a, full := range commandAliases {
				if full == s {
					alias = fmt.Sprintf(" (alias: %s)", a)
					break
				}
			}
			fmt.Fprintf(os.Stderr, "  numexpr %s%s\n", s, alias)
		}
	}
	fmt.Fprintln(os.Stderr, "\nRun 'numexpr help' to see all available commands")
	os.Exit(1)
}

func findSimilarCommands(input string, commands []string, maxDistance int) []string {
	var similar []string
	for _, c := range commands {
		if levenshteinDistance(input, c) <= maxDistance {
			similar = append(similar, c)
		}
	}
	return similar
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}
	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}
	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = minOf3(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(s1)][len(s2)]
}

func minOf3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func generateCompletion(shell string) {
	switch shell {
	case "bash":
		fmt.Println(bashCompletion)
	case "zsh":
		fmt.Println(zshCompletion)
	case "fish":
		fmt.Println(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s (want bash, zsh, or fish)\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `# Bash completion for numexpr
_numexpr_completion() {
    local cur prev
    cur="${COMP_WORDS[COMP_CWORD]}"
    commands="compile eval bench repl explain serve cache help version completion"
    COMPREPLY=($(compgen -W "$commands" -- "$cur"))
}
complete -F _numexpr_completion numexpr
`

const zshCompletion = `#compdef numexpr
_numexpr() {
    local -a commands
    commands=(
        'compile:Check that an expression compiles'
        'eval:Compile and evaluate an expression once'
        'bench:Time repeated evaluation of an expression'
        'repl:Start interactive scratchpad'
        'explain:Print the parsed AST'
        'serve:Serve a live diagnostics websocket'
        'cache:Manage the on-disk JIT cache'
        'help:Show help'
        'version:Show version information'
        'completion:Generate shell completion'
    )
    _describe 'command' commands
}
_numexpr
`

const fishCompletion = `# Fish completion for numexpr
complete -c numexpr -f -n "__fish_use_subcommand" -a "compile" -d "Check that an expression compiles"
complete -c numexpr -f -n "__fish_use_subcommand" -a "eval" -d "Compile and evaluate an expression once"
complete -c numexpr -f -n "__fish_use_subcommand" -a "bench" -d "Time repeated evaluation of an expression"
complete -c numexpr -f -n "__fish_use_subcommand" -a "repl" -d "Start interactive scratchpad"
complete -c numexpr -f -n "__fish_use_subcommand" -a "explain" -d "Print the parsed AST"
complete -c numexpr -f -n "__fish_use_subcommand" -a "serve" -d "Serve a live diagnostics websocket"
complete -c numexpr -f -n "__fish_use_subcommand" -a "cache" -d "Manage the on-disk JIT cache"
complete -c numexpr -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion"
`
