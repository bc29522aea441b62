// Package repl implements an interactive scratchpad: each line is
// either a scalar assignment ("name = expr") or a bare expression to
// compile and evaluate once against whatever scalars earlier lines
// have defined, the same read-eval-print loop shape as the teacher's
// own REPL but against numexpr's compile/evaluate pair instead of a
// bytecode VM.
package repl

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"numexpr"
)

// Start runs the loop against stdin/stdout until "exit" or EOF.
func Start() {
	fmt.Println("numexpr REPL | type 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)

	scalars := map[string]float64{}

	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		name, expr, isAssign := splitAssign(line)
		v, err := evalOne(expr, scalars)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if isAssign {
			scalars[name] = v
			fmt.Printf("%s = %v\n", name, v)
		} else {
			fmt.Println(v)
		}
	}
}

// splitAssign recognizes "name = expr"; bare expressions return
// isAssign false and expr equal to line unchanged.
func splitAssign(line string) (name, expr string, isAssign bool) {
	eq := strings.Index(line, "=")
	if eq <= 0 {
		return "", line, false
	}
	lhs := strings.TrimSpace(line[:eq])
	if !isIdent(lhs) {
		return "", line, false
	}
	return lhs, strings.TrimSpace(line[eq+1:]), true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// evalOne compiles expr against the current scalar table (every
// defined name becomes a one-element Float64 variable) and returns
// the single result.
func evalOne(expr string, scalars map[string]float64) (float64, error) {
	vars := make([]numexpr.VarDesc, 0, len(scalars))
	arrays := make([]numexpr.Array, 0, len(scalars))
	for name, v := range scalars {
		vars = append(vars, numexpr.VarDesc{Name: name, Declared: numexpr.Float64})
		arrays = append(arrays, numexpr.NewFloat64Array([]float64{v}))
	}

	e, err := numexpr.Compile(expr, vars, numexpr.Float64)
	if err != nil {
		return 0, err
	}
	out := make(numexpr.Float64Output, 1)
	if err := numexpr.Evaluate(e, arrays, 1, out, numexpr.Params{}); err != nil {
		return 0, err
	}
	return out[0], nil
}
