// Package rule compiles per-mapping transformation rules into invocable
// Starlark units and executes them against row data. Starlark's hermetic
// environment is the isolation boundary: a rule sees exactly one value, the
// row dict, and can only produce a return value. No filesystem, network or
// host access is predeclared.
package rule

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// ruleFuncName is the synthetic function every rule body is wrapped into.
const ruleFuncName = "_rule"

// maxExecutionSteps bounds a single invocation so a runaway loop in a rule
// cannot stall the batch.
const maxExecutionSteps = 1 << 20

// CompileError reports a syntax error in a rule body. A mapping whose rule
// fails to compile degrades to a direct field copy for the rest of the run.
type CompileError struct {
	Detail string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("rule compile failed: %s", e.Detail)
}

// Unit is a compiled, reusable transformation rule. A Unit is immutable and
// safe for concurrent invocation; each Invoke runs on a fresh thread.
type Unit struct {
	fn  *starlark.Function
	src string
}

// Compile wraps the given function body into a Starlark function taking the
// single parameter "row" and compiles it. The body must produce the target
// value with an explicit return; a body without one yields None, which
// Invoke coerces to the empty string.
func Compile(code string) (*Unit, error) {
	src := wrapBody(code)

	thread := &starlark.Thread{
		Name:  "rule-compile",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	globals, err := starlark.ExecFile(thread, "rule.star", src, predeclared())
	if err != nil {
		return nil, &CompileError{Detail: err.Error()}
	}

	fn, ok := globals[ruleFuncName].(*starlark.Function)
	if !ok {
		return nil, &CompileError{Detail: "rule body did not produce a function"}
	}
	return &Unit{fn: fn, src: code}, nil
}

// Source returns the original rule body the unit was compiled from.
func (u *Unit) Source() string { return u.src }

// Invoke executes the unit with the row's named values bound as the "row"
// parameter. None results are coerced to the empty string. Runtime failures
// are returned as errors for the caller to convert into a per-cell sentinel;
// they never carry partial output.
func (u *Unit) Invoke(row map[string]string) (any, error) {
	dict := starlark.NewDict(len(row))
	for k, v := range row {
		_ = dict.SetKey(starlark.String(k), starlark.String(v))
	}

	thread := &starlark.Thread{
		Name:  "rule-invoke",
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(maxExecutionSteps)

	out, err := starlark.Call(thread, u.fn, starlark.Tuple{dict}, nil)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, fmt.Errorf("%s", evalErr.Msg)
		}
		return nil, err
	}
	return toGo(out), nil
}

// wrapBody indents the rule body into a single-parameter function definition.
func wrapBody(code string) string {
	var b strings.Builder
	b.WriteString("def ")
	b.WriteString(ruleFuncName)
	b.WriteString("(row):\n")

	lines := strings.Split(code, "\n")
	empty := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		empty = false
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if empty {
		b.WriteString("    return None\n")
	}
	return b.String()
}

// toGo converts a Starlark result into the value stored in the output row.
// None becomes the empty string so an unmatched branch in a rule leaves a
// blank cell rather than a literal "None".
func toGo(v starlark.Value) any {
	switch val := v.(type) {
	case starlark.NoneType:
		return ""
	case starlark.String:
		return string(val)
	case starlark.Bool:
		return bool(val)
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i
		}
		return val.String()
	case starlark.Float:
		return float64(val)
	default:
		return val.String()
	}
}
