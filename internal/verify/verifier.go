// Package verify runs generated test cases against candidate Go source.
//
// Each Run evaluates the source in a fresh yaegi interpreter, locates the
// first exported top-level function, and calls it once per case. Faults in a
// single case (panics, returned errors, timeouts, bad arguments) are recorded
// on that case and never abort the batch.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"codesmith/internal/logging"
)

// NoCallableMessage is the diagnostic for source without an exported function.
const NoCallableMessage = "No callable function found in generated code"

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Options configures a Verifier.
type Options struct {
	// Per-case execution budget.
	CaseTimeout time.Duration

	// Importable packages; empty allows every stdlib package yaegi ships.
	AllowedImports []string
}

// Verifier executes candidate solutions against test cases.
type Verifier struct {
	caseTimeout time.Duration
	allowed     map[string]bool
}

// New creates a Verifier.
func New(opts Options) *Verifier {
	if opts.CaseTimeout <= 0 {
		opts.CaseTimeout = 5 * time.Second
	}
	allowed := make(map[string]bool, len(opts.AllowedImports))
	for _, pkg := range opts.AllowedImports {
		allowed[pkg] = true
	}
	return &Verifier{caseTimeout: opts.CaseTimeout, allowed: allowed}
}

// Run verifies code against tests. tests may be []TestCase, a TestCase, or
// JSON text/bytes. The returned report preserves case order. Batch-level
// failures yield a single diagnostic result.
func (v *Verifier) Run(ctx context.Context, code string, tests any) Report {
	timer := logging.StartTimer(logging.CategoryVerifier, "verify")
	defer timer.Stop()

	cases, err := toTestCases(tests)
	if err != nil {
		logging.VerifierWarn("invalid test cases: %v", err)
		return diagnostic(fmt.Sprintf("Code execution failed: invalid test cases: %v", err))
	}

	fn, prog, err := v.load(code)
	if err != nil {
		logging.VerifierWarn("load failed: %v", err)
		return diagnostic(fmt.Sprintf("Code execution failed: %v", err))
	}
	if !fn.IsValid() {
		return diagnostic(NoCallableMessage)
	}

	logging.Verifier("running %d cases against %s", len(cases), prog.entry)
	results := make([]TestResult, 0, len(cases))
	for i, tc := range cases {
		results = append(results, v.runCase(ctx, i, fn, prog, tc))
	}

	report := newReport(results)
	logging.Verifier("%d/%d cases passed", report.Passed, report.Total)
	return report
}

// load evaluates the program in a fresh interpreter and resolves the
// solution function. An invalid Value with nil error means no callable.
func (v *Verifier) load(code string) (reflect.Value, *program, error) {
	prog, err := prepare(code)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	if err := checkImports(prog.imports, v.allowed); err != nil {
		return reflect.Value{}, nil, err
	}

	i := interp.New(interp.Options{Stdout: io.Discard, Stderr: io.Discard})
	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(prog.source); err != nil {
		return reflect.Value{}, nil, fmt.Errorf("evaluation failed: %w", err)
	}

	if prog.entry == "" {
		return reflect.Value{}, prog, nil
	}
	fn, err := i.Eval("main." + prog.symbol)
	if err != nil {
		return reflect.Value{}, nil, fmt.Errorf("resolve %s: %w", prog.entry, err)
	}
	if fn.Kind() != reflect.Func {
		return reflect.Value{}, prog, nil
	}
	return fn, prog, nil
}

type callOutcome struct {
	value any
	err   error
}

func (v *Verifier) runCase(ctx context.Context, idx int, fn reflect.Value, prog *program, tc TestCase) TestResult {
	res := TestResult{TestID: idx, Input: tc.Input, Expected: tc.Expected}

	args, err := bindArgs(fn.Type(), prog.paramNames, tc.Input)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	caseCtx, cancel := context.WithTimeout(ctx, v.caseTimeout)
	defer cancel()

	done := make(chan callOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		val, err := call(fn, args)
		done <- callOutcome{value: val, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			res.Error = out.err.Error()
			return res
		}
		res.Actual = normalize(out.value)
		res.Passed = cmp.Equal(res.Actual, normalize(tc.Expected))
	case <-caseCtx.Done():
		// The goroutine cannot be stopped; it is abandoned.
		res.Error = fmt.Sprintf("execution timed out after %v", v.caseTimeout)
		if errors.Is(caseCtx.Err(), context.Canceled) {
			res.Error = "execution cancelled"
		}
	}
	return res
}

// call invokes fn. A trailing error result becomes the call error; the rest
// collapse to nil, a single value, or a slice.
func call(fn reflect.Value, args []reflect.Value) (any, error) {
	outs := fn.Call(args)
	t := fn.Type()
	if n := len(outs); n > 0 && t.Out(n-1) == errorType {
		if e := outs[n-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		outs = outs[:n-1]
	}
	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		return outs[0].Interface(), nil
	default:
		vals := make([]any, len(outs))
		for i, o := range outs {
			vals[i] = o.Interface()
		}
		return vals, nil
	}
}

// bindArgs turns a case input into call arguments. Arrays spread
// positionally, objects spread by parameter name, anything else is a single
// argument.
func bindArgs(t reflect.Type, names []string, input any) ([]reflect.Value, error) {
	switch in := input.(type) {
	case []any:
		args, err := bindPositional(t, in)
		if err != nil && singleSliceParam(t) {
			// [1,2,3] for func(nums []int)
			if whole, werr := bindPositional(t, []any{in}); werr == nil {
				return whole, nil
			}
		}
		return args, err
	case map[string]any:
		args, err := bindNamed(t, names, in)
		if err != nil && t.NumIn() == 1 && !t.IsVariadic() && len(names) == 1 {
			if _, named := in[names[0]]; !named {
				return bindPositional(t, []any{in})
			}
		}
		return args, err
	default:
		return bindPositional(t, []any{input})
	}
}

func singleSliceParam(t reflect.Type) bool {
	if t.NumIn() != 1 || t.IsVariadic() {
		return false
	}
	k := t.In(0).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func bindPositional(t reflect.Type, in []any) ([]reflect.Value, error) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(in) < n-1 {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", n-1, len(in))
		}
	} else if len(in) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(in))
	}

	args := make([]reflect.Value, len(in))
	for i, raw := range in {
		pt := paramType(t, i)
		val, err := convert(raw, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = val
	}
	return args, nil
}

func bindNamed(t reflect.Type, names []string, in map[string]any) ([]reflect.Value, error) {
	if t.IsVariadic() {
		return nil, fmt.Errorf("named arguments are not supported for variadic functions")
	}
	if len(names) != t.NumIn() {
		return nil, fmt.Errorf("parameter names unavailable")
	}

	known := make(map[string]bool, len(names))
	args := make([]reflect.Value, len(names))
	for i, name := range names {
		known[name] = true
		raw, ok := in[name]
		if !ok {
			return nil, fmt.Errorf("missing argument %q", name)
		}
		val, err := convert(raw, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args[i] = val
	}
	for key := range in {
		if !known[key] {
			return nil, fmt.Errorf("unexpected argument %q", key)
		}
	}
	return args, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	n := t.NumIn()
	if t.IsVariadic() && i >= n-1 {
		return t.In(n - 1).Elem()
	}
	return t.In(i)
}

// convert coerces a decoded JSON value into the parameter type.
func convert(raw any, pt reflect.Type) (reflect.Value, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(pt)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %s as %s", data, pt)
	}
	return ptr.Elem(), nil
}

// normalize maps a Go value onto its JSON shape so that results compare
// equal to decoded expectations (int 3 vs float64 3, []string vs []any).
func normalize(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Sprint(v)
	}
	return out
}
