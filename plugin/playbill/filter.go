package playbill

import (
	"log/slog"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// Filter is an operator-supplied CEL predicate over a listing, e.g.
//
//	kind != "concert" && hall in ["Стравинский", "Шаховской"]
//
// Variables: title, date, time, hall, kind (all strings).
type Filter struct {
	expr    string
	program cel.Program
}

// NewFilter compiles expr. An empty expression yields a nil filter, which
// accepts everything.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("date", cel.StringType),
		cel.Variable("time", cel.StringType),
		cel.Variable("hall", cel.StringType),
		cel.Variable("kind", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cel env")
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "invalid listing filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("listing filter %q must evaluate to bool, got %v", expr, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build cel program")
	}
	return &Filter{expr: expr, program: program}, nil
}

// Match reports whether l passes the filter. Evaluation errors keep the listing.
func (f *Filter) Match(l Listing) bool {
	if f == nil {
		return true
	}
	out, _, err := f.program.Eval(map[string]any{
		"title": l.Title,
		"date":  l.Date,
		"time":  l.Time,
		"hall":  l.Hall,
		"kind":  string(l.Kind),
	})
	if err != nil {
		slog.Warn("listing filter evaluation failed", slog.String("filter", f.expr), slog.String("error", err.Error()))
		return true
	}
	ok, isBool := out.Value().(bool)
	return !isBool || ok
}

// Apply returns the listings that pass the filter.
func (f *Filter) Apply(listings []Listing) []Listing {
	if f == nil {
		return listings
	}
	out := listings[:0:0]
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}
