package condition

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("speed", cel.DoubleType),
		cel.Variable("x", cel.DoubleType),
		cel.Variable("y", cel.DoubleType),
		cel.Variable("yaw", cel.DoubleType),
		cel.Variable("elapsed", cel.DoubleType),
		cel.Variable("alive", cel.BoolType),
		cel.Variable("vars", cel.MapType(cel.StringType, cel.DynType)),
	)
})

type celProgram struct {
	source  string
	program cel.Program
}

func compileCEL(src string) (*celProgram, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("condition: cel environment: %w", err)
	}
	ast, iss := env.Compile(src)
	if iss.Err() != nil {
		return nil, fmt.Errorf("condition: compile %q: %w", src, iss.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %q has type %s", ErrNonBoolean, src, t)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("condition: program %q: %w", src, err)
	}
	return &celProgram{source: src, program: program}, nil
}

func (p *celProgram) Source() string { return p.source }

func (p *celProgram) Mode() Mode { return ModeCEL }

func (p *celProgram) Eval(env Env) (bool, error) {
	out, _, err := p.program.Eval(env.activation())
	if err != nil {
		return false, fmt.Errorf("condition: evaluate %q: %w", p.source, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrNonBoolean, p.source, out.Value())
	}
	return b, nil
}
