package condition

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type exprProgram struct {
	source  string
	program *vm.Program
}

func compileExpr(src string) (*exprProgram, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("condition: compile %q: %w", src, err)
	}
	return &exprProgram{source: src, program: program}, nil
}

func (p *exprProgram) Source() string { return p.source }

func (p *exprProgram) Mode() Mode { return ModeExpr }

func (p *exprProgram) Eval(env Env) (bool, error) {
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("condition: evaluate %q: %w", p.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrNonBoolean, p.source, out)
	}
	return b, nil
}
