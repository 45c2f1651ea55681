package validate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bittoy/reactive/subject"
)

// ExprValidator is a PropertyValidator backed by a compiled expr-lang
// program, grounded on the teacher's ExprFilterNode
// (components/transform/expr_filter_node.go): the expression is compiled
// once at construction with expr.Compile(expr.AllowUndefinedVariables(),
// expr.AsBool()) and evaluated against an environment exposing the
// proposed value and property name. A false result yields Message as the
// single validation failure.
type ExprValidator struct {
	program *vm.Program
	message string
}

// NewExprValidator compiles script — which must evaluate to a boolean —
// into an ExprValidator. The expression environment exposes "value" (the
// proposed new value) and "property" (the property name). message is
// reported when the expression evaluates false.
func NewExprValidator(script, message string) (*ExprValidator, error) {
	program, err := expr.Compile(script, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile validator expression: %w", err)
	}
	return &ExprValidator{program: program, message: message}, nil
}

// Validate implements PropertyValidator.
func (v *ExprValidator) Validate(ref subject.Reference, newValue any) []string {
	env := map[string]any{
		"value":    newValue,
		"property": ref.Name,
	}
	out, err := vm.Run(v.program, env)
	if err != nil {
		return []string{fmt.Sprintf("validator expression error: %s", err)}
	}
	if ok, _ := out.(bool); !ok {
		return []string{v.message}
	}
	return nil
}
