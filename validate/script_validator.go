package validate

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/bittoy/reactive/subject"
)

// ScriptValidator is a PropertyValidator backed by a goja JavaScript
// runtime, grounded on the teacher's GojaJsEngine (utils/js/js_engine.go):
// a user-supplied "validate(value, property)" function is loaded once and
// invoked per write. A null/undefined or true result, or an empty string,
// means valid; false yields the generic message "validation failed"; a
// non-empty string is one failure message; an array yields its non-empty
// strings as failure messages. Any other result is treated as valid.
//
// goja.Runtime is not safe for concurrent use, so ScriptValidator holds
// its own lock around each Validate call, the same single-VM-per-validator tradeoff
// the teacher's engine makes (its VM pool exists precisely to avoid
// sharing one *goja.Runtime across goroutines).
type ScriptValidator struct {
	mu sync.Mutex
	vm *goja.Runtime
	fn goja.Callable
}

// NewScriptValidator loads script, which must define a top-level
// "validate" function, into a fresh goja runtime.
func NewScriptValidator(script string) (*ScriptValidator, error) {
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("load validator script: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get("validate"))
	if !ok {
		return nil, fmt.Errorf("validator script does not define a validate function")
	}
	return &ScriptValidator{vm: vm, fn: fn}, nil
}

// Validate implements PropertyValidator.
func (s *ScriptValidator) Validate(ref subject.Reference, newValue any) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.fn(goja.Undefined(), s.vm.ToValue(newValue), s.vm.ToValue(ref.Name))
	if err != nil {
		return []string{fmt.Sprintf("validator script error: %s", err)}
	}
	exported := result.Export()
	switch v := exported.(type) {
	case nil:
		return nil
	case bool:
		if v {
			return nil
		}
		return []string{"validation failed"}
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		messages := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				messages = append(messages, s)
			}
		}
		return messages
	default:
		return nil
	}
}
