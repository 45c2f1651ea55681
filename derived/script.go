package derived

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// ScriptExpression compiles a JavaScript expression once and exposes it as
// the getter func() any Tracker.Register expects, letting a
// dynamically configured subject (whose derived properties are not known
// at compile time) declare a derived property from a script instead of a
// hand-written closure. Grounded on the same goja usage validate.ScriptValidator
// is (the teacher's GojaJsEngine, utils/js/js_engine.go): a "compute"
// function loaded once, invoked with the current property bag on every
// recomputation.
//
// goja.Runtime is not safe for concurrent use; like ScriptValidator,
// ScriptExpression serializes calls behind its own lock rather than
// sharing one runtime across goroutines.
type ScriptExpression struct {
	mu  sync.Mutex
	vm  *goja.Runtime
	fn  goja.Callable
	get func(name string) any
}

// NewScriptExpression loads script, which must define a top-level
// "compute(get)" function, into a fresh goja runtime. get is called from
// within the script (as get("PropertyName")) to read a dependency; each
// such call happens through propertyGet, so it participates in the
// process-wide recording scope the same way a native getter's calls to
// Property[T].MustGet do.
func NewScriptExpression(script string, propertyGet func(name string) any) (*ScriptExpression, error) {
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("load derived expression script: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get("compute"))
	if !ok {
		return nil, fmt.Errorf("derived expression script does not define a compute function")
	}
	return &ScriptExpression{vm: vm, fn: fn, get: propertyGet}, nil
}

// Getter returns the func() any Tracker.Register expects.
func (s *ScriptExpression) Getter() func() any {
	return func() any {
		s.mu.Lock()
		defer s.mu.Unlock()

		getFn := s.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			name := call.Argument(0).String()
			return s.vm.ToValue(s.get(name))
		})
		result, err := s.fn(goja.Undefined(), getFn)
		if err != nil {
			return nil
		}
		return result.Export()
	}
}
