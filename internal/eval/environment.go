package eval

import "github.com/jargnar/orangensaft/internal/value"

// Environment is a lexically scoped frame in the parent chain a closure
// captures. Frames own their own bindings; lookup walks outward.
type Environment struct {
	store map[string]value.Value
	outer *Environment

	Logger Logger
}

// NewEnvironment creates a root frame with no parent.
func NewEnvironment() *Environment {
	return &Environment{store: map[string]value.Value{}, Logger: DefaultLogger}
}

// NewEnclosedEnvironment creates a child frame whose lookups fall back to
// outer. Used both for ordinary block scoping and for the frame a function
// call pushes over its captured closure frame.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	if outer != nil {
		env.Logger = outer.Logger
	}
	return env
}

// Get walks the frame chain outward, matching the closure-capture model:
// a nested function sees names bound in every enclosing scope at the time
// it was defined.
func (e *Environment) Get(name string) (value.Value, bool) {
	if v, ok := e.store[name]; ok {
		return v, true
	}
	if e.outer != nil {
		return e.outer.Get(name)
	}
	return nil, false
}

// Define binds name in this frame unconditionally, shadowing any outer
// binding of the same name. Used for function parameters, for-loop pattern
// variables, and function definitions themselves.
func (e *Environment) Define(name string, v value.Value) {
	e.store[name] = v
}

// Names returns the names bound directly in this frame (not outer frames),
// used by the REPL's `:env` command and by callers building a resolver's
// builtin-name list from a freshly populated root environment.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	return names
}

// Assign creates or updates the binding in the innermost scope that
// already defines it, otherwise binds in the current scope. This is what
// ordinary `name = expr` statements call, as opposed to Define.
func (e *Environment) Assign(name string, v value.Value) {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			env.store[name] = v
			return
		}
	}
	e.store[name] = v
}
