package runtime

import "fmt"

// Environment represents a variable scope with a parent chain. Closures
// hold a pointer to the environment they were declared in, so bindings
// are shared and mutations are visible through every capturing closure.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define binds a name in the current scope. Redeclaring a name that
// already exists in this scope rebinds it; declaring a name that exists
// in an outer scope shadows it.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a name by walking the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name]; exists {
			return val, true
		}
	}
	return nil, false
}

// Set assigns to an existing binding. Returns an error if the name is
// not bound anywhere on the chain.
func (e *Environment) Set(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name]; exists {
			env.values[name] = value
			return nil
		}
	}
	return fmt.Errorf("undefined identifier '%s'", name)
}
