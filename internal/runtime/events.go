package runtime

import (
	"sort"

	"ember-lang/internal/ast"
	"ember-lang/internal/span"
)

// registerHandler records an "on" member. A later handler with the same
// object and event name replaces the earlier one.
func (i *Interpreter) registerHandler(object string, decl *ast.EventDecl, table *TableVal) {
	byEvent, ok := i.events[object]
	if !ok {
		byEvent = make(map[string]*eventHandler)
		i.events[object] = byEvent
	}
	byEvent[decl.Name] = &eventHandler{
		decl:    decl,
		closure: i.env,
		object:  table,
	}
}

// Emit dispatches an event on an object from host code. The handler
// body runs with 'self' bound to the object's table and the arguments
// bound positionally; missing parameters get nil, extras are discarded.
// The result is the handler's return value, or nil if it does not
// return.
func (i *Interpreter) Emit(object, event string, args ...Value) (Value, error) {
	byEvent, ok := i.events[object]
	if !ok {
		return nil, runtimeErr(ErrCall, span.Span{}, "no event handlers registered for object '%s'", object)
	}
	h, ok := byEvent[event]
	if !ok {
		return nil, runtimeErr(ErrCall, span.Span{}, "object '%s' has no handler for event '%s'", object, event)
	}

	handlerEnv := NewEnvironment(h.closure)
	handlerEnv.Define("self", h.object)
	for idx, param := range h.decl.Params {
		if idx < len(args) {
			handlerEnv.Define(param, args[idx])
		} else {
			handlerEnv.Define(param, NilVal{})
		}
	}

	result, err := i.execBlock(h.decl.Body, handlerEnv)
	if err != nil {
		return nil, err
	}

	switch result.Signal {
	case SigReturn:
		return result.Value, nil
	case SigBreak:
		return nil, runtimeErr(ErrCall, h.decl.GetSpan(), "break outside of loop")
	case SigContinue:
		return nil, runtimeErr(ErrCall, h.decl.GetSpan(), "continue outside of loop")
	}
	return NilVal{}, nil
}

// Handlers returns the event names registered for an object, sorted.
func (i *Interpreter) Handlers(object string) []string {
	byEvent, ok := i.events[object]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byEvent))
	for name := range byEvent {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
