package core

import "sort"

// ActionHandler implements one (name, version) action's state-transition
// rule. ctx carries the per-transaction session and charge accounting; act
// is the decoded action payload.
type ActionHandler func(tc *TransactionContext, act *Action) error

// versionedHandler pairs a registered handler with the action version it
// implements.
type versionedHandler struct {
	version uint32
	handler ActionHandler
}

// ExecutionContext is the name -> version -> handler registry described in
// spec.md §4.4. It is instantiated per chain and passed by reference; there
// is no global/static registry.
type ExecutionContext struct {
	handlers       map[string][]versionedHandler
	currentVersion map[string]uint32
	index          map[string]int
	order          []string
}

func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		handlers:       make(map[string][]versionedHandler),
		currentVersion: make(map[string]uint32),
		index:          make(map[string]int),
	}
}

// Register adds a (name, version) handler. The first registration for a
// name also becomes its index_of slot.
func (ec *ExecutionContext) Register(name string, version uint32, handler ActionHandler) {
	if _, ok := ec.index[name]; !ok {
		ec.index[name] = len(ec.order)
		ec.order = append(ec.order, name)
	}
	ec.handlers[name] = append(ec.handlers[name], versionedHandler{version: version, handler: handler})
	sort.Slice(ec.handlers[name], func(i, j int) bool {
		return ec.handlers[name][i].version < ec.handlers[name][j].version
	})
	if cur, ok := ec.currentVersion[name]; !ok || version > cur {
		ec.currentVersion[name] = version
	}
}

// SetCurrentVersion overrides the producer-voted current_version for name,
// read from on-chain configuration at block start.
func (ec *ExecutionContext) SetCurrentVersion(name string, version uint32) {
	ec.currentVersion[name] = version
}

// IndexOf returns a stable small integer for fast dispatch, or false if name
// is unregistered.
func (ec *ExecutionContext) IndexOf(name string) (int, bool) {
	i, ok := ec.index[name]
	return i, ok
}

// Dispatch resolves and returns the handler for (name, current_version(name)).
func (ec *ExecutionContext) Dispatch(name string) (ActionHandler, error) {
	versions, ok := ec.handlers[name]
	if !ok {
		return nil, newChainError(ErrUnknownAction, "no handler registered for action", "name", name)
	}
	version := ec.currentVersion[name]
	return ec.dispatchVersion(name, versions, version)
}

// DispatchVersion resolves a specific version explicitly, used for
// generated/suspended actions that must re-run under the version they were
// originally signed against.
func (ec *ExecutionContext) DispatchVersion(name string, version uint32) (ActionHandler, error) {
	versions, ok := ec.handlers[name]
	if !ok {
		return nil, newChainError(ErrUnknownAction, "no handler registered for action", "name", name)
	}
	return ec.dispatchVersion(name, versions, version)
}

func (ec *ExecutionContext) dispatchVersion(name string, versions []versionedHandler, version uint32) (ActionHandler, error) {
	lo, hi := versions[0].version, versions[len(versions)-1].version
	if version < lo || version > hi {
		return nil, newChainError(ErrInvalidActionVersion, "requested version outside registered range",
			"name", name, "version", version, "min", lo, "max", hi)
	}
	var best *versionedHandler
	for i := range versions {
		if versions[i].version <= version && (best == nil || versions[i].version > best.version) {
			best = &versions[i]
		}
	}
	if best == nil {
		return nil, newChainError(ErrInvalidActionVersion, "no handler registered at or below requested version",
			"name", name, "version", version)
	}
	return best.handler, nil
}
