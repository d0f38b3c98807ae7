package surface

import "context"

type stateKey struct{}

// WithState returns a context carrying the capability state for one guest
// call. Host functions registered with the engine resolve their State from
// the call context, so a single engine can serve any number of sequential
// runtimes.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StateFromContext extracts the capability state installed by WithState.
func StateFromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(stateKey{}).(*State)
	return st, ok
}
