package shared

import "context"

// Actor identifies who triggered an operation. The reference is opaque to
// the ledger: identity management lives in an external service and we only
// record what it hands us.
type Actor struct {
	ID   string
	Name string
}

// IsZero reports whether the actor carries no identity
func (a Actor) IsZero() bool {
	return a.ID == "" && a.Name == ""
}

type actorContextKey struct{}

// WithActor attaches an actor to the context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor attached by the authentication
// layer. A context without one yields the zero Actor.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
