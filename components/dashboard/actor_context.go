package dashboard

import "context"

// ActorContext identifies who triggered a mutation.
type ActorContext struct {
	ActorID string
	UserID  string
}

type actorContextKey struct{}

// ContextWithActor stores actor identifiers on the provided context.
func ContextWithActor(ctx context.Context, meta ActorContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, meta)
}

// ActorFromContext returns the actor stored by ContextWithActor, if any.
func ActorFromContext(ctx context.Context) ActorContext {
	if ctx == nil {
		return ActorContext{}
	}
	if meta, ok := ctx.Value(actorContextKey{}).(ActorContext); ok {
		return meta
	}
	return ActorContext{}
}

// ID returns the actor, falling back to the user on whose behalf it acts.
func (a ActorContext) ID() string {
	if a.ActorID != "" {
		return a.ActorID
	}
	return a.UserID
}
