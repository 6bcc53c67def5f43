package shared

import "context"

// Actor identifies the acting user on a request. Identity and role are
// resolved by the upstream auth layer and arrive as trusted headers.
type Actor struct {
	ID   int64
	Role string
}

// RoleSupervisor is required for privileged balance adjustments.
const RoleSupervisor = "supervisor"

type actorContextKey struct{}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
