package core

import (
	"context"
	"strconv"
)

// Actor is the staff member behind a request (taken from the auth token).
type Actor struct {
	StaffID int64
	Name    string
	Role    string
}

func (a Actor) ID() string {
	return strconv.FormatInt(a.StaffID, 10)
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the Actor carried by ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.StaffID > 0
}
