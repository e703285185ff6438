package handler

import (
	"context"

	"github.com/galhr/portal/backend/internal/domain"
)

type ContextKey string

var (
	PrincipalCtxKey ContextKey = "principal"
	MyInfoCtx       ContextKey = "myInfo"
	UserInfoCtx     ContextKey = "userInfo"
)

// principal returns the identity set by the auth and myInfo middlewares.
func principal(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(PrincipalCtxKey).(domain.Principal)
	return p
}
