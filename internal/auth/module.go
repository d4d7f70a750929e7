package auth

import (
	"go.uber.org/fx"
)

var (
	Module = fx.Provide(
		NewJWTManagerFromConfig,
		fx.Annotate(NewGoogleVerifier, fx.As(new(IdentityVerifier))),
	)
)
