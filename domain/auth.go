package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/x-xyz/settlement/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"address"`
	jwt.StandardClaims
}

type AuthUseCase interface {
	SignToken(ctx.Ctx, Address) (string, error)
	ParseToken(ctx.Ctx, string) (string, error)
}
