package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/xerrors"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

var ErrInvalidToken = xerrors.Errorf("invalid token")

type impl struct {
	jwtSecret []byte
	tokenTtl  time.Duration
}

func New(jwtSecret string, tokenTtl time.Duration) domain.AuthUseCase {
	if tokenTtl == 0 {
		tokenTtl = 24 * time.Hour
	}
	return &impl{
		jwtSecret: []byte(jwtSecret),
		tokenTtl:  tokenTtl,
	}
}

func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address) (string, error) {
	claims := domain.JwtCustomClaims{
		Address: string(address.ToLower()),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(im.tokenTtl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", ErrInvalidToken
}
