package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

// TokenResolver maps a bearer token to the caller it was issued to.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
}

// JWTAuth rejects requests without a resolvable bearer token. On success the
// caller id replaces any X-User-ID header the client sent.
func JWTAuth(resolver TokenResolver, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(httpcontext.UserIDHeader)

			tokenString := ExtractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			identity, err := resolver.Resolve(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					logger.Error("token resolution failed", zap.Error(err))
					transport.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
					return
				}
				logger.Debug("invalid bearer token", zap.String("path", string(ctx.Path())))
				unauthorized(ctx)
				return
			}

			ctx.Request.Header.Set(httpcontext.UserIDHeader, identity.ID)
			next(ctx)
		}
	}
}

// ExtractToken returns the bearer token from the Authorization header.
func ExtractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	transport.WriteError(ctx, fasthttp.StatusUnauthorized, "could not validate credentials")
}
