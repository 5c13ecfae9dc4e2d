// Package grpc adapts the access gate to gRPC unary calls.
package grpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/redlinehq/redline/internal/application/service"
	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

// UnaryAuthInterceptor gates every unary call behind the access gate. The
// full method name doubles as the rate-limit action key, so limits apply
// per RPC method. Verified claims are placed on the handler context under
// constants.ContextKeyClaims.
func UnaryAuthInterceptor(gate *service.AccessGate, limit service.RateLimit, log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		tokenStr := bearerFromMetadata(ctx)
		if tokenStr == "" {
			return nil, status.Error(grpccodes.Unauthenticated, "missing bearer token")
		}

		claims, err := gate.Authorize(ctx, tokenStr, info.FullMethod, limit)
		if err != nil {
			log.Warn(ctx, "rpc rejected",
				logger.String("method", info.FullMethod),
				logger.String("kind", string(errors.KindOf(err))))
			return nil, statusFromError(err)
		}

		return handler(context.WithValue(ctx, constants.ContextKeyClaims, claims), req)
	}
}

// UnaryRecoveryInterceptor converts handler panics into Internal errors.
func UnaryRecoveryInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(ctx, "rpc handler panic recovered", fmt.Errorf("%v", r),
					logger.String("method", info.FullMethod))
				err = status.Error(grpccodes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// ClaimsFromContext returns the claims stored by UnaryAuthInterceptor.
func ClaimsFromContext(ctx context.Context) (models.Claims, bool) {
	claims, ok := ctx.Value(constants.ContextKeyClaims).(models.Claims)
	return claims, ok
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	parts := strings.SplitN(values[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// statusFromError maps error kinds onto gRPC status codes via their HTTP
// status, mirroring the JSON surface.
func statusFromError(err error) error {
	switch errors.HTTPStatus(err) {
	case http.StatusBadRequest:
		return status.Error(grpccodes.InvalidArgument, err.Error())
	case http.StatusUnauthorized:
		return status.Error(grpccodes.Unauthenticated, err.Error())
	case http.StatusConflict:
		return status.Error(grpccodes.AlreadyExists, err.Error())
	case http.StatusTooManyRequests:
		return status.Error(grpccodes.ResourceExhausted, err.Error())
	default:
		return status.Error(grpccodes.Internal, "internal server error")
	}
}
