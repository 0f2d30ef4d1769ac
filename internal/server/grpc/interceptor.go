package grpc

import (
	"context"
	"strings"
	"time"

	pb "github.com/dmitrijs2005/taskboard/internal/authapi"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accessTokenKey ctxKey = "accessToken"

// methods that require an access token
var protectedMethods = map[string]struct{}{
	pb.AuthService_Me_FullMethodName:           {},
	pb.AuthService_LogoutAll_FullMethodName:    {},
	pb.AuthService_ListSessions_FullMethodName: {},
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if _, ok := protectedMethods[info.FullMethod]; ok {

		accessToken, ok := bearerToken(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		ctx = context.WithValue(ctx, accessTokenKey, accessToken)

	}

	return handler(ctx, req)
}

// loggingInterceptor tags the call context with a request id, so handler and
// service logs carry it, and logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	requestID, err := common.MakeRandHexString(8)
	if err != nil {
		requestID = "unknown"
	}
	ctx = logging.ContextWith(ctx, "request_id", requestID)
	l := s.logger.With("method", info.FullMethod)

	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	switch code {
	case codes.OK:
		l.Debug(ctx, "request handled", "duration", time.Since(start))
	case codes.Internal, codes.Unknown:
		l.Error(ctx, "request failed", "code", code.String(), "duration", time.Since(start))
	default:
		l.Info(ctx, "request rejected", "code", code.String(), "duration", time.Since(start))
	}

	return resp, err
}

// bearerToken extracts the token from "authorization: Bearer <token>".
func bearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return "", false
	}

	v := values[0]
	if len(v) < len(common.BearerPrefix) || !strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(common.BearerPrefix):])
	return token, token != ""
}

func accessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}
