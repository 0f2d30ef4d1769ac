package grpc

import (
	"context"
	"errors"

	pb "github.com/dmitrijs2005/taskboard/internal/authapi"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.TokenPairResponse, error) {

	tokens, err := s.sessions.Register(ctx, req.Name, req.Email, req.Password)
	s.metrics.ObserveAuth("register", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return tokenPairResponse(tokens), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.TokenPairResponse, error) {

	tokens, err := s.sessions.Login(ctx, req.Email, req.Password)
	s.metrics.ObserveAuth("login", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return tokenPairResponse(tokens), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.TokenPairResponse, error) {

	tokens, err := s.sessions.Refresh(ctx, req.RefreshToken)
	s.metrics.ObserveAuth("refresh", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return tokenPairResponse(tokens), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *pb.LogoutRequest) (*pb.LogoutResponse, error) {

	err := s.sessions.Logout(ctx, req.RefreshToken)
	s.metrics.ObserveAuth("logout", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &pb.LogoutResponse{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, req *pb.MeRequest) (*pb.UserResponse, error) {

	user, err := s.sessions.CurrentUser(ctx, accessTokenFromContext(ctx))
	s.metrics.ObserveAuth("me", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &pb.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}

func (s *GRPCServer) LogoutAll(ctx context.Context, req *pb.LogoutAllRequest) (*pb.LogoutAllResponse, error) {

	n, err := s.sessions.LogoutAll(ctx, accessTokenFromContext(ctx))
	s.metrics.ObserveAuth("logout_all", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &pb.LogoutAllResponse{Revoked: n}, nil
}

func (s *GRPCServer) ListSessions(ctx context.Context, req *pb.ListSessionsRequest) (*pb.ListSessionsResponse, error) {

	list, err := s.sessions.ListSessions(ctx, accessTokenFromContext(ctx), int(req.Offset), int(req.Limit))
	s.metrics.ObserveAuth("list_sessions", err)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	sessions := make([]*pb.Session, 0, len(list))
	for _, rt := range list {
		sessions = append(sessions, &pb.Session{
			ID:        rt.ID,
			CreatedAt: rt.CreatedAt,
			ExpiresAt: rt.ExpiresAt,
			Revoked:   rt.Revoked,
		})
	}

	return &pb.ListSessionsResponse{Sessions: sessions}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}

// toStatus maps service errors to gRPC statuses. Unexpected errors are logged
// and reported as a bare "internal error".
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrDuplicateIdentity):
		return status.Error(codes.AlreadyExists, "identity already exists")
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return status.Error(codes.Unauthenticated, "invalid refresh token")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrRefreshNotFound):
		return status.Error(codes.Unauthenticated, "refresh token not found")
	case errors.Is(err, common.ErrRefreshRevoked):
		return status.Error(codes.Unauthenticated, "refresh token revoked")
	case errors.Is(err, common.ErrRefreshExpired):
		return status.Error(codes.Unauthenticated, "refresh token expired")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Error(ctx, "unexpected service error", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func tokenPairResponse(p *services.TokenPair) *pb.TokenPairResponse {
	return &pb.TokenPairResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}
