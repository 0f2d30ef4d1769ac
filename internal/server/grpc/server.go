// Package grpc exposes the session service over gRPC.
package grpc

import (
	"context"
	"net"

	pb "github.com/dmitrijs2005/taskboard/internal/authapi"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/metrics"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"google.golang.org/grpc"
)

// SessionService is the part of services.SessionService the transport needs.
type SessionService interface {
	Register(ctx context.Context, name, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	LogoutAll(ctx context.Context, accessToken string) (int64, error)
	ListSessions(ctx context.Context, accessToken string, offset, limit int) ([]*models.RefreshToken, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address  string
	sessions SessionService
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, sessions SessionService, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		metrics:  m,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.metrics.GRPC.UnaryServerInterceptor(),
		s.loggingInterceptor,
		s.accessTokenInterceptor,
	))

	pb.RegisterAuthServiceServer(srv, s)
	s.metrics.GRPC.InitializeMetrics(srv)

	return srv
}
