package authclient

import (
	"context"
	"fmt"
	"sync"

	pb "github.com/dmitrijs2005/taskboard/internal/authapi"
	"github.com/dmitrijs2005/taskboard/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// methods that carry the access token and may be retried after a refresh
var protectedMethods = map[string]struct{}{
	pb.AuthService_Me_FullMethodName:           {},
	pb.AuthService_LogoutAll_FullMethodName:    {},
	pb.AuthService_ListSessions_FullMethodName: {},
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if _, ok := protectedMethods[method]; !ok {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, refreshToken := s.Tokens()

	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)

	if err != nil {

		if status.Code(err) != codes.Unauthenticated || refreshToken == "" {
			return err
		}

		resp, rerr := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refreshToken})
		if rerr != nil {
			return err
		}

		s.SetTokens(resp.AccessToken, resp.RefreshToken)

		// tokens refreshed, retrying with the new access token
		return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)

	}

	return nil
}

// New connects to endpointURL. Extra dial options are appended after the
// defaults (insecure transport, token interceptor).
func New(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.initGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) initGRPCClient(opts ...grpc.DialOption) error {

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

// Tokens returns the current access and refresh tokens.
func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// SetTokens replaces the current token pair.
func (s *GRPCClient) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

func (s *GRPCClient) Register(ctx context.Context, name, email string, password []byte) error {

	req := &pb.RegisterRequest{Name: name, Email: email, Password: string(password)}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) error {

	req := &pb.LoginRequest{Email: email, Password: string(password)}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Refresh exchanges the stored refresh token for a new access token.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, refreshToken := s.Tokens()
	if refreshToken == "" {
		return ErrNotLoggedIn
	}

	resp, err := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Logout revokes the stored refresh token and forgets the token pair.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, refreshToken := s.Tokens()
	if refreshToken == "" {
		return ErrNotLoggedIn
	}

	if _, err := s.client.Logout(ctx, &pb.LogoutRequest{RefreshToken: refreshToken}); err != nil {
		return s.mapError(err)
	}

	s.SetTokens("", "")
	return nil
}

func (s *GRPCClient) Me(ctx context.Context) (*User, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}

	resp, err := s.client.Me(ctx, &pb.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &User{ID: resp.ID, Name: resp.Name, Email: resp.Email, CreatedAt: resp.CreatedAt}, nil
}

// LogoutAll revokes every session of the caller, forgets the local token pair
// and returns how many sessions were revoked.
func (s *GRPCClient) LogoutAll(ctx context.Context) (int64, error) {
	if err := s.requireLogin(); err != nil {
		return 0, err
	}

	resp, err := s.client.LogoutAll(ctx, &pb.LogoutAllRequest{})
	if err != nil {
		return 0, s.mapError(err)
	}

	s.SetTokens("", "")
	return resp.Revoked, nil
}

func (s *GRPCClient) ListSessions(ctx context.Context, offset, limit int) ([]Session, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}

	resp, err := s.client.ListSessions(ctx, &pb.ListSessionsRequest{Offset: int32(offset), Limit: int32(limit)})
	if err != nil {
		return nil, s.mapError(err)
	}

	sessions := make([]Session, 0, len(resp.Sessions))
	for _, ps := range resp.Sessions {
		sessions = append(sessions, Session{
			ID:        ps.ID,
			CreatedAt: ps.CreatedAt,
			ExpiresAt: ps.ExpiresAt,
			Revoked:   ps.Revoked,
		})
	}
	return sessions, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) requireLogin() error {
	accessToken, refreshToken := s.Tokens()
	if accessToken == "" && refreshToken == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
