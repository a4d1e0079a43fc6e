package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/users/internal/logging"
	pb "github.com/dmitrijs2005/users/internal/proto"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type AccountService interface {
	Create(ctx context.Context, identifier, plaintext string, info models.ClientInfo) (*models.Account, error)
	Get(ctx context.Context, accountID string) (*models.Account, error)
	List(ctx context.Context, offset, limit int) ([]*models.Account, error)
	Lock(ctx context.Context, accountID, reason string, info models.ClientInfo) (*models.Account, error)
	Unlock(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error)
	Deactivate(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error)
	Delete(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID string, update models.ProfileUpdate, info models.ClientInfo) (*models.Account, error)
	SetRole(ctx context.Context, accountID string, role models.Role, info models.ClientInfo) (*models.Account, error)
	AuditTrail(ctx context.Context, accountID string, limit int) ([]*models.AuditEvent, error)
}

type SessionService interface {
	Validate(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string, info models.ClientInfo) error
	RevokeAll(ctx context.Context, accountID string, info models.ClientInfo) (int64, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, identifier, plaintext string, info models.ClientInfo) (*services.AuthResult, error)
	Refresh(ctx context.Context, token string, info models.ClientInfo) (*services.AuthResult, error)
	ChangePassword(ctx context.Context, accountID, oldPlaintext, newPlaintext string, info models.ClientInfo) (*services.AuthResult, error)
	ValidateAccessToken(ctx context.Context, accessToken string) (*models.Session, error)
	IssueReset(ctx context.Context, accountID string, info models.ClientInfo) (*models.ResetToken, error)
	ApplyReset(ctx context.Context, token, newPlaintext string, info models.ClientInfo) error
}

type GRPCServer struct {
	pb.UnimplementedUsersServiceServer
	address  string
	accounts AccountService
	sessions SessionService
	auth     Authenticator
	logger   logging.Logger
	adminKey []byte
	timeout  time.Duration
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, accounts AccountService, sessions SessionService, auth Authenticator,
	adminKey string, timeout time.Duration) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
		sessions: sessions,
		auth:     auth,
		adminKey: []byte(adminKey),
		timeout:  timeout,
		health:   health.NewServer(),
	}
}

// newServer builds the grpc.Server with interceptors and both services
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.timeoutInterceptor,
		s.authInterceptor,
	))
	pb.RegisterUsersServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
