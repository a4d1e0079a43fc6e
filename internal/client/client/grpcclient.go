package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/users/internal/common"
	pb "github.com/dmitrijs2005/users/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const reasonTokenExpired = "TOKEN_EXPIRED"

type GRPCClient struct {
	endpointURL string
	adminKey    string
	conn        *grpc.ClientConn
	client      pb.UsersServiceClient

	mu           sync.Mutex
	accountID    string
	accessToken  string
	sessionToken string
}

func withMetadata(ctx context.Context, key, value string) context.Context {
	if value == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(key, value)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (access, session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.sessionToken
}

func (s *GRPCClient) setSession(resp *pb.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.Account != nil {
		s.accountID = resp.Account.ID
	} else if resp.Session != nil {
		s.accountID = resp.Session.AccountID
	}
	s.accessToken = resp.AccessToken
	if resp.SessionToken != "" {
		s.sessionToken = resp.SessionToken
	}
}

func (s *GRPCClient) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID, s.accessToken, s.sessionToken = "", "", ""
}

// credentialsInterceptor attaches the admin key and the access token. When
// the server reports the access token expired it refreshes the session once
// and retries the call.
func (s *GRPCClient) credentialsInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	ctx = withMetadata(ctx, common.AdminKeyHeaderName, s.adminKey)
	access, session := s.tokens()

	err := invoker(withMetadata(ctx, common.AccessTokenHeaderName, access), method, req, reply, cc, opts...)
	if err == nil || method == pb.MethodRefreshSession || session == "" {
		return err
	}
	if status.Code(err) != codes.Unauthenticated || ReasonOf(err) != reasonTokenExpired {
		return err
	}

	resp, rerr := s.client.RefreshSession(ctx, &pb.SessionTokenRequest{SessionToken: session})
	if rerr != nil {
		return err
	}
	s.setSession(resp)

	// tokens refreshed, retry with the new access token
	return invoker(withMetadata(ctx, common.AccessTokenHeaderName, resp.AccessToken), method, req, reply, cc, opts...)
}

func NewUsersClientService(endpointURL, adminKey string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, adminKey: adminKey}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.credentialsInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewUsersServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) IsLoggedIn() bool {
	_, session := s.tokens()
	return session != ""
}

func (s *GRPCClient) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	_, err := s.client.Ping(ctx, &pb.Empty{})
	return mapError(err)
}

func (s *GRPCClient) CreateAccount(ctx context.Context, identifier string, password []byte) (*pb.Account, error) {
	resp, err := s.client.CreateAccount(ctx, &pb.CreateAccountRequest{Identifier: identifier, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) Login(ctx context.Context, identifier string, password []byte) (*pb.Account, error) {
	resp, err := s.client.Authenticate(ctx, &pb.AuthenticateRequest{Identifier: identifier, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	s.setSession(resp)
	return resp.Account, nil
}

func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, session := s.tokens()
	if session == "" {
		return ErrNotLoggedIn
	}
	resp, err := s.client.RefreshSession(ctx, &pb.SessionTokenRequest{SessionToken: session})
	if err != nil {
		return mapError(err)
	}
	s.setSession(resp)
	return nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	_, session := s.tokens()
	if session == "" {
		return ErrNotLoggedIn
	}
	if _, err := s.client.Logout(ctx, &pb.SessionTokenRequest{SessionToken: session}); err != nil {
		return mapError(err)
	}
	s.clearSession()
	return nil
}

func (s *GRPCClient) LogoutAll(ctx context.Context, accountID string) (int64, error) {
	resp, err := s.client.LogoutAll(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return 0, mapError(err)
	}
	if accountID == "" || accountID == s.AccountID() {
		s.clearSession()
	}
	return resp.Revoked, nil
}

func (s *GRPCClient) GetAccount(ctx context.Context, accountID string) (*pb.Account, error) {
	resp, err := s.client.GetAccount(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	resp, err := s.client.ChangePassword(ctx, &pb.ChangePasswordRequest{
		OldPassword: string(oldPassword),
		NewPassword: string(newPassword),
	})
	if err != nil {
		return mapError(err)
	}
	s.setSession(resp)
	return nil
}

func (s *GRPCClient) DeactivateAccount(ctx context.Context, accountID string) (*pb.Account, error) {
	resp, err := s.client.DeactivateAccount(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	if accountID == "" || accountID == s.AccountID() {
		s.clearSession()
	}
	return resp.Account, nil
}

func (s *GRPCClient) LockAccount(ctx context.Context, accountID, reason string) (*pb.Account, error) {
	resp, err := s.client.LockAccount(ctx, &pb.LockAccountRequest{AccountID: accountID, Reason: reason})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) UnlockAccount(ctx context.Context, accountID string) (*pb.Account, error) {
	resp, err := s.client.UnlockAccount(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) DeleteAccount(ctx context.Context, accountID string) (*pb.Account, error) {
	resp, err := s.client.DeleteAccount(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) ListAccounts(ctx context.Context, offset, limit int) ([]*pb.Account, error) {
	resp, err := s.client.ListAccounts(ctx, &pb.ListAccountsRequest{Offset: offset, Limit: limit})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Accounts, nil
}

func (s *GRPCClient) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.Account, error) {
	resp, err := s.client.UpdateProfile(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) SetRole(ctx context.Context, accountID, role string) (*pb.Account, error) {
	resp, err := s.client.SetRole(ctx, &pb.SetRoleRequest{AccountID: accountID, Role: role})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) AuditTrail(ctx context.Context, accountID string, limit int) ([]*pb.AuditEvent, error) {
	resp, err := s.client.GetAuditTrail(ctx, &pb.AuditTrailRequest{AccountID: accountID, Limit: limit})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Events, nil
}

func (s *GRPCClient) IssuePasswordReset(ctx context.Context, accountID string) (*pb.IssuePasswordResetResponse, error) {
	resp, err := s.client.IssuePasswordReset(ctx, &pb.AccountRequest{AccountID: accountID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

// ApplyPasswordReset sets a new password with a reset token. It needs no
// login.
func (s *GRPCClient) ApplyPasswordReset(ctx context.Context, resetToken string, newPassword []byte) error {
	_, err := s.client.ApplyPasswordReset(ctx, &pb.ApplyPasswordResetRequest{ResetToken: resetToken, NewPassword: string(newPassword)})
	if err != nil {
		return mapError(err)
	}
	return nil
}
