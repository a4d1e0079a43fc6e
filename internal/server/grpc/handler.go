package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/users/internal/proto"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/services"
	"google.golang.org/grpc/codes"
)

func toPBAccount(a *models.Account) *pb.Account {
	if a == nil {
		return nil
	}
	return &pb.Account{
		ID:          a.ID,
		Identifier:  a.Identifier,
		Status:      string(a.Status),
		LockReason:  a.LockReason,
		Role:        string(a.Role),
		Profile:     toPBProfile(a.Profile),
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toPBProfile(p models.Profile) *pb.Profile {
	out := &pb.Profile{
		Email:      p.Email,
		Phone:      p.Phone,
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		Gender:     string(p.Gender),
	}
	if p.Birthdate != nil {
		out.Birthdate = p.Birthdate.Format(models.BirthdateLayout)
	}
	if *out == (pb.Profile{}) {
		return nil
	}
	return out
}

func toPBAuditEvent(e *models.AuditEvent) *pb.AuditEvent {
	return &pb.AuditEvent{
		ID:         e.ID,
		AccountID:  e.AccountID,
		Identifier: e.Identifier,
		Operation:  e.Operation,
		Outcome:    e.Outcome,
		Reason:     e.Reason,
		Source:     e.Source,
		OccurredAt: e.OccurredAt,
	}
}

func toPBSession(s *models.Session) *pb.Session {
	if s == nil {
		return nil
	}
	return &pb.Session{
		ID:         s.ID,
		AccountID:  s.AccountID,
		IssuedAt:   s.IssuedAt,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
	}
}

func toAuthResponse(r *services.AuthResult) *pb.AuthResponse {
	return &pb.AuthResponse{
		Account:         toPBAccount(r.Account),
		Session:         toPBSession(r.Session),
		SessionToken:    r.Session.Token,
		AccessToken:     r.AccessToken,
		AccessExpiresAt: r.AccessExpiresAt,
	}
}

func requireField(value, name string) error {
	if value == "" {
		return statusError(codes.InvalidArgument, ReasonInvalidArgument, name+" is required")
	}
	return nil
}

func (s *GRPCServer) CreateAccount(ctx context.Context, req *pb.CreateAccountRequest) (*pb.AccountResponse, error) {
	acc, err := s.accounts.Create(ctx, req.Identifier, req.Password, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Account created", "account_id", acc.ID)
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (*pb.AuthResponse, error) {
	res, err := s.auth.Authenticate(ctx, req.Identifier, req.Password, clientInfo(ctx))
	if err != nil {
		return nil, authStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) RefreshSession(ctx context.Context, req *pb.SessionTokenRequest) (*pb.AuthResponse, error) {
	if err := requireField(req.SessionToken, "session_token"); err != nil {
		return nil, err
	}
	res, err := s.auth.Refresh(ctx, req.SessionToken, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) ValidateSession(ctx context.Context, req *pb.SessionTokenRequest) (*pb.ValidateSessionResponse, error) {
	sess, err := s.sessions.Validate(ctx, req.SessionToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ValidateSessionResponse{Session: toPBSession(sess)}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *pb.SessionTokenRequest) (*pb.Empty, error) {
	if err := requireField(req.SessionToken, "session_token"); err != nil {
		return nil, err
	}
	if err := s.sessions.Revoke(ctx, req.SessionToken, clientInfo(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) LogoutAll(ctx context.Context, req *pb.AccountRequest) (*pb.LogoutAllResponse, error) {
	id, err := targetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	n, err := s.sessions.RevokeAll(ctx, id, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.LogoutAllResponse{Revoked: n}, nil
}

func (s *GRPCServer) LockAccount(ctx context.Context, req *pb.LockAccountRequest) (*pb.AccountResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	acc, err := s.accounts.Lock(ctx, req.AccountID, req.Reason, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) UnlockAccount(ctx context.Context, req *pb.AccountRequest) (*pb.AccountResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	acc, err := s.accounts.Unlock(ctx, req.AccountID, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) DeactivateAccount(ctx context.Context, req *pb.AccountRequest) (*pb.AccountResponse, error) {
	id, err := targetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.Deactivate(ctx, id, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, req *pb.AccountRequest) (*pb.AccountResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	acc, err := s.accounts.Delete(ctx, req.AccountID, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) GetAccount(ctx context.Context, req *pb.AccountRequest) (*pb.AccountResponse, error) {
	id, err := targetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) ListAccounts(ctx context.Context, req *pb.ListAccountsRequest) (*pb.ListAccountsResponse, error) {
	list, err := s.accounts.List(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.Account, 0, len(list))
	for _, a := range list {
		out = append(out, toPBAccount(a))
	}
	return &pb.ListAccountsResponse{Accounts: out}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *pb.ChangePasswordRequest) (*pb.AuthResponse, error) {
	id, err := targetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	res, err := s.auth.ChangePassword(ctx, id, req.OldPassword, req.NewPassword, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return toAuthResponse(res), nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *pb.UpdateProfileRequest) (*pb.AccountResponse, error) {
	id, err := targetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	update := models.ProfileUpdate{
		Email:      req.Email,
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Gender:     req.Gender,
		Birthdate:  req.Birthdate,
	}
	acc, err := s.accounts.UpdateProfile(ctx, id, update, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) SetRole(ctx context.Context, req *pb.SetRoleRequest) (*pb.AccountResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	if err := requireField(req.Role, "role"); err != nil {
		return nil, err
	}
	acc, err := s.accounts.SetRole(ctx, req.AccountID, models.Role(req.Role), clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Account role set", "account_id", acc.ID, "role", acc.Role)
	return &pb.AccountResponse{Account: toPBAccount(acc)}, nil
}

func (s *GRPCServer) GetAuditTrail(ctx context.Context, req *pb.AuditTrailRequest) (*pb.AuditTrailResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	events, err := s.accounts.AuditTrail(ctx, req.AccountID, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.AuditEvent, 0, len(events))
	for _, e := range events {
		out = append(out, toPBAuditEvent(e))
	}
	return &pb.AuditTrailResponse{Events: out}, nil
}

func (s *GRPCServer) IssuePasswordReset(ctx context.Context, req *pb.AccountRequest) (*pb.IssuePasswordResetResponse, error) {
	if err := requireField(req.AccountID, "account_id"); err != nil {
		return nil, err
	}
	t, err := s.auth.IssueReset(ctx, req.AccountID, clientInfo(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.IssuePasswordResetResponse{ResetToken: t.Token, ExpiresAt: t.ExpiresAt}, nil
}

func (s *GRPCServer) ApplyPasswordReset(ctx context.Context, req *pb.ApplyPasswordResetRequest) (*pb.Empty, error) {
	if err := requireField(req.ResetToken, "reset_token"); err != nil {
		return nil, err
	}
	if err := s.auth.ApplyReset(ctx, req.ResetToken, req.NewPassword, clientInfo(ctx)); err != nil {
		return nil, resetStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.Empty) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}
