package proto

import "time"

type Account struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier"`
	Status      string     `json:"status"`
	LockReason  string     `json:"lock_reason,omitempty"`
	Role        string     `json:"role"`
	Profile     *Profile   `json:"profile,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Profile holds the descriptive account fields. Birthdate is YYYY-MM-DD.
type Profile struct {
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Birthdate  string `json:"birthdate,omitempty"`
}

type Session struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type Empty struct{}

type CreateAccountRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AccountResponse struct {
	Account *Account `json:"account"`
}

type AuthenticateRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse carries a session token and the access token bound to it.
// SessionToken is only present when a session was issued by this call.
type AuthResponse struct {
	Account         *Account  `json:"account,omitempty"`
	Session         *Session  `json:"session"`
	SessionToken    string    `json:"session_token,omitempty"`
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type SessionTokenRequest struct {
	SessionToken string `json:"session_token"`
}

type ValidateSessionResponse struct {
	Session *Session `json:"session"`
}

type AccountRequest struct {
	AccountID string `json:"account_id"`
}

type LockAccountRequest struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason,omitempty"`
}

type LogoutAllResponse struct {
	Revoked int64 `json:"revoked"`
}

type ListAccountsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type ListAccountsResponse struct {
	Accounts []*Account `json:"accounts"`
}

type ChangePasswordRequest struct {
	AccountID   string `json:"account_id"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UpdateProfileRequest changes only the fields that are present; an empty
// string clears a field.
type UpdateProfileRequest struct {
	AccountID  string  `json:"account_id"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	Birthdate  *string `json:"birthdate,omitempty"`
}

type SetRoleRequest struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

type AuditTrailRequest struct {
	AccountID string `json:"account_id"`
	Limit     int    `json:"limit"`
}

type AuditEvent struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	Operation  string    `json:"operation"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuditTrailResponse struct {
	Events []*AuditEvent `json:"events"`
}

type IssuePasswordResetResponse struct {
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type ApplyPasswordResetRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type PingResponse struct {
	Status string `json:"status"`
}
