package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tbox/dashboard/credential"
	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/repositories"
	"go.uber.org/zap"
)

// Failure reasons attached to invalid credential errors. They feed the audit
// trail and logs only; callers always see InvalidCredentialsMessage.
const (
	ReasonMissingFields    = "missing_fields"
	ReasonUnknownAccount   = "unknown_account"
	ReasonPasswordMismatch = "password_mismatch"
)

// PasswordHasher hashes and compares account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	// CompareDummy performs a comparison of equal cost that always fails
	CompareDummy(password string) error
}

// TokenIssuer mints credentials
type TokenIssuer interface {
	Issue(identity credential.Identity, now time.Time) (string, *credential.Claims, error)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  credential.Identity
}

// SignupInput holds the fields of a new account
type SignupInput struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Tbox     string `json:"tbox,omitempty" validate:"omitempty,max=255"`
}

// AuthService issues credentials for registered accounts
type AuthService struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	hasher PasswordHasher
	issuer TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	hasher PasswordHasher,
	issuer TokenIssuer,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		txMgr:  txMgr,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the issuance clock
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login checks the password of the account registered under email and issues
// a credential. Every failure to authenticate is reported as ErrInvalidCredentials;
// the distinguishing reason is only available through GetErrorDetails.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		_ = s.hasher.CompareDummy(password)
		return nil, invalidCredentials(ReasonMissingFields)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = s.hasher.CompareDummy(password)
			return nil, invalidCredentials(ReasonUnknownAccount)
		}
		return nil, WrapInternal("failed to load account", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, credential.ErrPasswordMismatch) {
			return nil, invalidCredentials(ReasonPasswordMismatch).WithDetail("user_id", user.ID.String())
		}
		return nil, WrapInternal("failed to verify password", err)
	}

	identity := credential.Identity{
		ID:       user.ID.String(),
		FullName: user.FullName,
		Email:    user.Email,
	}

	token, claims, err := s.issuer.Issue(identity, s.now())
	if err != nil {
		return nil, WrapInternal("failed to issue credential", err)
	}

	s.logger.Debug("credential issued",
		zap.String("user_id", identity.ID),
		zap.Time("expires_at", claims.ExpiresAtTime()))

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAtTime(),
		Identity:  identity,
	}, nil
}

// Signup registers a new account
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if strings.TrimSpace(input.FullName) == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(input.FullName, input.Email, hash)
	if tbox := strings.TrimSpace(input.Tbox); tbox != "" {
		user.WithTbox(tbox)
	}

	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return nil, ErrDuplicateEmail
			}
			return nil, WrapInternal("failed to create account", err)
		}
		return user, nil
	})
}

// FailureReason extracts the internal reason of a failed login, if any
func FailureReason(err error) string {
	if reason, ok := GetErrorDetails(err)["reason"].(string); ok {
		return reason
	}
	return ""
}

// invalidCredentials copies ErrInvalidCredentials so the reason detail never
// lands on the shared value.
func invalidCredentials(reason string) *DomainError {
	return NewDomainError(ErrInvalidCredentials.Type, ErrInvalidCredentials.Message, nil).
		WithDetail("reason", reason)
}

var _ PasswordHasher = (*credential.BcryptHasher)(nil)
var _ TokenIssuer = (*credential.Issuer)(nil)
