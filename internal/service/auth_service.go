package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/mail"
)

type authUserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListPending(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type mailDispatcher interface {
	Dispatch(msg mail.Message)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret     string
	TokenExpiry     time.Duration
	Issuer          string
	FrontendBaseURL string
}

// Claims is the JWT payload issued on login.
type Claims struct {
	Role    string  `json:"role"`
	GroupID *string `json:"group_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthService provides authentication and account lifecycle use cases.
// New accounts stay inactive until an admin validates them.
type AuthService struct {
	users     authUserStore
	mailer    mailDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserStore, mailer mailDispatcher, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, mailer: mailer, validator: validate, logger: logger, config: config}
}

// Login authenticates a user and returns an issued token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		User:        userInfo(user),
	}, nil
}

// Register creates a new inactive account and notifies the user by email.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       false,
	}
	if req.GroupID != "" {
		user.GroupID = &req.GroupID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	if s.mailer != nil {
		s.mailer.Dispatch(mail.Message{
			ToName:   user.FullName,
			ToEmail:  user.Email,
			Subject:  "Your account is pending validation",
			HTMLBody: fmt.Sprintf("<p>Hello %s,</p><p>Your account was created and is awaiting validation by an administrator. You will receive a confirmation once it is approved.</p>", user.FullName),
			TextBody: fmt.Sprintf("Hello %s, your account was created and is awaiting validation by an administrator.", user.FullName),
		})
	}

	info := userInfo(user)
	return &info, nil
}

// ListPendingAccounts returns accounts awaiting admin validation.
func (s *AuthService) ListPendingAccounts(ctx context.Context) ([]dto.UserInfo, error) {
	users, err := s.users.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending accounts")
	}
	infos := make([]dto.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, userInfo(&users[i]))
	}
	return infos, nil
}

// ValidateAccount activates an account and notifies the user.
func (s *AuthService) ValidateAccount(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}
	if user.Active {
		return appErrors.Clone(appErrors.ErrConflict, "account is already active")
	}

	if err := s.users.SetActive(ctx, userID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate account")
	}

	if s.mailer != nil {
		s.mailer.Dispatch(mail.Message{
			ToName:   user.FullName,
			ToEmail:  user.Email,
			Subject:  "Your account has been validated",
			HTMLBody: fmt.Sprintf("<p>Hello %s,</p><p>Your account is now active. You can sign in at <a href=%q>%s</a>.</p>", user.FullName, s.config.FrontendBaseURL, s.config.FrontendBaseURL),
			TextBody: fmt.Sprintf("Hello %s, your account is now active. Sign in at %s", user.FullName, s.config.FrontendBaseURL),
		})
	}
	return nil
}

// ForgotPassword sends a reset email. It deliberately succeeds even when
// the email is unknown so account existence is not leaked.
func (s *AuthService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if s.mailer != nil {
		resetURL := fmt.Sprintf("%s/reset-password", s.config.FrontendBaseURL)
		s.mailer.Dispatch(mail.Message{
			ToName:   user.FullName,
			ToEmail:  user.Email,
			Subject:  "Password reset requested",
			HTMLBody: fmt.Sprintf("<p>Hello %s,</p><p>A password reset was requested for your account. Set a new password at <a href=%q>%s</a>. Ignore this email if you did not ask for it.</p>", user.FullName, resetURL, resetURL),
			TextBody: fmt.Sprintf("Hello %s, set a new password at %s", user.FullName, resetURL),
		})
	}
	return nil
}

// ResetPassword replaces the stored password for an account.
func (s *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// Profile returns the account behind a token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (*dto.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch account")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role:    user.Role,
		GroupID: user.GroupID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

func userInfo(user *models.User) dto.UserInfo {
	return dto.UserInfo{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		GroupID:  user.GroupID,
		Semester: user.Semester,
		Active:   user.Active,
	}
}
