package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/mail"
)

type userStoreStub struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created []*models.User
}

func newUserStoreStub(users ...*models.User) *userStoreStub {
	s := &userStoreStub{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) ListPending(ctx context.Context) ([]models.User, error) {
	var pending []models.User
	for _, u := range s.byID {
		if !u.Active {
			pending = append(pending, *u)
		}
	}
	return pending, nil
}

func (s *userStoreStub) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-" + user.Email
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	s.created = append(s.created, user)
	return nil
}

func (s *userStoreStub) SetActive(ctx context.Context, id string, active bool) error {
	if u, ok := s.byID[id]; ok {
		u.Active = active
	}
	return nil
}

func (s *userStoreStub) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if u, ok := s.byID[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type mailerStub struct {
	sent []mail.Message
}

func (m *mailerStub) Dispatch(msg mail.Message) {
	m.sent = append(m.sent, msg)
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		TokenSecret:     "test-secret",
		TokenExpiry:     time.Hour,
		Issuer:          "unitime-api",
		FrontendBaseURL: "http://localhost:5173",
	}
}

func activeUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u-" + email,
		FullName:     "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	user := activeUser(t, "admin@unitime.io", "s3cretpass", models.RoleAdmin)
	svc := NewAuthService(newUserStoreStub(user), nil, nil, zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: user.Email, Password: "s3cretpass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, user.ID, resp.User.ID)
	require.Equal(t, models.RoleAdmin, resp.User.Role)

	parsed, err := jwt.ParseWithClaims(resp.AccessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(*Claims)
	require.True(t, ok)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, models.RoleAdmin, claims.Role)
	require.Equal(t, "unitime-api", claims.Issuer)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	user := activeUser(t, "admin@unitime.io", "s3cretpass", models.RoleAdmin)
	svc := NewAuthService(newUserStoreStub(user), nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := NewAuthService(newUserStoreStub(), nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ghost@unitime.io", Password: "whatever"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	user := activeUser(t, "new@unitime.io", "s3cretpass", models.RoleStudent)
	user.Active = false
	svc := NewAuthService(newUserStoreStub(user), nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: user.Email, Password: "s3cretpass"})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestRegisterCreatesInactiveAccountAndNotifies(t *testing.T) {
	store := newUserStoreStub()
	mailer := &mailerStub{}
	svc := NewAuthService(store, mailer, nil, zap.NewNop(), testAuthConfig())

	info, err := svc.Register(context.Background(), dto.RegisterRequest{
		FullName: "New Student",
		Email:    "student@unitime.io",
		Password: "longenough",
		Role:     models.RoleStudent,
		GroupID:  "AD",
	})
	require.NoError(t, err)
	require.False(t, info.Active)
	require.NotNil(t, info.GroupID)
	require.Equal(t, "AD", *info.GroupID)

	require.Len(t, store.created, 1)
	require.False(t, store.created[0].Active)
	require.NotEqual(t, "longenough", store.created[0].PasswordHash)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "student@unitime.io", mailer.sent[0].ToEmail)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	user := activeUser(t, "taken@unitime.io", "s3cretpass", models.RoleStudent)
	svc := NewAuthService(newUserStoreStub(user), nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		FullName: "Other",
		Email:    "taken@unitime.io",
		Password: "longenough",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestValidateAccountActivatesAndNotifies(t *testing.T) {
	user := activeUser(t, "pending@unitime.io", "s3cretpass", models.RoleTeacher)
	user.Active = false
	store := newUserStoreStub(user)
	mailer := &mailerStub{}
	svc := NewAuthService(store, mailer, nil, zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.ValidateAccount(context.Background(), user.ID))
	require.True(t, user.Active)
	require.Len(t, mailer.sent, 1)

	err := svc.ValidateAccount(context.Background(), user.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	mailer := &mailerStub{}
	svc := NewAuthService(newUserStoreStub(), mailer, nil, zap.NewNop(), testAuthConfig())

	err := svc.ForgotPassword(context.Background(), dto.ForgotPasswordRequest{Email: "ghost@unitime.io"})
	require.NoError(t, err)
	require.Empty(t, mailer.sent)
}

func TestResetPasswordReplacesHash(t *testing.T) {
	user := activeUser(t, "reset@unitime.io", "oldpassword", models.RoleStudent)
	store := newUserStoreStub(user)
	svc := NewAuthService(store, nil, nil, zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{
		Email:       user.Email,
		NewPassword: "brandnewpass",
	}))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brandnewpass")))
}
