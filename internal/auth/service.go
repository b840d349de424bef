package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nostrapizza/storefront-backend/internal/users"
	pkgauth "github.com/nostrapizza/storefront-backend/pkg/auth"
	"github.com/nostrapizza/storefront-backend/pkg/auth/session"
	"github.com/nostrapizza/storefront-backend/pkg/config"
	"github.com/nostrapizza/storefront-backend/pkg/db"
	"github.com/nostrapizza/storefront-backend/pkg/db/models"
	pkgerrors "github.com/nostrapizza/storefront-backend/pkg/errors"
	"github.com/nostrapizza/storefront-backend/pkg/logger"
	"github.com/nostrapizza/storefront-backend/pkg/security"
)

const (
	minPasswordLen   = 8
	guestPasswordLen = 24
	guestName        = "Invitado"
)

type userRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

type googleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthResult is the token pair plus profile returned by every auth flow.
type AuthResult struct {
	User         *users.Profile `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

// SignupInput carries the registration payload.
type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Service exposes login, signup and logout flows.
type Service interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	LoginGuest(ctx context.Context) (*AuthResult, error)
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	SignupGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	repo     userRepository
	sessions sessionManager
	google   googleVerifier
	limiter  rateLimiter
	logg     *logger.Logger
	jwt      config.JWTConfig
	password config.PasswordConfig
	limits   config.AuthRateLimitConfig
	now      func() time.Time
}

// NewService builds the auth service. The google verifier is optional; when
// absent the google signup flow is rejected.
func NewService(
	repo userRepository,
	sessions sessionManager,
	google googleVerifier,
	limiter rateLimiter,
	logg *logger.Logger,
	jwt config.JWTConfig,
	password config.PasswordConfig,
	limits config.AuthRateLimitConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		google:   google,
		limiter:  limiter,
		logg:     logg,
		jwt:      jwt,
		password: password,
		limits:   limits,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if err := s.allow(ctx, "login:email:"+email, int64(s.limits.LoginEmailLimit), s.limits.LoginWindow); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.PasswordHash == nil {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	s.touchLastLogin(ctx, user)
	return s.issueTokens(ctx, user)
}

// LoginGuest creates a throwaway account so the shopper can build a cart and
// check out without registering.
func (s *service) LoginGuest(ctx context.Context) (*AuthResult, error) {
	secret, err := security.GenerateGuestPassword(guestPasswordLen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate guest password")
	}
	hash, err := security.HashPassword(secret, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash guest password")
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         guestName,
		PasswordHash: &hash,
		IsGuest:      true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest user")
	}
	return s.issueTokens(ctx, user)
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	if len(input.Password) < minPasswordLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	if err := s.allow(ctx, "signup:email:"+email, int64(s.limits.SignupIPLimit), s.limits.SignupWindow); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         name,
		Email:        &email,
		PasswordHash: &hash,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		user.Phone = &phone
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with that email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.issueTokens(ctx, created)
}

// SignupGoogle verifies the ID token server-side and creates or reuses the
// account keyed by the Google subject.
func (s *service) SignupGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google sign-in is not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id token is required")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		s.touchLastLogin(ctx, user)
		return s.issueTokens(ctx, user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	newUser := &models.User{
		Name:     identity.Name,
		GoogleID: &identity.Subject,
	}
	if newUser.Name == "" {
		newUser.Name = identity.Email
	}
	if email := normalizeEmail(identity.Email); email != "" {
		newUser.Email = &email
	}

	created, err := s.repo.Create(ctx, newUser)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with that email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return s.issueTokens(ctx, created)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// issueTokens mints the JWT with a fresh jti and registers the session under
// that jti in Redis.
func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	jti := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		IsGuest: user.IsGuest,
		JTI:     jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, jti)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session")
	}

	return &AuthResult{
		User:         users.NewProfile(user),
		AccessToken:  token,
		RefreshToken: refresh,
	}, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		s.logg.Error(ctx, "rate limit check failed", err)
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

func (s *service) touchLastLogin(ctx context.Context, user *models.User) {
	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logg.Error(ctx, "stamping last login failed", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
