package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tow-dispatch-api/models"
	"tow-dispatch-api/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// Identity is who a verified session token belongs to.
type Identity struct {
	UserID  uint
	Email   string
	IsAdmin bool
}

// Claims is the signed token payload.
type Claims struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Session is returned by Register and Login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

type AuthOption func(*AuthService)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) AuthOption { return func(s *AuthService) { s.cost = cost } }

// WithClock overrides time.Now for token issuance.
func WithClock(now func() time.Time) AuthOption { return func(s *AuthService) { s.now = now } }

func NewAuthService(st *store.Store, secret string, ttl time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:  st,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	if s.ttl <= 0 {
		s.ttl = 7 * 24 * time.Hour
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register creates a regular (non-admin) account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || len(password) < MinPasswordLength {
		return nil, validationf("Invalid email or password")
	}
	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return nil, newErr(ErrConflict, "Email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newErr(ErrConflict, "Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.session(user)
}

// Login never reveals whether the email exists: both failure paths return
// the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errInvalidCredentials()
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials()
	}
	return s.session(user)
}

func errInvalidCredentials() error { return newErr(ErrAuth, "Invalid credentials") }

// Verify checks the signature and expiry of a session token.
func (s *AuthService) Verify(token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, newErr(ErrAuth, "Unauthorized")
	}
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid || claims.ID == 0 {
		return Identity{}, newErr(ErrAuth, "Invalid token")
	}
	return Identity{UserID: claims.ID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

// Me returns the stored account behind an identity.
func (s *AuthService) Me(ctx context.Context, id Identity) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newErr(ErrNotFound, "User not found")
	}
	return u, err
}

// SeedAdmin makes sure the bootstrap administrator exists. Safe to call on
// every start.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	return s.store.EnsureAdmin(ctx, email, string(hash))
}

// IssueToken signs a token for user. Exposed for tooling and tests.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		ID:      user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
