// Package identity is the credential and session-cookie collaborator: it
// resolves the current user from a signed session cookie and issues or
// clears that cookie on sign-in/sign-out. Call sessions never derive
// identity themselves; they receive the identifiers this package resolves.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTTL matches the one-week session lifetime of the hosted product.
const sessionTTL = 7 * 24 * time.Hour

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// User is the platform account record.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageURL,omitempty"`
}

// Users is the user-record storage the service needs. Implementations
// return ErrUserNotFound for unknown ids/emails.
type Users interface {
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) error
}

// Result reports a sign-up/sign-in outcome with the message surfaced to
// the user.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service issues and verifies session cookies over a user store.
type Service struct {
	users  Users
	secret []byte
	secure bool
}

type ServiceOption func(*Service)

// WithSecureCookies marks issued cookies Secure; enable outside local
// development.
func WithSecureCookies(secure bool) ServiceOption {
	return func(s *Service) { s.secure = secure }
}

func NewService(users Users, secret []byte, opts ...ServiceOption) *Service {
	service := &Service{users: users, secret: secret}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// SignUpParams carries the already-authenticated identity of a new
// account; the credential provider has verified the email before this is
// called.
type SignUpParams struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
}

// SignUp creates the account record. Signing in afterwards is a separate
// step, as on the hosted product.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (Result, error) {
	if _, err := s.users.Get(ctx, params.ID); err == nil {
		return Result{Success: false, Message: "User already exists. Please sign in instead."}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return Result{Success: false, Message: "Failed to create an account."}, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.users.Create(ctx, User{
		ID:       params.ID,
		Name:     params.Name,
		Email:    params.Email,
		ImageURL: params.ImageURL,
	}); err != nil {
		return Result{Success: false, Message: "Failed to create an account."}, fmt.Errorf("creating user: %w", err)
	}

	return Result{Success: true, Message: "Account created successfully. Please sign in."}, nil
}

// SignIn resolves the account for an authenticated email and issues its
// session cookie.
func (s *Service) SignIn(ctx context.Context, email string) (*http.Cookie, Result, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, Result{Success: false, Message: "User does not exist. Please sign up instead."}, err
		}
		return nil, Result{Success: false, Message: "Failed to log into an account."}, fmt.Errorf("looking up user: %w", err)
	}

	cookie, err := s.SessionCookie(user.ID)
	if err != nil {
		return nil, Result{Success: false, Message: "Failed to log into an account."}, err
	}
	return cookie, Result{Success: true, Message: "Signed in."}, nil
}

// SessionCookie issues the signed session cookie for a user id.
func (s *Service) SessionCookie(userID string) (*http.Cookie, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// SignOut returns the cookie that clears the session.
func (s *Service) SignOut() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// CurrentUser resolves the user for a session cookie value. A missing,
// invalid, or expired cookie yields (nil, nil): not signed in is not an
// error.
func (s *Service) CurrentUser(ctx context.Context, cookieValue string) (*User, error) {
	if cookieValue == "" {
		return nil, nil
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookieValue, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		logger.Warn("rejecting session cookie", "error", err)
		return nil, nil
	}

	user, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	return &user, nil
}

// IsAuthenticated reports whether the session cookie resolves to a user.
func (s *Service) IsAuthenticated(ctx context.Context, cookieValue string) bool {
	user, err := s.CurrentUser(ctx, cookieValue)
	return err == nil && user != nil
}
