package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type memoryUsers struct {
	byID map[string]User
}

func newMemoryUsers(users ...User) *memoryUsers {
	store := &memoryUsers{byID: map[string]User{}}
	for _, user := range users {
		store.byID[user.ID] = user
	}
	return store
}

func (m *memoryUsers) Get(_ context.Context, id string) (User, error) {
	user, ok := m.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryUsers) Create(_ context.Context, user User) error {
	m.byID[user.ID] = user
	return nil
}

func TestSignInIssuesCookieThatResolvesUser(t *testing.T) {
	users := newMemoryUsers(User{ID: "user-1", Name: "Ada", Email: "ada@example.com"})
	service := NewService(users, []byte("secret"))

	cookie, result, err := service.SignIn(context.Background(), "ada@example.com")
	if err != nil || !result.Success {
		t.Fatalf("expected sign-in to succeed, got result=%+v err=%v", result, err)
	}
	if cookie.Name != SessionCookieName || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie %+v", cookie)
	}

	user, err := service.CurrentUser(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("expected current user lookup to succeed, got %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Fatalf("expected cookie to resolve user-1, got %+v", user)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	service := NewService(newMemoryUsers(), []byte("secret"))

	cookie, result, err := service.SignIn(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if cookie != nil || result.Success {
		t.Fatalf("expected no cookie for unknown email")
	}
}

func TestSignUpRejectsExistingUser(t *testing.T) {
	users := newMemoryUsers(User{ID: "user-1", Email: "ada@example.com"})
	service := NewService(users, []byte("secret"))

	result, err := service.SignUp(context.Background(), SignUpParams{ID: "user-1", Email: "ada@example.com"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if result.Success {
		t.Fatalf("expected sign-up to be declined")
	}
}

func TestSignUpCreatesAccountButNotASession(t *testing.T) {
	users := newMemoryUsers()
	service := NewService(users, []byte("secret"))

	result, err := service.SignUp(context.Background(), SignUpParams{ID: "user-2", Name: "Grace", Email: "grace@example.com"})
	if err != nil || !result.Success {
		t.Fatalf("expected sign-up to succeed, got result=%+v err=%v", result, err)
	}

	if _, err := users.Get(context.Background(), "user-2"); err != nil {
		t.Fatalf("expected account record to exist, got %v", err)
	}
}

func TestCurrentUserWithoutCookieIsNotAnError(t *testing.T) {
	service := NewService(newMemoryUsers(), []byte("secret"))

	user, err := service.CurrentUser(context.Background(), "")
	if err != nil || user != nil {
		t.Fatalf("expected (nil, nil) for missing cookie, got user=%+v err=%v", user, err)
	}
}

func TestCurrentUserRejectsForgedAndExpiredTokens(t *testing.T) {
	users := newMemoryUsers(User{ID: "user-1"})
	service := NewService(users, []byte("secret"))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
	forgedValue, err := forged.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign forged token: %v", err)
	}
	if user, err := service.CurrentUser(context.Background(), forgedValue); err != nil || user != nil {
		t.Fatalf("expected forged cookie to be rejected, got user=%+v err=%v", user, err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	expiredValue, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}
	if user, err := service.CurrentUser(context.Background(), expiredValue); err != nil || user != nil {
		t.Fatalf("expected expired cookie to be rejected, got user=%+v err=%v", user, err)
	}
}

func TestSignOutClearsSessionCookie(t *testing.T) {
	service := NewService(newMemoryUsers(), []byte("secret"))

	cookie := service.SignOut()
	if cookie.Name != SessionCookieName || cookie.MaxAge != -1 || cookie.Value != "" {
		t.Fatalf("expected clearing cookie, got %+v", cookie)
	}
}
