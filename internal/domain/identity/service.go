package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/notification"
)

var (
	// ErrEmailTaken is returned on signup when the address already has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidCredentials is returned when email, password, or role do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	users    UserRepository
	sessions *auth.SessionManager
	notifier *notification.Manager
}

func NewService(users UserRepository, sessions *auth.SessionManager, notifier *notification.Manager) *Service {
	return &Service{users: users, sessions: sessions, notifier: notifier}
}

// Signup registers a new patient or doctor account and sends a welcome email.
func (s *Service) Signup(ctx context.Context, name, email, password, role string) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("role must be %q or %q", auth.RolePatient, auth.RoleDoctor)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Welcome email is best effort, a delivery failure never fails signup.
	s.notifier.SendFromTemplate(ctx, u.Email, "welcome", map[string]string{
		"name": u.Name,
		"role": u.Role,
	})

	return u, nil
}

// Login checks credentials and the expected role, and issues a session token.
// An account registered under a different role cannot log in through the
// other role's form.
func (s *Service) Login(ctx context.Context, email, password, role string) (string, *User, error) {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if !u.Active {
		return "", nil, ErrInvalidCredentials
	}
	if u.Role != role {
		return "", nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(u.ID.String(), u.Name, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue session: %w", err)
	}
	return token, u, nil
}

// Logout revokes the session token.
func (s *Service) Logout(token string) {
	s.sessions.Revoke(token)
}

// Get returns the account for the given user ID.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.users.GetByID(ctx, id)
}

// ListDoctors returns active doctor accounts, paginated.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.ListByRole(ctx, auth.RoleDoctor, limit, offset)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
