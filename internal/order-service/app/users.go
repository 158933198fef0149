package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/auth"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/ports"
)

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterInput struct {
	Username  *string
	Email     *string
	Password  *string
	Password2 *string
	FirstName *string
	LastName  *string
}

type UserService struct {
	users  ports.UserStore
	issuer *auth.Issuer
	tracer trace.Tracer
}

func NewUserService(users ports.UserStore, issuer *auth.Issuer) *UserService {
	return &UserService{
		users:  users,
		issuer: issuer,
		tracer: otel.Tracer(tracerName),
	}
}

// Register creates an account and signs the caller in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, auth.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()

	u := &domain.User{}
	var password, password2 string
	f := newFields(true)
	f.text("username", in.Username, &u.Username, 150, true)
	f.email("email", in.Email, &u.Email, true)
	f.text("first_name", in.FirstName, &u.FirstName, 150, false)
	f.text("last_name", in.LastName, &u.LastName, 150, false)
	rawText(f, "password", in.Password, &password)
	rawText(f, "password2", in.Password2, &password2)
	if u.Username != "" && !validUsername(u.Username) {
		f.verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if password != "" {
		if msg := auth.ValidatePassword(password, u.Username); msg != "" {
			f.verr.Add("password", msg)
		}
	}
	if err := f.err(); err != nil {
		return nil, auth.Pair{}, err
	}
	if password != password2 {
		return nil, auth.Pair{}, domain.FieldError("password", "Password fields didn't match.")
	}

	exists, err := s.users.UsernameExists(ctx, u.Username)
	if err != nil {
		return nil, auth.Pair{}, err
	}
	if exists {
		return nil, auth.Pair{}, domain.FieldError("username", "A user with that username already exists.")
	}
	if exists, err = s.users.EmailExists(ctx, u.Email); err != nil {
		return nil, auth.Pair{}, err
	}
	if exists {
		return nil, auth.Pair{}, domain.FieldError("email", "A user with that email already exists.")
	}

	if u.PasswordHash, err = auth.HashPassword(password); err != nil {
		return nil, auth.Pair{}, err
	}
	u.DateJoined = time.Now().UTC()
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, auth.Pair{}, domain.FieldError("username", "A user with that username already exists.")
		}
		return nil, auth.Pair{}, err
	}

	pair, err := s.issuer.IssuePair(u)
	if err != nil {
		return nil, auth.Pair{}, err
	}
	slog.InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return u, pair, nil
}

// Login checks the credentials and issues a token pair.
func (s *UserService) Login(ctx context.Context, username, password *string) (auth.Pair, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login")
	defer span.End()

	var name, pass string
	f := newFields(true)
	rawText(f, "username", username, &name)
	rawText(f, "password", password, &pass)
	if err := f.err(); err != nil {
		return auth.Pair{}, err
	}

	u, err := s.users.GetUserByUsername(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return auth.Pair{}, ErrInvalidCredentials
	}
	if err != nil {
		return auth.Pair{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, pass) {
		slog.WarnContext(ctx, "login failed", "username", name)
		return auth.Pair{}, ErrInvalidCredentials
	}
	return s.issuer.IssuePair(u)
}

// Refresh exchanges a refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refresh *string) (string, error) {
	var token string
	f := newFields(true)
	rawText(f, "refresh", refresh, &token)
	if err := f.err(); err != nil {
		return "", err
	}
	return s.issuer.Refresh(token)
}

// Authenticate resolves a bearer access token to its user. Tokens of
// deleted users are rejected.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.issuer.Parse(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the account. Orders it created are kept with no creator.
func (s *UserService) Delete(ctx context.Context, u *domain.User) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Delete")
	defer span.End()

	if err := s.users.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user deleted", "user_id", u.ID, "username", u.Username)
	return nil
}

// rawText is text without trimming, for passwords and tokens.
func rawText(f *fields, name string, in *string, dst *string) {
	if in == nil {
		f.missing(name, true)
		return
	}
	if *in == "" {
		f.verr.Add(name, msgBlank)
		return
	}
	*dst = *in
}

func validUsername(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}
