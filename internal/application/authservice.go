package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour

	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims is the JWT payload issued for authenticated sessions.
type Claims struct {
	Handle string `json:"handle"`
	Role   string `json:"role"`
	Use    string `json:"use"`
	jwt.RegisteredClaims
}

// TokenPair bundles the tokens handed out on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthService issues and verifies session tokens and manages credentials.
type AuthService struct {
	users  driven.UserStore
	secret []byte
	logger *slog.Logger
}

func NewAuthService(users driven.UserStore, secret []byte, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, secret: secret, logger: logger}
}

// Register creates a local account with a hashed password.
func (s *AuthService) Register(ctx context.Context, handle, email, displayName, password string) (*model.User, error) {
	handle = strings.TrimSpace(handle)
	email = strings.ToLower(strings.TrimSpace(email))

	if existing, err := s.users.GetActiveByHandle(ctx, handle); err != nil {
		return nil, fmt.Errorf("checking handle: %w", err)
	} else if existing != nil {
		return nil, ErrHandleTaken
	}
	if existing, err := s.users.GetActiveByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		PublicID:     uuid.NewString(),
		Handle:       handle,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleDefault,
		Origin:       model.OriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	s.logger.Info("user registered", slog.String("handle", user.Handle))
	return user, nil
}

// Login verifies credentials and issues a token pair. Lookup and comparison
// failures both come back as ErrInvalidCredentials so callers cannot probe
// for registered emails.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.users.GetActiveByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, *TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenUseRefresh)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	user, err := s.users.GetActiveByPublicID(ctx, claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidToken
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Authenticate resolves a bearer access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.parse(accessToken, tokenUseAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetActiveByPublicID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) issuePair(user *model.User) (*TokenPair, error) {
	access, err := s.sign(user, tokenUseAccess, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.sign(user, tokenUseRefresh, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) sign(user *model.User, use string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Handle: user.Handle,
		Role:   string(user.Role),
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.PublicID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) parse(tokenString, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Use != use {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
