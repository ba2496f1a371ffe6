// Package auth owns user accounts and bearer tokens.
package auth

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "notifyhub/internal/model"
    "notifyhub/internal/store"
)

var (
    ErrInvalidCredentials = errors.New("invalid credentials")
    ErrInvalidToken       = errors.New("invalid token")
    ErrUserExists         = errors.New("username taken")
)

// Principal identifies an authenticated caller.
type Principal struct {
    UserID   string
    Username string
}

// TokenPair is the access/refresh pair handed out on register and login.
type TokenPair struct {
    Access  string `json:"accessToken"`
    Refresh string `json:"refreshToken"`
}

// Claims carried by both token kinds; TokenUse distinguishes them so a
// refresh token can never pass an access check.
type Claims struct {
    jwt.RegisteredClaims
    Username string `json:"username"`
    TokenUse string `json:"token_use"`
}

// Service issues and verifies HS256 tokens backed by the user store.
type Service struct {
    store      store.Store
    secret     []byte
    accessTTL  time.Duration
    refreshTTL time.Duration
    now        func() time.Time
}

func NewService(s store.Store, secret string) *Service {
    return &Service{
        store:      s,
        secret:     []byte(secret),
        accessTTL:  15 * time.Minute,
        refreshTTL: 7 * 24 * time.Hour,
        now:        time.Now,
    }
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (model.User, error) {
    hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
    if err != nil {
        return model.User{}, err
    }
    u := model.User{
        ID:           uuid.New().String(),
        Username:     username,
        Email:        email,
        PasswordHash: string(hash),
        CreatedAt:    s.now().UTC(),
    }
    if err := s.store.CreateUser(ctx, u); err != nil {
        if errors.Is(err, store.ErrExists) { return model.User{}, ErrUserExists }
        return model.User{}, err
    }
    return u, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.User, error) {
    u, err := s.store.GetUserByName(ctx, username)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) { return model.User{}, ErrInvalidCredentials }
        return model.User{}, err
    }
    if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
        return model.User{}, ErrInvalidCredentials
    }
    return u, nil
}

// Issue returns a fresh access/refresh pair for the user.
func (s *Service) Issue(u model.User) (TokenPair, error) {
    access, err := s.sign(u, "access", s.accessTTL)
    if err != nil {
        return TokenPair{}, err
    }
    refresh, err := s.sign(u, "refresh", s.refreshTTL)
    if err != nil {
        return TokenPair{}, err
    }
    return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
    claims, err := s.parse(refreshToken)
    if err != nil || claims.TokenUse != "refresh" {
        return "", ErrInvalidToken
    }
    u, err := s.store.GetUserByID(ctx, claims.Subject)
    if err != nil {
        return "", ErrInvalidToken
    }
    return s.sign(u, "access", s.accessTTL)
}

// Verify validates an access token and returns the caller's identity.
func (s *Service) Verify(token string) (Principal, error) {
    claims, err := s.parse(token)
    if err != nil || claims.TokenUse != "access" {
        return Principal{}, ErrInvalidToken
    }
    return Principal{UserID: claims.Subject, Username: claims.Username}, nil
}

func (s *Service) sign(u model.User, use string, ttl time.Duration) (string, error) {
    now := s.now()
    claims := Claims{
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   u.ID,
            ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
            IssuedAt:  jwt.NewNumericDate(now),
            Issuer:    "notifyhub",
        },
        Username: u.Username,
        TokenUse: use,
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
    if err != nil {
        return "", fmt.Errorf("sign %s token: %w", use, err)
    }
    return signed, nil
}

func (s *Service) parse(token string) (*Claims, error) {
    claims := &Claims{}
    parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return s.secret, nil
    }, jwt.WithTimeFunc(s.now))
    if err != nil || !parsed.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
