package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/util"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AuthService registers users and issues and checks JWTs
type AuthService struct {
	users      UserStore
	refreshes  RefreshTokenStore
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// AuthOptions configures token signing and lifetimes
type AuthOptions struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, refreshes RefreshTokenStore, opts AuthOptions) *AuthService {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 5 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		refreshes:  refreshes,
		secret:     []byte(opts.Secret),
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		logger:     util.GetLogger(),
	}
}

// TokenClaims are the claims of both access and refresh tokens
type TokenClaims struct {
	UserID    string      `json:"user_id"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// RegisterRequest is the body of POST /users
type RegisterRequest struct {
	Username    string      `json:"username" binding:"required,max=150"`
	Password    string      `json:"password" binding:"required,min=8,max=72"`
	Email       string      `json:"email" binding:"required,email"`
	FirstName   string      `json:"first_name" binding:"max=150"`
	LastName    string      `json:"last_name" binding:"max=150"`
	PhoneNumber *string     `json:"phone_number" binding:"omitempty,max=20"`
	Role        models.Role `json:"role" binding:"required"`
}

// TokenRequest is the body of POST /token
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /token/refresh and /token/blacklist
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// TokenPair is returned by ObtainToken
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessToken is returned by Refresh
type AccessToken struct {
	Access string `json:"access"`
}

// Register creates a guest or host account. Admins are only created out of
// band.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	v := &ValidationError{}
	if req.Role != models.RoleGuest && req.Role != models.RoleHost {
		v.Add("role", fmt.Sprintf("%q is not a valid choice; use guest or host", req.Role))
	}
	if strings.TrimSpace(req.Username) == "" {
		v.Add("username", "this field may not be blank")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PhoneNumber:  req.PhoneNumber,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fromStore(err, "user")
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, id policy.Identity) (*models.User, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return user, nil
}

// ObtainToken checks credentials and issues an access/refresh pair
func (s *AuthService) ObtainToken(ctx context.Context, req *TokenRequest) (*TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.ObtainToken")
	defer span.End()

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if IsNotFound(fromStore(err, "user")) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthenticated
	}

	access, err := s.sign(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	jti := uuid.New().String()
	refresh, err := s.signWithID(user, tokenTypeRefresh, s.refreshTTL, jti)
	if err != nil {
		return nil, err
	}
	if err := s.refreshes.StoreRefreshToken(ctx, jti, user.ID.String(), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to register refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AccessToken, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Refresh")
	defer span.End()

	claims, err := s.parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	owner, ok, err := s.refreshes.RefreshTokenOwner(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !ok || owner != claims.UserID {
		return nil, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if IsNotFound(fromStore(err, "user")) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	access, err := s.sign(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &AccessToken{Access: access}, nil
}

// Blacklist revokes a refresh token
func (s *AuthService) Blacklist(ctx context.Context, req *RefreshRequest) error {
	claims, err := s.parse(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return err
	}
	return s.refreshes.RevokeRefreshToken(ctx, claims.ID)
}

// Authenticate turns a bearer access token into an identity
func (s *AuthService) Authenticate(token string) (policy.Identity, error) {
	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return policy.Anonymous(), err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.Valid() {
		return policy.Anonymous(), ErrUnauthenticated
	}
	return policy.Identity{UserID: userID, Role: claims.Role, Authenticated: true}, nil
}

func (s *AuthService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	return s.signWithID(user, tokenType, ttl, uuid.New().String())
}

func (s *AuthService) signWithID(user *models.User, tokenType string, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:    user.ID.String(),
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *AuthService) parse(tokenString, wantType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Expired token presented", zap.String("type", wantType))
		}
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}
