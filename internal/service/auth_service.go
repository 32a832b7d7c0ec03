package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BcryptCost        int
}

// AuthService provides registration, login and session use cases.
type AuthService struct {
	store     dataStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(store dataStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost < bcrypt.MinCost || config.BcryptCost > bcrypt.MaxCost {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{store: store, validator: validate, logger: logger, config: config}
}

// Register creates a user, marks it as the current session and issues a token.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	var user models.User
	err = s.store.Update(ctx, "register", func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if findUserByEmail(users, req.Email) >= 0 {
			return appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
		}
		user = models.User{
			ID:           tx.NewID(store.PrefixUser),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         req.Role,
		}
		tx.SetUsers(append(users, user))
		tx.SetSession(user.Info())
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to register user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login verifies credentials, marks the user as the current session and issues a token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)

	var (
		user  models.User
		found bool
	)
	err := s.store.View(ctx, "login.lookup", func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if idx := findUserByEmail(users, email); idx >= 0 {
			user, found = users[idx], true
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to fetch user")
	}
	if !found || email == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}

	err = s.store.Update(ctx, "login.session", func(tx *store.Tx) error {
		tx.SetSession(user.Info())
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to record session")
	}

	return s.issue(user)
}

// Logout clears the current session marker. It succeeds when no session exists.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.store.Update(ctx, "logout", func(tx *store.Tx) error {
		tx.ClearSession()
		return nil
	})
	return storeFailure(ctx, s.logger, err, "failed to clear session")
}

// CurrentUser returns the current session marker, or nil when nobody is signed in.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.UserInfo, error) {
	var info *models.UserInfo
	err := s.store.View(ctx, "session", func(tx *store.Tx) error {
		var err error
		info, err = tx.Session()
		return err
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to load session")
	}
	return info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) issue(user models.User) (*dto.AuthResponse, error) {
	token, issuedAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        user.Info(),
	}, nil
}

func (s *AuthService) generateAccessToken(user models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
