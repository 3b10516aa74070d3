package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/config"
	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.OwnerResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	store repository.Store
	cfg   *config.Config
	cost  int
	now   func() time.Time
}

func NewAuthService(store repository.Store, cfg *config.Config) AuthService {
	return &authService{store: store, cfg: cfg, cost: 12, now: time.Now}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.OwnerResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}
	owner := &model.Owner{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.store.Owners().Create(ctx, owner); err != nil {
		if errors.Is(err, apierror.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", apierror.ErrDuplicate)
		}
		return nil, err
	}
	resp := ownerToResponse(owner)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	owner, err := s.store.Owners().FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.ErrUnauthorized
	}

	ttl := time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	token, err := IssueToken(s.cfg.JWTSecret, owner, s.now(), ttl)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(ttl.Seconds()),
		Owner:       ownerToResponse(owner),
	}, nil
}

// IssueToken signs an HS256 access token carrying the owner id. The auth
// middleware reads the same claims.
func IssueToken(secret string, owner *model.Owner, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth: JWT secret not configured")
	}
	claims := jwt.MapClaims{
		"owner_id": owner.ID.String(),
		"email":    owner.Email,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ownerToResponse(o *model.Owner) dto.OwnerResponse {
	return dto.OwnerResponse{ID: o.ID.String(), Email: o.Email, Name: o.Name}
}
