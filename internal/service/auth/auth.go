package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	jwtMiddleware "github.com/advaitbhat/tripnest/internal/middleware"
	"github.com/advaitbhat/tripnest/internal/store/agencies"
)

type AuthService struct {
	log      *zap.Logger
	agencies *agencies.AgenciesRepository
	secret   string
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string     `json:"token"`
	Agency  AgencyInfo `json:"agency"`
	Expires time.Time  `json:"expires"`
}

type AgencyInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAgencyExists       = errors.New("agency already exists")
	ErrAgencyNotFound     = errors.New("agency not found")
)

func NewAuthService(log *zap.Logger, agencies *agencies.AgenciesRepository, secret string) *AuthService {
	return &AuthService{log: log, agencies: agencies, secret: secret}
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	existing, err := s.agencies.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrAgencyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	agency := &agencies.Agency{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hashedPassword),
	}

	agency, err = s.agencies.Create(ctx, agency)
	if err != nil {
		return nil, fmt.Errorf("failed to create agency: %w", err)
	}

	return s.buildSession(agency)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	agency, err := s.agencies.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if agency == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(agency.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.buildSession(agency)
}

func (s *AuthService) ChangePassword(ctx context.Context, agencyID string, req PasswordChangeRequest) error {
	agency, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return err
	}
	if agency == nil {
		return ErrAgencyNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(agency.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.agencies.UpdatePassword(ctx, agencyID, string(hashedPassword))
}

func (s *AuthService) buildSession(agency *agencies.Agency) (*LoginResponse, error) {
	ttl := 24 * time.Hour
	token, err := jwtMiddleware.Issue(s.secret, agency.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{
		Token:   token,
		Expires: time.Now().Add(ttl),
		Agency: AgencyInfo{
			ID:    agency.ID,
			Name:  agency.Name,
			Email: agency.Email,
			Phone: agency.Phone,
		},
	}, nil
}
