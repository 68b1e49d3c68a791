package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/internal/repository"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

type otpCodeStore interface {
	SaveCode(ctx context.Context, email string, role models.UserRole, hash string, ttl time.Duration) error
	FetchCode(ctx context.Context, email string, role models.UserRole) (string, error)
	DeleteCode(ctx context.Context, email string, role models.UserRole) error
	AcquireCooldown(ctx context.Context, email string, role models.UserRole, ttl time.Duration) (bool, error)
}

type otpProfileStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
}

type otpMailer interface {
	SendOTP(ctx context.Context, email string, role models.UserRole, code string, validMinutes int) error
}

type tokenIssuer interface {
	Issue(profile *models.Profile) (string, time.Time, error)
}

// OTPService implements passwordless login: a 6-digit code per
// (email, role) pair, hashed at rest, expiring with its Redis TTL and
// consumed on first successful verification.
type OTPService struct {
	codes    otpCodeStore
	profiles otpProfileStore
	mailer   otpMailer
	tokens   tokenIssuer
	audit    auditLogger

	ttl            time.Duration
	resendCooldown time.Duration
	studentDomain  string
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewOTPService constructs the service.
func NewOTPService(codes otpCodeStore, profiles otpProfileStore, mailer otpMailer, tokens tokenIssuer, audit auditLogger, ttl, resendCooldown time.Duration, studentDomain string, logger *zap.Logger) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPService{
		codes:          codes,
		profiles:       profiles,
		mailer:         mailer,
		tokens:         tokens,
		audit:          audit,
		ttl:            ttl,
		resendCooldown: resendCooldown,
		studentDomain:  studentDomain,
		validate:       validator.New(),
		logger:         logger,
	}
}

// Send issues a fresh login code and mails it. A new code overwrites any
// earlier unexpired one; resends inside the cooldown window are refused.
func (s *OTPService) Send(ctx context.Context, req dto.SendOTPRequest) error {
	email := normalizeEmail(req.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "a valid email address is required")
	}
	if !models.ValidRole(req.Role) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	ok, err := s.codes.AcquireCooldown(ctx, email, req.Role, s.resendCooldown)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "otp store unavailable")
	}
	if !ok {
		return appErrors.ErrOTPCooldown
	}

	code, err := generateCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate otp")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash otp")
	}

	if err := s.codes.SaveCode(ctx, email, req.Role, string(hash), s.ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "otp store unavailable")
	}

	if err := s.mailer.SendOTP(ctx, email, req.Role, code, int(s.ttl.Minutes())); err != nil {
		if delErr := s.codes.DeleteCode(ctx, email, req.Role); delErr != nil {
			s.logger.Warn("failed to discard otp after mail failure", zap.String("email", email), zap.Error(delErr))
		}
		return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "could not deliver the otp email")
	}

	s.logger.Info("otp issued", zap.String("email", email), zap.String("role", string(req.Role)))
	return nil
}

// Verify exchanges a code for a session token, creating a minimal
// profile on the very first login.
func (s *OTPService) Verify(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	email := normalizeEmail(req.Email)
	if !models.ValidRole(req.Role) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if err := s.validate.Var(req.OTP, "required,len=6,numeric"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "otp must be a 6-digit code")
	}

	hash, err := s.codes.FetchCode(ctx, email, req.Role)
	if errors.Is(err, repository.ErrOTPNotFound) {
		return nil, appErrors.ErrInvalidOTP
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "otp store unavailable")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OTP)) != nil {
		return nil, appErrors.ErrInvalidOTP
	}
	// Single use: a replayed code must not verify again.
	if err := s.codes.DeleteCode(ctx, email, req.Role); err != nil {
		s.logger.Warn("failed to consume otp", zap.String("email", email), zap.Error(err))
	}

	profile, err := s.resolveOrCreate(ctx, email, req.Role)
	if err != nil {
		return nil, err
	}
	if !profile.IsFirstLogin && profile.Role != req.Role {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account is registered under a different role")
	}

	token, expiresAt, err := s.tokens.Issue(profile)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		userID := profile.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:   &userID,
			Action:   models.AuditActionLogin,
			Resource: "profile",
		}); err != nil {
			s.logger.Warn("failed to record login audit", zap.Error(err))
		}
	}

	now := time.Now().UTC()
	return &dto.VerifyOTPResponse{
		AccessToken: token,
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
		IssuedAt:    now,
		FirstLogin:  profile.IsFirstLogin,
		Profile:     profile,
	}, nil
}

// resolveOrCreate returns the profile for the email, creating a minimal
// first-login row when none exists. Accounts on the student email domain
// always start as students regardless of the requested role.
func (s *OTPService) resolveOrCreate(ctx context.Context, email string, role models.UserRole) (*models.Profile, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "profile store unavailable")
	}

	initialRole := role
	if s.studentDomain != "" && strings.HasSuffix(email, "@"+s.studentDomain) {
		initialRole = models.RoleStudent
	}
	created := &models.Profile{
		UserID:       uuid.NewString(),
		Email:        email,
		Role:         initialRole,
		IsFirstLogin: true,
	}
	if err := s.profiles.Create(ctx, created); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "profile store unavailable")
	}
	s.logger.Info("profile created on first login", zap.String("email", email), zap.String("role", string(initialRole)))
	return created, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode draws a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
