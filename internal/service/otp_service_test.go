package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadflow/approval-api/internal/dto"
	"github.com/acadflow/approval-api/internal/models"
	"github.com/acadflow/approval-api/pkg/config"
	appErrors "github.com/acadflow/approval-api/pkg/errors"
)

func newOTPFixture() (*OTPService, *codeStoreStub, *profileStub, *mailerStub, *auditStub) {
	codes := newCodeStoreStub()
	profiles := newProfileStub()
	mailer := &mailerStub{}
	audit := &auditStub{}
	tokens := NewTokenManager(config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "approval-api"})
	svc := NewOTPService(codes, profiles, mailer, tokens, audit, 5*time.Minute, 30*time.Second, "sonatech.ac.in", nil)
	return svc, codes, profiles, mailer, audit
}

func TestOTPSendAndVerifyFlow(t *testing.T) {
	svc, _, profiles, mailer, audit := newOTPFixture()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, dto.SendOTPRequest{Email: "Jane@Sonatech.ac.in", Role: models.RoleStudent}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jane@sonatech.ac.in", mailer.sent[0].email)
	assert.Len(t, mailer.sent[0].code, 6)

	resp, err := svc.Verify(ctx, dto.VerifyOTPRequest{
		Email: "jane@sonatech.ac.in",
		Role:  models.RoleStudent,
		OTP:   mailer.sent[0].code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, resp.FirstLogin)
	require.Len(t, profiles.created, 1)
	assert.Equal(t, models.RoleStudent, profiles.created[0].Role)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
}

func TestOTPSendCooldown(t *testing.T) {
	svc, _, _, _, _ := newOTPFixture()
	ctx := context.Background()
	req := dto.SendOTPRequest{Email: "hod@college.edu", Role: models.RoleHod}

	require.NoError(t, svc.Send(ctx, req))
	err := svc.Send(ctx, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPCooldown.Code, appErrors.FromError(err).Code)
}

func TestOTPVerifyWrongCode(t *testing.T) {
	svc, _, _, mailer, _ := newOTPFixture()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, dto.SendOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe}))
	wrong := "000000"
	if mailer.sent[0].code == wrong {
		wrong = "000001"
	}
	_, err := svc.Verify(ctx, dto.VerifyOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe, OTP: wrong})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOTP.Code, appErrors.FromError(err).Code)
}

func TestOTPVerifySingleUse(t *testing.T) {
	svc, _, _, mailer, _ := newOTPFixture()
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, dto.SendOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe}))
	req := dto.VerifyOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe, OTP: mailer.sent[0].code}

	_, err := svc.Verify(ctx, req)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidOTP.Code, appErrors.FromError(err).Code)
}

func TestOTPVerifyRoleMismatch(t *testing.T) {
	svc, _, profiles, mailer, _ := newOTPFixture()
	ctx := context.Background()
	profiles.add(&models.Profile{UserID: "user-1", Email: "teacher@college.edu", Role: models.RoleClassTeacher, IsFirstLogin: false})

	require.NoError(t, svc.Send(ctx, dto.SendOTPRequest{Email: "teacher@college.edu", Role: models.RoleHod}))
	_, err := svc.Verify(ctx, dto.VerifyOTPRequest{Email: "teacher@college.edu", Role: models.RoleHod, OTP: mailer.sent[0].code})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestOTPStudentDomainForcesStudentRole(t *testing.T) {
	svc, _, profiles, mailer, _ := newOTPFixture()
	ctx := context.Background()

	// First login from the student domain claiming an approver role
	// still creates a student profile.
	require.NoError(t, svc.Send(ctx, dto.SendOTPRequest{Email: "kid@sonatech.ac.in", Role: models.RoleHod}))
	resp, err := svc.Verify(ctx, dto.VerifyOTPRequest{Email: "kid@sonatech.ac.in", Role: models.RoleHod, OTP: mailer.sent[0].code})
	require.NoError(t, err)
	assert.True(t, resp.FirstLogin)
	require.Len(t, profiles.created, 1)
	assert.Equal(t, models.RoleStudent, profiles.created[0].Role)
}

func TestOTPSendMailFailureDiscardsCode(t *testing.T) {
	svc, codes, _, mailer, _ := newOTPFixture()
	mailer.sendErr = assert.AnError
	ctx := context.Background()

	err := svc.Send(ctx, dto.SendOTPRequest{Email: "coe@college.edu", Role: models.RoleCoe})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransient.Code, appErrors.FromError(err).Code)
	assert.Empty(t, codes.codes)
}
