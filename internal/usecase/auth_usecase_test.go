package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shop_service/internal/domain"
	"shop_service/internal/repository/memory"
	"shop_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type authFixture struct {
	uc     *authUseCase
	mail   *fakeMailer
	tokens *token.Manager
}

func newAuthFixture(t *testing.T, admins ...string) authFixture {
	t.Helper()
	logger := quietLogger()
	store := memory.NewStore(logger)
	mail := &fakeMailer{}
	tokens := token.NewManager("test-secret", time.Hour)
	otps := memory.NewOTPStore()
	t.Cleanup(otps.Close)
	uc := NewAuthUseCase(store.Users(), otps, mail, tokens, 5*time.Minute, admins, logger).(*authUseCase)
	uc.newCode = func() (string, error) { return "424242", nil }
	return authFixture{uc: uc, mail: mail, tokens: tokens}
}

func emailSignup(email, otp string) SignupInput {
	return SignupInput{
		EmailOrPhone: email,
		Password:     "correct horse",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		OTP:          otp,
	}
}

func TestSendOTPMailsCode(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.uc.SendOTP(context.Background(), " Ada@Example.com "))

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, sentMail{to: "ada@example.com", subject: otpSubject, body: "Your OTP is: 424242"}, f.mail.sent[0])

	assert.ErrorIs(t, f.uc.SendOTP(context.Background(), "not-an-email"), domain.ErrInvalidArgument)
}

func TestSendOTPReportsMailFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.err = errors.New("smtp down")

	err := f.uc.SendOTP(context.Background(), "ada@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestEmailSignupConsumesOTPOnce(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	require.NoError(t, f.uc.SendOTP(ctx, "ada@example.com"))

	result, err := f.uc.Signup(ctx, emailSignup("ada@example.com", "424242"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.Empty(t, result.User.PasswordHash)

	userID, role, err := f.tokens.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)
	assert.Equal(t, string(domain.RoleUser), role)

	_, err = f.uc.Signup(ctx, emailSignup("ada@example.com", "424242"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEmailSignupRejectsWrongOrMissingOTP(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	_, err := f.uc.Signup(ctx, emailSignup("ada@example.com", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.uc.Signup(ctx, emailSignup("ada@example.com", "424242"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, f.uc.SendOTP(ctx, "ada@example.com"))
	_, err = f.uc.Signup(ctx, emailSignup("ada@example.com", "000000"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestPhoneSignupSynthesizesEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	in := emailSignup("+15550100", "")
	result, err := f.uc.Signup(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "15550100@example.com", result.User.Email)
	assert.Equal(t, "+15550100", result.User.Phone)

	_, err = f.uc.Signup(ctx, in)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = f.uc.Signup(ctx, emailSignup("555-abc", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)

	short := emailSignup("+15550100", "")
	short.Password = "short"
	_, err := f.uc.Signup(context.Background(), short)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	missing := emailSignup("+15550100", "")
	missing.FirstName = ""
	_, err = f.uc.Signup(context.Background(), missing)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSignupGrantsAdminRole(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, "Boss@Example.com")
	require.NoError(t, f.uc.SendOTP(ctx, "boss@example.com"))

	result, err := f.uc.Signup(ctx, emailSignup("boss@example.com", "424242"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	_, err := f.uc.Signup(ctx, emailSignup("+15550100", ""))
	require.NoError(t, err)

	result, err := f.uc.Login(ctx, "15550100@EXAMPLE.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = f.uc.Login(ctx, "15550100@example.com", "wrong password")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.uc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.uc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
