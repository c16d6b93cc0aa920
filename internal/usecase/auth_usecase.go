package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"shop_service/internal/domain"
	"shop_service/internal/mailer"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	phoneEmailDomain  = "example.com"
	otpSubject        = "Your OTP for registration"
)

var errBadCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthenticated)

type TokenIssuer interface {
	Issue(userID int, role string) (string, error)
}

type SignupInput struct {
	EmailOrPhone string
	Password     string
	FirstName    string
	LastName     string
	OTP          string
}

type AuthUseCase interface {
	SendOTP(ctx context.Context, email string) error
	Signup(ctx context.Context, in SignupInput) (*domain.AuthResult, error)
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
}

type authUseCase struct {
	users   domain.UserRepository
	otps    domain.OTPStore
	mail    mailer.Mailer
	tokens  TokenIssuer
	otpTTL  time.Duration
	admins  map[string]bool
	newCode func() (string, error)
	log     *logrus.Logger
}

// NewAuthUseCase wires identity. Accounts whose email is listed in
// adminEmails are created with the admin role.
func NewAuthUseCase(users domain.UserRepository, otps domain.OTPStore, mail mailer.Mailer, tokens TokenIssuer,
	otpTTL time.Duration, adminEmails []string, logger *logrus.Logger) AuthUseCase {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &authUseCase{
		users:   users,
		otps:    otps,
		mail:    mail,
		tokens:  tokens,
		otpTTL:  otpTTL,
		admins:  admins,
		newCode: generateOTP,
		log:     logger,
	}
}

// generateOTP returns a six digit code without a leading zero.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail provides a basic check for email format.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}

func isValidPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		default:
			return false
		}
	}
	return digits >= 7
}

func (uc *authUseCase) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		uc.log.Warnf("Use Case: OTP requested for invalid email: %s", email)
		return invalid("a valid email is required")
	}

	code, err := uc.newCode()
	if err != nil {
		uc.log.Errorf("Use Case: %v", err)
		return err
	}
	if err := uc.otps.Save(ctx, email, code, uc.otpTTL); err != nil {
		uc.log.Errorf("Use Case: Failed to store OTP for %s: %v", email, err)
		return err
	}
	if err := uc.mail.Send(ctx, email, otpSubject, "Your OTP is: "+code); err != nil {
		uc.log.Errorf("Use Case: Failed to deliver OTP to %s: %v", email, err)
		return fmt.Errorf("failed to send otp: %w", err)
	}

	uc.log.Infof("Use Case: OTP sent to %s", email)
	return nil
}

// Signup registers by email (OTP required, single use) or by phone, which
// gets a synthetic <phone>@example.com account email.
func (uc *authUseCase) Signup(ctx context.Context, in SignupInput) (*domain.AuthResult, error) {
	identifier := strings.TrimSpace(in.EmailOrPhone)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if identifier == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		uc.log.Warn("Use Case: Signup failed - missing fields")
		return nil, invalid("all fields are required")
	}
	if len(in.Password) < minPasswordLength {
		uc.log.Warnf("Use Case: Signup failed - password too short for %s", identifier)
		return nil, invalid("password must be at least %d characters long", minPasswordLength)
	}

	user := &domain.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      domain.RoleUser,
	}
	if strings.Contains(identifier, "@") {
		user.Email = normalizeEmail(identifier)
		if !isValidEmail(user.Email) {
			return nil, invalid("invalid email format")
		}
		if err := uc.verifyOTP(ctx, user.Email, in.OTP); err != nil {
			return nil, err
		}
	} else {
		if !isValidPhone(identifier) {
			return nil, invalid("invalid phone number")
		}
		user.Phone = identifier
		user.Email = strings.TrimPrefix(identifier, "+") + "@" + phoneEmailDomain
	}
	if uc.admins[user.Email] {
		user.Role = domain.RoleAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to hash password for %s: %v", user.Email, err)
		return nil, fmt.Errorf("internal error processing password: %w", err)
	}
	user.PasswordHash = string(hashed)

	created, err := uc.users.CreateUser(ctx, user)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to create user %s: %v", user.Email, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User registered successfully. ID: %d, Email: %s", created.ID, created.Email)
	return uc.issue(created)
}

func (uc *authUseCase) verifyOTP(ctx context.Context, email, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return invalid("otp is required for email signup")
	}
	stored, err := uc.otps.Consume(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warnf("Use Case: Signup failed - no pending OTP for %s", email)
			return fmt.Errorf("otp expired or not requested: %w", domain.ErrUnauthenticated)
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		uc.log.Warnf("Use Case: Signup failed - wrong OTP for %s", email)
		return fmt.Errorf("invalid otp: %w", domain.ErrUnauthenticated)
	}
	return nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			uc.log.Warnf("Use Case: Auth failed - user not found: %s", email)
			return nil, errBadCredentials
		}
		uc.log.Errorf("Use Case: Error retrieving user %s during auth: %v", email, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.log.Warnf("Use Case: Auth failed - incorrect password for user %s (ID: %d)", email, user.ID)
			return nil, errBadCredentials
		}
		uc.log.Errorf("Use Case: Error comparing password hash for user %s: %v", email, err)
		return nil, fmt.Errorf("internal error during authentication: %w", err)
	}

	uc.log.Infof("Use Case: Authentication successful for user %s (ID: %d)", email, user.ID)
	return uc.issue(user)
}

func (uc *authUseCase) issue(user *domain.User) (*domain.AuthResult, error) {
	token, err := uc.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		uc.log.Errorf("Use Case: Failed to issue token for user %d: %v", user.ID, err)
		return nil, err
	}
	user.PasswordHash = ""
	return &domain.AuthResult{Token: token, User: user}, nil
}
