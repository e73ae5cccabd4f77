// services/account_service.go
package services

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
	"github.com/skillstream/lms_backend/utils"
)

// UserDirectory is the narrow storage contract the account lifecycle needs.
// Implemented by repositories.UserRepository.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ReplaceOTP(ctx context.Context, id primitive.ObjectID, otp *models.OTPInfo) error
	MarkVerified(ctx context.Context, id primitive.ObjectID, code string) (bool, error)
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error
}

// NotificationGateway delivers OTP codes out-of-band.
type NotificationGateway interface {
	SendOTP(ctx context.Context, phone, email, name, code string) error
}

// PasswordHasher hides the digest scheme from the lifecycle logic.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(digest, plaintext string) error
}

// TokenIssuer mints session tokens. Implemented by middleware.TokenIssuer.
type TokenIssuer interface {
	SessionToken(user *models.User) (string, error)
	PostVerificationToken(user *models.User) (string, error)
}

// AccountService orchestrates registration, verification, resend and login.
// It holds no per-request state; all durable state lives in the directory.
type AccountService struct {
	users    UserDirectory
	notifier NotificationGateway
	hasher   PasswordHasher
	tokens   TokenIssuer
	otpTTL   time.Duration
	logger   *log.Logger
}

func NewAccountService(users UserDirectory, notifier NotificationGateway,
	hasher PasswordHasher, tokens TokenIssuer, otpTTL time.Duration) *AccountService {
	return &AccountService{
		users:    users,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
		otpTTL:   otpTTL,
		logger:   log.New(os.Stdout, "[ACCOUNT] ", log.LstdFlags),
	}
}

// AuthResult is the success payload of the token-issuing operations.
type AuthResult struct {
	User  models.UserSummary `json:"user"`
	Token string             `json:"token"`
}

// Register creates an unverified account with a freshly issued OTP. OTP
// delivery is best-effort: a failed send never rolls back the registration.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	if req.Name == "" {
		return nil, apperr.MissingField("name")
	}
	if req.PhoneNumber == "" {
		return nil, apperr.MissingField("phone_number")
	}
	if req.Password == "" {
		return nil, apperr.MissingField("password")
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if req.Email != "" {
		email, err := utils.SanitizeEmail(req.Email)
		if err != nil {
			return nil, err
		}
		req.Email = email
	}

	phone, err := utils.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	// Pre-check for duplicates so the common case reports the colliding
	// field; the unique indexes still catch the create/create race below.
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, apperr.Duplicate("phone_number")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	if req.Email != "" {
		if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
			return nil, apperr.Duplicate("email")
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	otp, err := utils.IssueOTP(s.otpTTL)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	user := &models.User{
		Name:        utils.SanitizeInput(req.Name),
		PhoneNumber: phone,
		Email:       req.Email,
		Password:    digest,
		Role:        models.RoleUser,
		IsVerified:  false,
		OTP:         otp,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.notifier.SendOTP(ctx, user.PhoneNumber, user.Email, user.Name, otp.Code); err != nil {
		s.logger.Printf("OTP delivery failed for user %s: %v", user.ID.Hex(), err)
	}

	token, err := s.tokens.SessionToken(user)
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "Failed to generate authentication token")
	}

	return &AuthResult{User: user.Summary(), Token: token}, nil
}

// VerifyOTP checks the pending code and, on success, transitions the account
// to verified and issues the 30-day post-verification token. Exactly one
// outcome occurs per call.
func (s *AccountService) VerifyOTP(ctx context.Context, userID, code string) (*AuthResult, error) {
	user, err := s.checkPendingOTP(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	// Conditional on the exact code: a resend that raced this call makes
	// the update match nothing, and the stale code is rejected.
	ok, err := s.users.MarkVerified(ctx, user.ID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.KindInvalidOTP, "Invalid verification code")
	}

	user.IsVerified = true
	user.OTP = nil

	token, err := s.tokens.PostVerificationToken(user)
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "Failed to generate authentication token")
	}

	return &AuthResult{User: user.Summary(), Token: token}, nil
}

// VerifyPhone is the tokenless verification endpoint: same transition as
// VerifyOTP, success carries no session token.
func (s *AccountService) VerifyPhone(ctx context.Context, userID, code string) error {
	user, err := s.checkPendingOTP(ctx, userID, code)
	if err != nil {
		return err
	}

	ok, err := s.users.MarkVerified(ctx, user.ID, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.KindInvalidOTP, "Invalid verification code")
	}
	return nil
}

func (s *AccountService) checkPendingOTP(ctx context.Context, userID, code string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.MissingField("userId")
	}
	if code == "" {
		return nil, apperr.MissingField("otp")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, apperr.New(apperr.KindAlreadyVerified, "Account is already verified")
	}
	if user.OTP == nil || user.OTP.Code == "" {
		return nil, apperr.New(apperr.KindNoPendingOTP, "No verification code found. Please request a new one")
	}
	if time.Now().After(user.OTP.ExpiresAt) {
		return nil, apperr.New(apperr.KindOTPExpired, "Verification code has expired. Please request a new one")
	}
	if user.OTP.Code != code {
		return nil, apperr.New(apperr.KindInvalidOTP, "Invalid verification code")
	}
	return user, nil
}

// ResendOTP replaces the pending code with a fresh one and delivers it.
// Unlike registration, a delivery failure here is fatal: the caller asked
// specifically for a code and got nothing.
func (s *AccountService) ResendOTP(ctx context.Context, userID string) (time.Time, error) {
	if userID == "" {
		return time.Time{}, apperr.MissingField("userId")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if user.IsVerified {
		return time.Time{}, apperr.New(apperr.KindAlreadyVerified, "Account is already verified")
	}

	otp, err := utils.IssueOTP(s.otpTTL)
	if err != nil {
		return time.Time{}, apperr.Storage(err)
	}
	if err := s.users.ReplaceOTP(ctx, user.ID, otp); err != nil {
		return time.Time{}, err
	}

	if err := s.notifier.SendOTP(ctx, user.PhoneNumber, user.Email, user.Name, otp.Code); err != nil {
		s.logger.Printf("OTP resend delivery failed for user %s: %v", user.ID.Hex(), err)
		return time.Time{}, apperr.New(apperr.KindDeliveryFailed,
			"Failed to send verification code. Please try again later")
	}

	return otp.ExpiresAt, nil
}

// Login authenticates by normalized phone or raw email plus password. The
// failure message never reveals whether the identifier or the password was
// wrong beyond the NotFound/InvalidCredential distinction.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	if req.PhoneNumber == "" && req.Email == "" {
		return nil, apperr.New(apperr.KindMissingField, "Please provide either phone number or email")
	}
	if req.PhoneNumber != "" && req.Email != "" {
		return nil, apperr.New(apperr.KindMissingField, "Provide either phone number or email, not both")
	}
	if req.Password == "" {
		return nil, apperr.MissingField("password")
	}

	var user *models.User
	var err error
	if req.PhoneNumber != "" {
		phone, nerr := utils.NormalizePhone(req.PhoneNumber)
		if nerr != nil {
			// A malformed number can never match a stored canonical one, so
			// it gets the same answer as an unknown account.
			return nil, apperr.New(apperr.KindNotFound, "No account found with these credentials")
		}
		user, err = s.users.FindByPhone(ctx, phone)
	} else {
		user, err = s.users.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.New(apperr.KindNotFound, "No account found with these credentials")
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.Password, req.Password); err != nil {
		return nil, apperr.New(apperr.KindInvalidCredential, "Invalid credentials")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Last-login is advisory; a failed update must not block the login.
		s.logger.Printf("failed to update last login for user %s: %v", user.ID.Hex(), err)
	}

	token, err := s.tokens.SessionToken(user)
	if err != nil {
		return nil, apperr.New(apperr.KindConfiguration, "Failed to generate authentication token")
	}

	return &AuthResult{User: user.Summary(), Token: token}, nil
}
