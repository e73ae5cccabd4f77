package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillstream/lms_backend/apperr"
	"github.com/skillstream/lms_backend/models"
)

// fakeDirectory is a map-backed UserDirectory mirroring the repository
// semantics: NotFound kinds on misses, duplicate detection on create, and the
// conditional verify update.
type fakeDirectory struct {
	users map[string]*models.User
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]*models.User)}
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := d.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (d *fakeDirectory) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, u := range d.users {
		if u.PhoneNumber == phone {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range d.users {
		if u.Email != "" && u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "User not found")
}

func (d *fakeDirectory) Create(_ context.Context, user *models.User) error {
	for _, u := range d.users {
		if u.PhoneNumber == user.PhoneNumber {
			return apperr.Duplicate("phone_number")
		}
		if user.Email != "" && u.Email == user.Email {
			return apperr.Duplicate("email")
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	clone := *user
	d.users[user.ID.Hex()] = &clone
	return nil
}

func (d *fakeDirectory) ReplaceOTP(_ context.Context, id primitive.ObjectID, otp *models.OTPInfo) error {
	u, ok := d.users[id.Hex()]
	if !ok {
		return apperr.New(apperr.KindNotFound, "User not found")
	}
	u.OTP = otp
	return nil
}

func (d *fakeDirectory) MarkVerified(_ context.Context, id primitive.ObjectID, code string) (bool, error) {
	u, ok := d.users[id.Hex()]
	if !ok || u.IsVerified || u.OTP == nil || u.OTP.Code != code {
		return false, nil
	}
	u.IsVerified = true
	u.OTP = nil
	return true, nil
}

func (d *fakeDirectory) UpdateLastLogin(_ context.Context, id primitive.ObjectID) error {
	if u, ok := d.users[id.Hex()]; ok {
		u.LastLogin = time.Now()
	}
	return nil
}

// fakeNotifier records delivered codes and can be told to fail.
type fakeNotifier struct {
	sent []string
	fail bool
}

func (n *fakeNotifier) SendOTP(_ context.Context, _, _, _, code string) error {
	if n.fail {
		return errors.New("provider unreachable")
	}
	n.sent = append(n.sent, code)
	return nil
}

// fakeHasher keeps digests readable for assertions.
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (fakeHasher) Compare(digest, plaintext string) error {
	if digest != "hashed:"+plaintext {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) SessionToken(user *models.User) (string, error) {
	return "session:" + user.ID.Hex(), nil
}

func (fakeTokenIssuer) PostVerificationToken(user *models.User) (string, error) {
	return "verified:" + user.ID.Hex(), nil
}

func newTestService(dir *fakeDirectory, notifier *fakeNotifier) *AccountService {
	return NewAccountService(dir, notifier, fakeHasher{}, fakeTokenIssuer{}, 10*time.Minute)
}

func registerReq() models.RegisterRequest {
	return models.RegisterRequest{
		Name:        "Asha",
		PhoneNumber: "9876543210",
		Password:    "Abc@1234",
	}
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	dir := newFakeDirectory()
	notifier := &fakeNotifier{}
	svc := newTestService(dir, notifier)

	result, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, "Asha", result.User.Name)
	assert.Equal(t, "+919876543210", result.User.Phone)
	assert.False(t, result.User.IsVerified)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.Equal(t, "session:"+result.User.ID.Hex(), result.Token)

	stored := dir.users[result.User.ID.Hex()]
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:Abc@1234", stored.Password)
	require.NotNil(t, stored.OTP)
	assert.Len(t, stored.OTP.Code, 6)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, stored.OTP.Code, notifier.sent[0])
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.RegisterRequest)
		kind   apperr.Kind
	}{
		{"missing name", func(r *models.RegisterRequest) { r.Name = "" }, apperr.KindMissingField},
		{"missing phone", func(r *models.RegisterRequest) { r.PhoneNumber = "" }, apperr.KindMissingField},
		{"missing password", func(r *models.RegisterRequest) { r.Password = "" }, apperr.KindMissingField},
		{"weak password", func(r *models.RegisterRequest) { r.Password = "abc" }, apperr.KindWeakPassword},
		{"bad email", func(r *models.RegisterRequest) { r.Email = "not-an-email" }, apperr.KindInvalidEmail},
		{"bad phone", func(r *models.RegisterRequest) { r.PhoneNumber = "12345" }, apperr.KindInvalidPhoneFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerReq()
			tt.mutate(&req)
			_, err := svc.Register(ctx, req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	// Same number in a different written form still collides.
	req := registerReq()
	req.PhoneNumber = "+91 98765 43210"
	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateAccount, apperr.KindOf(err))
	assert.Equal(t, "phone_number", apperr.FieldOf(err))
	assert.Len(t, dir.users, 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})
	ctx := context.Background()

	req := registerReq()
	req.Email = "asha@example.com"
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req2 := registerReq()
	req2.PhoneNumber = "9876543211"
	req2.Email = "Asha@Example.com"
	_, err = svc.Register(ctx, req2)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateAccount, apperr.KindOf(err))
	assert.Equal(t, "email", apperr.FieldOf(err))
}

func TestRegisterSurvivesDeliveryFailure(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	svc := newTestService(newFakeDirectory(), notifier)

	result, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestVerifyOTPHappyPath(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()
	code := dir.users[userID].OTP.Code

	result, err := svc.VerifyOTP(ctx, userID, code)
	require.NoError(t, err)

	assert.True(t, result.User.IsVerified)
	assert.Equal(t, "verified:"+userID, result.Token)

	stored := dir.users[userID]
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.OTP)
}

func TestVerifyOTPFailures(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()
	code := dir.users[userID].OTP.Code

	_, err = svc.VerifyOTP(ctx, "", code)
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))

	_, err = svc.VerifyOTP(ctx, userID, "")
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))

	_, err = svc.VerifyOTP(ctx, primitive.NewObjectID().Hex(), code)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = svc.VerifyOTP(ctx, userID, wrong)
	assert.Equal(t, apperr.KindInvalidOTP, apperr.KindOf(err))

	// Wrong attempts never consume the pending code.
	_, err = svc.VerifyOTP(ctx, userID, code)
	require.NoError(t, err)

	// Verified accounts reject further attempts.
	_, err = svc.VerifyOTP(ctx, userID, code)
	assert.Equal(t, apperr.KindAlreadyVerified, apperr.KindOf(err))
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()

	stored := dir.users[userID]
	stored.OTP.ExpiresAt = time.Now().Add(-time.Minute)

	_, err = svc.VerifyOTP(ctx, userID, stored.OTP.Code)
	assert.Equal(t, apperr.KindOTPExpired, apperr.KindOf(err))
}

func TestVerifyOTPNoPendingCode(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()
	dir.users[userID].OTP = nil

	_, err = svc.VerifyOTP(ctx, userID, "123456")
	assert.Equal(t, apperr.KindNoPendingOTP, apperr.KindOf(err))
}

func TestResendOTPSupersedesPendingCode(t *testing.T) {
	dir := newFakeDirectory()
	notifier := &fakeNotifier{}
	svc := newTestService(dir, notifier)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()
	oldCode := dir.users[userID].OTP.Code

	expiresAt, err := svc.ResendOTP(ctx, userID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	newCode := dir.users[userID].OTP.Code
	require.Len(t, notifier.sent, 2)
	assert.Equal(t, newCode, notifier.sent[1])

	// The superseded code no longer verifies, unless the resend happened to
	// generate the same six digits.
	if oldCode != newCode {
		_, err = svc.VerifyOTP(ctx, userID, oldCode)
		assert.Equal(t, apperr.KindInvalidOTP, apperr.KindOf(err))
	}

	_, err = svc.VerifyOTP(ctx, userID, newCode)
	require.NoError(t, err)
}

func TestResendOTPFailures(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.ResendOTP(ctx, "")
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))

	_, err = svc.ResendOTP(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	userID := reg.User.ID.Hex()
	_, err = svc.VerifyOTP(ctx, userID, dir.users[userID].OTP.Code)
	require.NoError(t, err)

	_, err = svc.ResendOTP(ctx, userID)
	assert.Equal(t, apperr.KindAlreadyVerified, apperr.KindOf(err))
}

func TestResendOTPDeliveryFailureIsFatal(t *testing.T) {
	dir := newFakeDirectory()
	notifier := &fakeNotifier{}
	svc := newTestService(dir, notifier)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	notifier.fail = true
	_, err = svc.ResendOTP(ctx, reg.User.ID.Hex())
	assert.Equal(t, apperr.KindDeliveryFailed, apperr.KindOf(err))
}

func TestLoginWithPhone(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTestService(dir, &fakeNotifier{})
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	result, err := svc.Login(ctx, models.LoginRequest{
		PhoneNumber: "98765 43210",
		Password:    "Abc@1234",
	})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, result.User.ID)
	assert.Equal(t, "session:"+reg.User.ID.Hex(), result.Token)
	assert.False(t, dir.users[reg.User.ID.Hex()].LastLogin.IsZero())
}

func TestLoginWithEmail(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})
	ctx := context.Background()

	req := registerReq()
	req.Email = "asha@example.com"
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{
		Email:    "asha@example.com",
		Password: "Abc@1234",
	})
	require.NoError(t, err)
}

func TestLoginIdentifierRules(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Password: "Abc@1234"})
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))

	_, err = svc.Login(ctx, models.LoginRequest{
		PhoneNumber: "9876543210",
		Email:       "asha@example.com",
		Password:    "Abc@1234",
	})
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))

	_, err = svc.Login(ctx, models.LoginRequest{PhoneNumber: "9876543210"})
	assert.Equal(t, apperr.KindMissingField, apperr.KindOf(err))
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{
		PhoneNumber: "9876543211",
		Password:    "Abc@1234",
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Login(ctx, models.LoginRequest{
		PhoneNumber: "9876543210",
		Password:    "Wrong@1234",
	})
	assert.Equal(t, apperr.KindInvalidCredential, apperr.KindOf(err))
}

// A malformed phone at login reads the same as an unknown account, so the
// response never hints at why the identifier failed.
func TestLoginMalformedPhoneLooksUnknown(t *testing.T) {
	svc := newTestService(newFakeDirectory(), &fakeNotifier{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		PhoneNumber: "12345",
		Password:    "Abc@1234",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "No account found with these credentials", apperr.Message(err))
}

// Full lifecycle: register, verify with the delivered code, then log in.
func TestAccountLifecycle(t *testing.T) {
	dir := newFakeDirectory()
	notifier := &fakeNotifier{}
	svc := newTestService(dir, notifier)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	assert.False(t, reg.User.IsVerified)

	require.Len(t, notifier.sent, 1)
	verified, err := svc.VerifyOTP(ctx, reg.User.ID.Hex(), notifier.sent[0])
	require.NoError(t, err)
	assert.True(t, verified.User.IsVerified)

	login, err := svc.Login(ctx, models.LoginRequest{
		PhoneNumber: "+919876543210",
		Password:    "Abc@1234",
	})
	require.NoError(t, err)
	assert.True(t, login.User.IsVerified)
}
