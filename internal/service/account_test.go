package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"github.com/olegiv/ocms-community/internal/auth"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/testutil"
)

func validRegistration() RegistrationInput {
	return RegistrationInput{
		ProfileInput: ProfileInput{
			FirstName: "Ivan",
			LastName:  "Petrov",
			City:      "Almaty",
			Phone:     "+77001234567",
			WorkPlace: "City Hospital",
			Specialty: "Cardiology",
		},
		Email:     "a@x.com",
		Iin:       "123456789012",
		Password1: "s3cret-pass",
		Password2: "s3cret-pass",
	}
}

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestRegister(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)

	ok, err := auth.CheckPassword("s3cret-pass", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Register(ctx, validRegistration())
	errs := fieldErrors(t, err)
	assert.Equal(t, "account.error.email_taken", errs[model.FieldEmail].Key)
	assert.Equal(t, "account.error.phone_taken", errs[model.FieldPhone].Key)
	assert.Equal(t, "account.error.iin_taken", errs[model.FieldIin].Key)
}

func TestRegister_StripsMarkup(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)

	in := validRegistration()
	in.FirstName = "<b>Ivan</b>"
	in.LastName = " <script>x</script>Petrov "
	in.City = "<i>Almaty</i>"
	in.WorkPlace = `<a href="http://evil">Clinic</a>`
	in.Specialty = "Tom &amp; Jerry"

	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Ivan", user.FirstName)
	assert.Equal(t, "Petrov", user.LastName)
	assert.Equal(t, "Almaty", user.City)
	assert.Equal(t, "Clinic", user.WorkPlace)
	assert.Equal(t, "Tom & Jerry", user.Specialty)
}

func TestRegister_MarkupOnlyIsRequired(t *testing.T) {
	svc := NewAccountService(testutil.TestDB(t))
	in := validRegistration()
	in.City = "<b></b>"

	_, err := svc.Register(context.Background(), in)
	errs := fieldErrors(t, err)
	assert.Equal(t, "account.error.required", errs[model.FieldCity].Key)
}

func TestRegister_FieldValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegistrationInput)
		field  string
		key    string
	}{
		{"missing email", func(in *RegistrationInput) { in.Email = "" }, model.FieldEmail, "account.error.required"},
		{"bad email", func(in *RegistrationInput) { in.Email = "not-an-email" }, model.FieldEmail, "account.error.invalid_email"},
		{"display name email", func(in *RegistrationInput) { in.Email = "Ivan <a@x.com>" }, model.FieldEmail, "account.error.invalid_email"},
		{"phone without plus", func(in *RegistrationInput) { in.Phone = "77001234567" }, model.FieldPhone, "account.error.phone_invalid"},
		{"phone nine digits", func(in *RegistrationInput) { in.Phone = "+770012345" }, model.FieldPhone, "account.error.phone_invalid"},
		{"phone with letters", func(in *RegistrationInput) { in.Phone = "+7700abc4567" }, model.FieldPhone, "account.error.phone_invalid"},
		{"phone thirteen digits", func(in *RegistrationInput) { in.Phone = "+7700123456789" }, model.FieldPhone, "account.error.phone_invalid"},
		{"iin eleven digits", func(in *RegistrationInput) { in.Iin = "12345678901" }, model.FieldIin, "account.error.iin_invalid"},
		{"iin with letters", func(in *RegistrationInput) { in.Iin = "12345678901a" }, model.FieldIin, "account.error.iin_invalid"},
		{"missing iin", func(in *RegistrationInput) { in.Iin = "" }, model.FieldIin, "account.error.required"},
		{"missing first name", func(in *RegistrationInput) { in.FirstName = "  " }, model.FieldFirstName, "account.error.required"},
		{"long first name", func(in *RegistrationInput) { in.FirstName = "abcdefghijabcdefghijabcdefghijX" }, model.FieldFirstName, "account.error.too_long"},
		{"password mismatch", func(in *RegistrationInput) { in.Password2 = "other-pass" }, model.FieldPassword2, "account.error.password_mismatch"},
		{"password short", func(in *RegistrationInput) { in.Password1, in.Password2 = "abc12", "abc12" }, model.FieldPassword2, "account.error.password_short"},
		{"password numeric", func(in *RegistrationInput) { in.Password1, in.Password2 = "12345678", "12345678" }, model.FieldPassword2, "account.error.password_numeric"},
		{"password missing", func(in *RegistrationInput) { in.Password1 = "" }, model.FieldPassword1, "account.error.required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAccountService(testutil.TestDB(t))
			in := validRegistration()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			errs := fieldErrors(t, err)
			assert.Equal(t, tt.key, errs[tt.field].Key, "errors: %v", errs)
		})
	}
}

func TestRegister_PhoneLengths(t *testing.T) {
	for _, phone := range []string{"+7700123456", "+77001234567", "+770012345678"} {
		t.Run(phone, func(t *testing.T) {
			svc := NewAccountService(testutil.TestDB(t))
			in := validRegistration()
			in.Phone = phone
			_, err := svc.Register(context.Background(), in)
			assert.NoError(t, err)
		})
	}
}

func TestRegister_NormalizesEmailDomain(t *testing.T) {
	svc := NewAccountService(testutil.TestDB(t))
	ctx := context.Background()

	in := validRegistration()
	in.Email = "  Ivan@Example.COM "
	user, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Ivan@example.com", user.Email)

	_, err = svc.Authenticate(ctx, "Ivan@EXAMPLE.com", in.Password1)
	assert.NoError(t, err)
}

func TestRegister_LateUniqueViolation(t *testing.T) {
	err := uniqueToFieldError(errors.New("constraint failed: UNIQUE constraint failed: users.iin (2067)"))
	require.NotNil(t, err)
	assert.Equal(t, "account.error.iin_taken", err.Fields[model.FieldIin].Key)

	assert.Nil(t, uniqueToFieldError(errors.New("disk I/O error")))
}

func TestAuthenticate(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	active := testutil.CreateUser(t, db, "active@x.com", "+77001112233", "111111111111", testutil.UserOptions{Password: "right-password"})
	testutil.CreateUser(t, db, "off@x.com", "+77004445566", "222222222222", testutil.UserOptions{Password: "right-password", Inactive: true})

	user, err := svc.Authenticate(ctx, "active@x.com", "right-password")
	require.NoError(t, err)
	assert.Equal(t, active.ID, user.ID)
	assert.True(t, user.LastLogin.Valid)

	stored, err := svc.GetUser(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLogin.Valid)

	_, errUnknown := svc.Authenticate(ctx, "nobody@x.com", "right-password")
	_, errWrong := svc.Authenticate(ctx, "active@x.com", "wrong-password")
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())

	_, err = svc.Authenticate(ctx, "off@x.com", "right-password")
	assert.ErrorIs(t, err, ErrAccountInactive)

	// An inactive account with a wrong password reveals nothing.
	_, err = svc.Authenticate(ctx, "off@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_RehashesOutdatedHash(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "old@x.com", "+77009998877", "333333333333", testutil.UserOptions{Password: "legacy-pass"})

	// Same password, weaker parameters.
	legacy := "$argon2id$v=19$m=16384,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$"
	key := legacyKey("legacy-pass")
	_, err := db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", legacy+key, u.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "old@x.com", "legacy-pass")
	require.NoError(t, err)

	stored, err := store.New(db).GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))
	ok, err := auth.CheckPassword("legacy-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	other := testutil.CreateUser(t, db, "b@x.com", "+77005554433", "444444444444", testutil.UserOptions{})

	in := ProfileInput{
		FirstName: "Ivan",
		LastName:  "Petrov",
		City:      "<i>Almaty</i>",
		Phone:     user.Phone,
		WorkPlace: "Clinic",
		Specialty: "<b>Neurology</b>",
	}
	updated, err := svc.UpdateProfile(ctx, user.ID, in)
	require.NoError(t, err, "keeping your own phone is allowed")
	assert.Equal(t, "Almaty", updated.City)
	assert.Equal(t, "Neurology", updated.Specialty)
	assert.Equal(t, user.Email, updated.Email)
	assert.Equal(t, user.Iin, updated.Iin)

	in.Phone = other.Phone
	_, err = svc.UpdateProfile(ctx, user.ID, in)
	errs := fieldErrors(t, err)
	assert.Equal(t, "account.error.phone_taken", errs[model.FieldPhone].Key)

	in.Phone = "bad"
	_, err = svc.UpdateProfile(ctx, user.ID, in)
	errs = fieldErrors(t, err)
	assert.Equal(t, "account.error.phone_invalid", errs[model.FieldPhone].Key)

	_, err = svc.UpdateProfile(ctx, 9999, ProfileInput{
		FirstName: "A", LastName: "B", City: "C", Phone: "+77000000001", WorkPlace: "D", Specialty: "E",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetActive(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "c@x.com", "+77001230000", "555555555555", testutil.UserOptions{Password: "password-1"})

	require.NoError(t, svc.SetActive(ctx, u.ID, false))
	_, err := svc.Authenticate(ctx, "c@x.com", "password-1")
	assert.ErrorIs(t, err, ErrAccountInactive)

	require.NoError(t, svc.SetActive(ctx, u.ID, true))
	_, err = svc.Authenticate(ctx, "c@x.com", "password-1")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetActive(ctx, 424242, true), ErrUserNotFound)

	users, total, err := svc.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, users, 1)
}

// legacyKey derives the key for the weaker parameters used above.
func legacyKey(password string) string {
	key := argon2.IDKey([]byte(password), []byte("saltsaltsaltsalt"), 1, 16384, 1, 32)
	return base64.RawStdEncoding.EncodeToString(key)
}
