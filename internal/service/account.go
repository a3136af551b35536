// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/ocms-community/internal/auth"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

// Authentication errors. Unknown email and wrong password share
// ErrInvalidCredentials so callers cannot tell accounts apart.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account inactive")
	ErrUserNotFound       = errors.New("user not found")
)

var (
	phonePattern = regexp.MustCompile(`^\+\d{10,12}$`)
	iinPattern   = regexp.MustCompile(`^\d{12}$`)
)

// ProfileInput holds the editable account fields as submitted.
type ProfileInput struct {
	FirstName string
	LastName  string
	City      string
	Phone     string
	WorkPlace string
	Specialty string
}

// RegistrationInput holds a sign-up form submission.
type RegistrationInput struct {
	ProfileInput
	Email     string
	Iin       string
	Password1 string
	Password2 string
}

// sanitized strips markup from the free-text fields and trims whitespace.
func (in ProfileInput) sanitized() ProfileInput {
	return ProfileInput{
		FirstName: cleanText(in.FirstName),
		LastName:  cleanText(in.LastName),
		City:      cleanText(in.City),
		Phone:     strings.TrimSpace(in.Phone),
		WorkPlace: cleanText(in.WorkPlace),
		Specialty: cleanText(in.Specialty),
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(util.StripTags(s))
}

// AccountService implements registration, authentication and profile updates.
type AccountService struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:      db,
		queries: store.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register validates and stores a new active account.
// A *ValidationError is returned when any field is rejected.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput) (store.User, error) {
	email := auth.NormalizeEmail(in.Email)
	iin := strings.TrimSpace(in.Iin)
	profile := in.ProfileInput.sanitized()

	errs := make(FieldErrors)
	validateEmail(errs, email)
	validateProfile(errs, profile)
	validateIin(errs, iin)
	validatePasswords(errs, in.Password1, in.Password2)

	if !errs.Has(model.FieldEmail) {
		taken, err := s.queries.EmailTaken(ctx, email)
		if err != nil {
			return store.User{}, fmt.Errorf("checking email: %w", err)
		}
		if taken {
			errs.Add(model.FieldEmail, "account.error.email_taken")
		}
	}
	if !errs.Has(model.FieldPhone) {
		taken, err := s.queries.PhoneTaken(ctx, store.PhoneTakenParams{Phone: profile.Phone})
		if err != nil {
			return store.User{}, fmt.Errorf("checking phone: %w", err)
		}
		if taken {
			errs.Add(model.FieldPhone, "account.error.phone_taken")
		}
	}
	if !errs.Has(model.FieldIin) {
		taken, err := s.queries.IinTaken(ctx, iin)
		if err != nil {
			return store.User{}, fmt.Errorf("checking iin: %w", err)
		}
		if taken {
			errs.Add(model.FieldIin, "account.error.iin_taken")
		}
	}
	if len(errs) > 0 {
		return store.User{}, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(in.Password1)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		City:         profile.City,
		Phone:        profile.Phone,
		Iin:          iin,
		WorkPlace:    profile.WorkPlace,
		Specialty:    profile.Specialty,
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	})
	if err != nil {
		// A concurrent sign-up can pass the checks above and still lose
		// the insert race.
		if verr := uniqueToFieldError(err); verr != nil {
			return store.User{}, verr
		}
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "category", model.EventCategoryAuth)
	return user, nil
}

// Authenticate checks credentials and records the login time.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	email = auth.NormalizeEmail(email)

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			auth.BurnPasswordCheck(password)
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Warn("unreadable password hash", "user_id", user.ID, "error", err, "category", model.EventCategoryAuth)
		return store.User{}, ErrInvalidCredentials
	}
	if !ok {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return store.User{}, ErrAccountInactive
	}

	now := s.now()
	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLogin: sql.NullTime{Time: now, Valid: true},
		ID:        user.ID,
	}); err != nil {
		return store.User{}, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLogin = sql.NullTime{Time: now, Valid: true}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}
	return user, nil
}

func (s *AccountService) rehash(ctx context.Context, userID int64, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("rehashing password", "user_id", userID, "error", err)
		return
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    s.now(),
		ID:           userID,
	}); err != nil {
		slog.Error("storing rehashed password", "user_id", userID, "error", err)
	}
}

// UpdateProfile validates and saves the editable fields of a user and
// returns the re-fetched record. Email and IIN are never changed here.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (store.User, error) {
	profile := in.sanitized()

	errs := make(FieldErrors)
	validateProfile(errs, profile)
	if !errs.Has(model.FieldPhone) {
		taken, err := s.queries.PhoneTaken(ctx, store.PhoneTakenParams{Phone: profile.Phone, ExcludeID: userID})
		if err != nil {
			return store.User{}, fmt.Errorf("checking phone: %w", err)
		}
		if taken {
			errs.Add(model.FieldPhone, "account.error.phone_taken")
		}
	}
	if len(errs) > 0 {
		return store.User{}, &ValidationError{Fields: errs}
	}

	user, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		City:      profile.City,
		Phone:     profile.Phone,
		WorkPlace: profile.WorkPlace,
		Specialty: profile.Specialty,
		UpdatedAt: s.now(),
		ID:        userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrUserNotFound
		}
		if verr := uniqueToFieldError(err); verr != nil {
			return store.User{}, verr
		}
		return store.User{}, fmt.Errorf("updating profile: %w", err)
	}

	slog.Info("profile updated", "user_id", user.ID, "category", model.EventCategoryUser)
	return s.GetUser(ctx, user.ID)
}

// GetUser loads a user by id.
func (s *AccountService) GetUser(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrUserNotFound
		}
		return store.User{}, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// ListUsers returns one page of users and the total count.
func (s *AccountService) ListUsers(ctx context.Context, limit, offset int) ([]store.User, int64, error) {
	total, err := s.queries.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{Limit: int64(limit), Offset: int64(offset)})
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// SetActive activates or deactivates an account. Deactivated users keep
// their data but can no longer log in.
func (s *AccountService) SetActive(ctx context.Context, id int64, active bool) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.queries.SetUserActive(ctx, store.SetUserActiveParams{
		IsActive:  active,
		UpdatedAt: s.now(),
		ID:        id,
	}); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	slog.Info("user active flag changed", "user_id", id, "active", active, "category", model.EventCategoryUser)
	return nil
}

func validateEmail(errs FieldErrors, email string) {
	switch {
	case email == "":
		errs.Add(model.FieldEmail, "account.error.required")
	case utf8.RuneCountInString(email) > model.MaxEmailLength:
		errs.Add(model.FieldEmail, "account.error.too_long", model.MaxEmailLength)
	case !isValidEmail(email):
		errs.Add(model.FieldEmail, "account.error.invalid_email")
	}
}

// isValidEmail accepts a bare address only, no display name.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

func validateProfile(errs FieldErrors, p ProfileInput) {
	requireText(errs, model.FieldFirstName, p.FirstName, model.MaxFirstNameLength)
	requireText(errs, model.FieldLastName, p.LastName, model.MaxLastNameLength)
	requireText(errs, model.FieldCity, p.City, model.MaxCityLength)
	requireText(errs, model.FieldWorkPlace, p.WorkPlace, model.MaxWorkPlaceLength)
	requireText(errs, model.FieldSpecialty, p.Specialty, model.MaxSpecialtyLength)

	switch {
	case p.Phone == "":
		errs.Add(model.FieldPhone, "account.error.required")
	case !phonePattern.MatchString(p.Phone):
		errs.Add(model.FieldPhone, "account.error.phone_invalid")
	}
}

func validateIin(errs FieldErrors, iin string) {
	switch {
	case iin == "":
		errs.Add(model.FieldIin, "account.error.required")
	case !iinPattern.MatchString(iin):
		errs.Add(model.FieldIin, "account.error.iin_invalid")
	}
}

func validatePasswords(errs FieldErrors, p1, p2 string) {
	if p1 == "" {
		errs.Add(model.FieldPassword1, "account.error.required")
	}
	if p2 == "" {
		errs.Add(model.FieldPassword2, "account.error.required")
	}
	if p1 == "" || p2 == "" {
		return
	}
	if p1 != p2 {
		errs.Add(model.FieldPassword2, "account.error.password_mismatch")
		return
	}
	switch {
	case utf8.RuneCountInString(p1) < model.MinPasswordLength:
		errs.Add(model.FieldPassword2, "account.error.password_short", model.MinPasswordLength)
	case isAllDigits(p1):
		errs.Add(model.FieldPassword2, "account.error.password_numeric")
	}
}

func requireText(errs FieldErrors, field, value string, maxLen int) {
	switch {
	case value == "":
		errs.Add(field, "account.error.required")
	case utf8.RuneCountInString(value) > maxLen:
		errs.Add(field, "account.error.too_long", maxLen)
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// uniqueToFieldError maps a users UNIQUE violation to the matching field.
func uniqueToFieldError(err error) *ValidationError {
	column, ok := store.UniqueViolation(err)
	if !ok {
		return nil
	}
	errs := make(FieldErrors)
	switch column {
	case "email":
		errs.Add(model.FieldEmail, "account.error.email_taken")
	case "phone":
		errs.Add(model.FieldPhone, "account.error.phone_taken")
	case "iin":
		errs.Add(model.FieldIin, "account.error.iin_taken")
	default:
		return nil
	}
	return &ValidationError{Fields: errs}
}
