// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-community/internal/i18n"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// translateErrors renders field errors in lang for template display.
func translateErrors(lang string, errs service.FieldErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, e := range errs {
		out[field] = i18n.T(lang, e.Key, e.Args...)
	}
	return out
}

// validationErrors unwraps a *service.ValidationError.
func validationErrors(err error) (service.FieldErrors, bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// formValues copies the named form fields for redisplay.
func formValues(r *http.Request, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = r.PostFormValue(f)
	}
	return out
}

var profileFields = []string{
	model.FieldFirstName, model.FieldLastName, model.FieldCity,
	model.FieldPhone, model.FieldWorkPlace, model.FieldSpecialty,
}

// profileInput reads the editable account fields from a submitted form.
func profileInput(r *http.Request) service.ProfileInput {
	return service.ProfileInput{
		FirstName: r.PostFormValue(model.FieldFirstName),
		LastName:  r.PostFormValue(model.FieldLastName),
		City:      r.PostFormValue(model.FieldCity),
		Phone:     r.PostFormValue(model.FieldPhone),
		WorkPlace: r.PostFormValue(model.FieldWorkPlace),
		Specialty: r.PostFormValue(model.FieldSpecialty),
	}
}

// userForm fills an account form from a stored user.
func userForm(u store.User) map[string]string {
	return map[string]string{
		model.FieldEmail:     u.Email,
		model.FieldIin:       u.Iin,
		model.FieldFirstName: u.FirstName,
		model.FieldLastName:  u.LastName,
		model.FieldCity:      u.City,
		model.FieldPhone:     u.Phone,
		model.FieldWorkPlace: u.WorkPlace,
		model.FieldSpecialty: u.Specialty,
	}
}

// tr translates key in the request language.
func tr(r *http.Request, key string, args ...any) string {
	return i18n.T(middleware.GetLanguage(r), key, args...)
}

// trimmed returns a trimmed form value.
func trimmed(r *http.Request, field string) string {
	return strings.TrimSpace(r.PostFormValue(field))
}
