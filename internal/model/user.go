// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain types shared across the site: page types and
// their tree rules, body blocks, account field limits and event constants.
package model

// Account field limits, in characters.
const (
	MaxEmailLength     = 254
	MaxFirstNameLength = 30
	MaxLastNameLength  = 30
	MaxCityLength      = 100
	MaxWorkPlaceLength = 254
	MaxSpecialtyLength = 200
	MinPasswordLength  = 8
)

// Account field names as submitted in forms.
const (
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldCity      = "city"
	FieldPhone     = "phone"
	FieldIin       = "iin"
	FieldWorkPlace = "work_place"
	FieldSpecialty = "specialty"
	FieldPassword1 = "password1"
	FieldPassword2 = "password2"
)
