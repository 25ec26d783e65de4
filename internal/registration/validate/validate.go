// Package validate holds the stateless field predicates shared by intake and
// admin search filters. No I/O; every function is a pure pass/fail check.
package validate

import (
	"github.com/asaskevich/govalidator"
)

const (
	// MinRoom and MaxRoom bound the admissible room numbers; rooms are stored
	// in a SMALLINT column.
	MinRoom = 0
	MaxRoom = 32767

	maxNameLength     = 255
	minUsernameLength = 1
	maxUsernameLength = 255
	minPasswordLength = 8
	maxPasswordLength = 255
)

const (
	phonePattern    = `^\+?[0-9]{1,14}$`
	usernamePattern = `^[A-Za-z0-9_.-]+$`
)

// Name accepts non-empty names up to 255 characters.
func Name(name string) bool {
	return govalidator.StringLength(name, "1", "255") && len(name) <= maxNameLength
}

// Room accepts room numbers within the admissible range.
func Room(room int) bool {
	return room >= MinRoom && room <= MaxRoom
}

// Phone accepts digit strings of up to 15 characters with an optional leading
// plus. Optional fields call this only when a value is present.
func Phone(phone string) bool {
	return len(phone) <= 15 && govalidator.Matches(phone, phonePattern)
}

// Email accepts syntactically valid addresses up to 255 characters.
func Email(email string) bool {
	return len(email) <= 255 && govalidator.IsEmail(email)
}

// Username accepts names built from letters, digits, underscore, dot and
// hyphen, within length bounds.
func Username(username string) bool {
	return len(username) >= minUsernameLength &&
		len(username) <= maxUsernameLength &&
		govalidator.Matches(username, usernamePattern)
}

// Password enforces the minimum strength policy: bounded length with at least
// one upper-case letter, one lower-case letter and one digit.
func Password(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}
