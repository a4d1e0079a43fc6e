package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Role grants permissions beyond the account's own resources.
type Role string

const (
	RoleUser      Role = "user"
	RoleSuperuser Role = "superuser"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSuperuser
}

type Gender string

const (
	GenderUndefined Gender = ""
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
)

// BirthdateLayout is the wire and storage format of Profile.Birthdate.
const BirthdateLayout = "2006-01-02"

// Profile is the descriptive part of an account. None of it takes part in
// authentication.
type Profile struct {
	Email      string `validate:"omitempty,max=254,email"`
	Phone      string `validate:"omitempty,e164"`
	FirstName  string `validate:"omitempty,max=100,nocontrol"`
	MiddleName string `validate:"omitempty,max=100,nocontrol"`
	LastName   string `validate:"omitempty,max=100,nocontrol"`
	Gender     Gender `validate:"omitempty,oneof=male female"`
	Birthdate  *time.Time
}

// ProfileUpdate lists the fields to change. A nil field is left alone, an
// empty string clears it. Birthdate uses BirthdateLayout.
type ProfileUpdate struct {
	Email      *string
	Phone      *string
	FirstName  *string
	MiddleName *string
	LastName   *string
	Gender     *string
	Birthdate  *string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("nocontrol", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	return v
}

// Apply returns p with the update applied, or an error matching
// common.ErrInvalidArgument naming the offending field.
func (u ProfileUpdate) Apply(p Profile, now time.Time) (Profile, error) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Email, u.Email)
	set(&p.Phone, u.Phone)
	set(&p.FirstName, u.FirstName)
	set(&p.MiddleName, u.MiddleName)
	set(&p.LastName, u.LastName)
	if u.Gender != nil {
		p.Gender = Gender(strings.ToLower(strings.TrimSpace(*u.Gender)))
	}
	p.Email = strings.ToLower(p.Email)

	if u.Birthdate != nil {
		raw := strings.TrimSpace(*u.Birthdate)
		if raw == "" {
			p.Birthdate = nil
		} else {
			d, err := time.Parse(BirthdateLayout, raw)
			if err != nil {
				return p, fmt.Errorf("%w: birthdate must look like %s", common.ErrInvalidArgument, BirthdateLayout)
			}
			if d.After(now) {
				return p, fmt.Errorf("%w: birthdate is in the future", common.ErrInvalidArgument)
			}
			p.Birthdate = &d
		}
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return p, fmt.Errorf("%w: invalid %s", common.ErrInvalidArgument, strings.ToLower(verrs[0].Field()))
		}
		return p, fmt.Errorf("%w: %w", common.ErrInvalidArgument, err)
	}
	return p, nil
}

// ValidAccountID reports whether id has the canonical form account ids are
// issued in. Anything else cannot name an account.
func ValidAccountID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
