package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/marketinn/internal/utils"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedByID  *uuid.UUID `json:"createdById,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r LoginRequest) Validate() error {
	errs := fieldErrors{}
	errs.collect(validate.Struct(r))
	return errs.err()
}

// RegisterRequest creates a user. It also serves the admin user-management
// create endpoint, where IsActive may be set.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,oneof=admin staff"`
	IsActive *bool  `json:"isActive,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = utils.NormalizeString(r.Name)
	r.Email = utils.NormalizeEmail(r.Email)
	r.Role, _ = ParseRole(string(r.Role))
	if r.Role == "" {
		r.Role = RoleStaff
	}
}

func (r RegisterRequest) Validate() error {
	errs := fieldErrors{}
	errs.collect(validate.Struct(r))
	return errs.err()
}

// ProfileUpdate is what a user may change about themselves.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=128"`
}

func (p *ProfileUpdate) Normalize() {
	if p.Name != nil {
		n := utils.NormalizeString(*p.Name)
		p.Name = &n
	}
	if p.Email != nil {
		e := utils.NormalizeEmail(*p.Email)
		p.Email = &e
	}
}

func (p ProfileUpdate) Validate() error {
	errs := fieldErrors{}
	if p.Name != nil && *p.Name == "" {
		errs.add("name", "must not be empty")
	}
	errs.collect(validate.Struct(p))
	return errs.err()
}

// UserUpdate is the admin view of ProfileUpdate.
type UserUpdate struct {
	ProfileUpdate
	Role     *Role `json:"role,omitempty"`
	IsActive *bool `json:"isActive,omitempty"`
}

func (u *UserUpdate) Normalize() {
	u.ProfileUpdate.Normalize()
	if u.Role != nil {
		r, _ := ParseRole(string(*u.Role))
		u.Role = &r
	}
}

func (u UserUpdate) Validate() error {
	errs := fieldErrors{}
	if err := u.ProfileUpdate.Validate(); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			for k, v := range ve.Fields {
				errs.add(k, v)
			}
		}
	}
	if u.Role != nil && !u.Role.Valid() {
		errs.add("role", "must be one of: admin staff")
	}
	return errs.err()
}

// UserChanges is the storage-level update: the password is already hashed.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
	IsActive     *bool
}

func (c UserChanges) Apply(u *User) {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
	if c.IsActive != nil {
		u.IsActive = *c.IsActive
	}
}
