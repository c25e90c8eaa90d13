package models

import "time"

// Roles.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Sensitive user fields that never leave the service layer.
const (
	PasswordField          = "password"
	PasswordConfirmField   = "passwordConfirm"
	PasswordChangedAtField = "passwordChangedAt"
)

// ActiveField is false on deactivated accounts and absent otherwise.
const ActiveField = "active"

// User is the authentication view of a document in the users collection.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Photo        string `json:"photo,omitempty"`
	PasswordHash string `json:"-"`

	PasswordChangedAt time.Time `json:"-"`
	Active            bool      `json:"-"`
}

// UserFromDocument reads a User out of a stored document.
func UserFromDocument(d Document) User {
	id, _ := d.ID()
	active, set := d[ActiveField].(bool)
	changedAt, _ := time.Parse(time.RFC3339Nano, d.String(PasswordChangedAtField))
	return User{
		ID:                id,
		Name:              d.String("name"),
		Email:             d.String("email"),
		Role:              d.String("role"),
		Photo:             d.String("photo"),
		PasswordHash:      d.String(PasswordField),
		PasswordChangedAt: changedAt,
		Active:            !set || active,
	}
}

// PasswordChangedAfter reports whether the password was changed after a
// token issued at issuedAt, which makes that token stale.
func (u User) PasswordChangedAfter(issuedAt time.Time) bool {
	return !u.PasswordChangedAt.IsZero() && u.PasswordChangedAt.After(issuedAt)
}

// Document converts u to its stored form, password hash included.
func (u User) Document() Document {
	d := Document{
		"name":        u.Name,
		"email":       u.Email,
		"role":        u.Role,
		PasswordField: u.PasswordHash,
	}
	if u.Photo != "" {
		d["photo"] = u.Photo
	}
	if u.ID != 0 {
		d[IDField] = u.ID
	}
	return d
}

// SignupRequest is the body of POST /api/v1/users/signup.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// LoginRequest is the body of POST /api/v1/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatePasswordRequest is the body of PATCH /api/v1/users/updateMyPassword.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}
