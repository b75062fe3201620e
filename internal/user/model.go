package user

import (
	"strings"
	"time"
)

type User struct {
	ID             string    `json:"id" bson:"-"`
	Email          string    `json:"email" bson:"email"`
	FullName       string    `json:"full_name" bson:"full_name"`
	PhoneNumber    *string   `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	HashedPassword string    `json:"-" bson:"hashed_password"`
	IsActive       bool      `json:"is_active" bson:"is_active"`
	IsAdmin        bool      `json:"is_admin" bson:"is_admin"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=8,maxbytes=72"`
	FullName    string  `json:"full_name" validate:"required,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

// UpdateProfileParams holds the fields a user may change on their own
// profile. Nil means unchanged.
type UpdateProfileParams struct {
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	FullName    *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Password    *string `json:"password" validate:"omitempty,min=8,maxbytes=72"`
}

func (p UpdateProfileParams) HasChanges() bool {
	return p.Email != nil || p.FullName != nil || p.PhoneNumber != nil || p.Password != nil
}

// ProfileChanges is what the store writes. HashedPassword replaces the
// plain password by the time it gets here.
type ProfileChanges struct {
	Email          *string
	FullName       *string
	PhoneNumber    *string
	HashedPassword *string
	UpdatedAt      time.Time
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
