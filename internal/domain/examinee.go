package domain

import (
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Examinee validation errors
var (
	ErrEmptyExamineeID     = errors.New("examinee ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// Examinee represents a registered test-taker.
type Examinee struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext, held only between registration and hashing
	HashedPassword string    `json:"-"` // Never exposed in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewExaminee creates a new Examinee with the given email and password.
// The caller is responsible for hashing the password before storing.
func NewExaminee(email, password string) (*Examinee, error) {
	examinee := &Examinee{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := examinee.Validate(); err != nil {
		return nil, err
	}

	return examinee, nil
}

// Validate checks if the Examinee has valid data.
// Returns an error if any field fails validation.
func (e *Examinee) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyExamineeID
	}

	if e.Email == "" {
		return ErrEmptyEmail
	}

	if _, err := mail.ParseAddress(e.Email); err != nil {
		return ErrInvalidEmail
	}

	// Password rules apply only while the plaintext is present; once hashed,
	// only the hash is retained.
	if e.Password != "" {
		if len(e.Password) < 12 {
			return ErrPasswordTooShort
		}
		if len(e.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if e.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}
