package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

// Account is one row of the flat user table the authentication emulator
// serves. The emulator stores the password as given; it exists to
// exercise client SDKs, not to protect anything.
type Account struct {
	gorm.Model

	// LocalID is the opaque account id returned to clients.
	LocalID string `gorm:"uniqueIndex;not null"`

	// Email is the account key for sign-in. Stored lowercased.
	Email string `gorm:"uniqueIndex;not null"`

	Password string `gorm:"not null"`

	DisplayName string
}

// Create inserts the account after validating required fields.
func (a *Account) Create(db *gorm.DB) error {
	if err := validation.ValidateStruct(a,
		validation.Field(&a.LocalID, validation.Required),
		validation.Field(&a.Email, validation.Required, is.Email),
		validation.Field(&a.Password, validation.Required, validation.Length(6, 0)),
	); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return db.Create(a).Error
}

// GetByEmail loads the account with the given email.
func (a *Account) GetByEmail(db *gorm.DB, email string) error {
	if err := validation.Validate(email, validation.Required); err != nil {
		return err
	}
	return db.Where("email = ?", email).First(a).Error
}

// GetByLocalID loads the account with the given local id.
func (a *Account) GetByLocalID(db *gorm.DB, localID string) error {
	if err := validation.Validate(localID, validation.Required); err != nil {
		return err
	}
	return db.Where("local_id = ?", localID).First(a).Error
}

// DeleteByLocalID removes the account and reports whether a row was
// deleted.
func DeleteByLocalID(db *gorm.DB, localID string) (bool, error) {
	res := db.Where("local_id = ?", localID).Delete(&Account{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
