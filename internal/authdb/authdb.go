// Package authdb is the optional persistent user store the attempt
// controller's contract assumes, backed by GORM. Nothing else in this
// repository requires a database to run.
package authdb

import (
	"errors"

	"gorm.io/gorm"
)

// User is the row shape a deployment's users table is expected to
// carry; the columns a login attempt actually needs, never more.
type User struct {
	ID           string `gorm:"column:id;primaryKey"`
	Email        string `gorm:"column:email"`
	PasswordHash string `gorm:"column:password"`
}

func (User) TableName() string { return "users" }

// Store looks users up by email against a *gorm.DB. A nil *gorm.DB is
// valid and always reports "not found", so a deployment without a
// database still boots — it simply rejects every login attempt.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// FindByEmail satisfies controller.UserLookup.
func (s *Store) FindByEmail(email string) (id, passwordHash string, found bool, err error) {
	if s.db == nil {
		return "", "", false, nil
	}
	var user User
	err = s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return user.ID, user.PasswordHash, true, nil
}
