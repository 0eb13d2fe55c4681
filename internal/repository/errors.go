package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (item number) already exists.
	ErrDuplicate = errors.New("duplicate key")
)

// translate maps GORM sentinels onto the package's own so callers never
// import gorm to branch on an error. Requires gorm.Config.TranslateError.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
