package service

import "github.com/biniyam0960/Student-information-System/internal/models"

// Actor identifies the authenticated caller of a use case.
type Actor struct {
	UserID int64
	Role   models.UserRole
}
