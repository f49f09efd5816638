package repository

import (
	"context"

	"github.com/sandwichproject/platform/models"
)

// UserRepository is the persistence interface for accounts.
//
// IDsWithPermission backs notification fan-out for fixed rooms: the
// recipient set of a room post is every user holding the room's required
// capability (plus admins).
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	IDsWithPermission(ctx context.Context, perm string) ([]string, error)
}
