package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

// UserRepository provides persistence access for accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository using the provided gorm DB.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID returns the account by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// FindByUsername returns the account with the given username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// FirstApprovedAtLevel returns the approved official at the given tier whose
// jurisdiction matches the non-zero segments of scope. Ties are broken by
// lowest account ID so handler selection is deterministic. Returns (nil, nil)
// when nobody qualifies.
func (r *UserRepository) FirstApprovedAtLevel(ctx context.Context, level hierarchy.Level, scope hierarchy.Jurisdiction) (*models.User, error) {
	q := r.db.WithContext(ctx).
		Where("role = ? AND is_approved = ?", hierarchy.Role(level), true)
	if scope.ProvinceID != 0 {
		q = q.Where("province_id = ?", scope.ProvinceID)
	}
	if scope.DistrictID != 0 {
		q = q.Where("district_id = ?", scope.DistrictID)
	}
	if scope.DSDivisionID != 0 {
		q = q.Where("ds_division_id = ?", scope.DSDivisionID)
	}
	if scope.GNDivisionID != 0 {
		q = q.Where("gn_division_id = ?", scope.GNDivisionID)
	}

	var user models.User
	err := q.Order("id asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// CountActive returns the number of active accounts.
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error
	return n, errors.WithStack(err)
}
