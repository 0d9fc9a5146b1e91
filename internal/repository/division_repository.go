package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/govsol/internal/models"
)

// DivisionRepository serves the read-only administrative division catalog
// used for cascading location dropdowns.
type DivisionRepository struct {
	db *gorm.DB
}

// NewDivisionRepository constructs a repository using the provided gorm DB.
func NewDivisionRepository(db *gorm.DB) *DivisionRepository {
	return &DivisionRepository{db: db}
}

// Provinces lists all provinces.
func (r *DivisionRepository) Provinces(ctx context.Context) ([]models.Province, error) {
	var out []models.Province
	err := r.db.WithContext(ctx).Order("name_en asc").Find(&out).Error
	return out, errors.WithStack(err)
}

// Districts lists districts, optionally narrowed to a province.
func (r *DivisionRepository) Districts(ctx context.Context, provinceID uint) ([]models.District, error) {
	q := r.db.WithContext(ctx).Order("name_en asc")
	if provinceID != 0 {
		q = q.Where("province_id = ?", provinceID)
	}
	var out []models.District
	err := q.Find(&out).Error
	return out, errors.WithStack(err)
}

// DSDivisions lists divisional secretariat divisions, optionally narrowed to
// a district.
func (r *DivisionRepository) DSDivisions(ctx context.Context, districtID uint) ([]models.DSDivision, error) {
	q := r.db.WithContext(ctx).Order("name_en asc")
	if districtID != 0 {
		q = q.Where("district_id = ?", districtID)
	}
	var out []models.DSDivision
	err := q.Find(&out).Error
	return out, errors.WithStack(err)
}

// GNDivisions lists Grama Niladhari divisions, optionally narrowed to a
// DS division.
func (r *DivisionRepository) GNDivisions(ctx context.Context, dsDivisionID uint) ([]models.GNDivision, error) {
	q := r.db.WithContext(ctx).Order("name_en asc")
	if dsDivisionID != 0 {
		q = q.Where("ds_division_id = ?", dsDivisionID)
	}
	var out []models.GNDivision
	err := q.Find(&out).Error
	return out, errors.WithStack(err)
}
