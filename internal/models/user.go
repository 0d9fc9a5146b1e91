package models

import (
	"time"

	"github.com/example/govsol/internal/hierarchy"
)

// User is a citizen, an administrator, or a government official on the
// escalation ladder. Official accounts carry the jurisdiction they govern
// and must be approved before they can be assigned issues.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:150;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:254;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"size:128" json:"-"`
	FullName     string         `gorm:"size:200" json:"full_name"`
	Role         hierarchy.Role `gorm:"size:20;index" json:"role"`
	Phone        string         `gorm:"size:15" json:"phone,omitempty"`
	Address      string         `json:"address,omitempty"`
	NationalID   string         `gorm:"size:12;index" json:"national_id,omitempty"`

	ProvinceID   *uint `json:"province_id,omitempty"`
	DistrictID   *uint `json:"district_id,omitempty"`
	DSDivisionID *uint `json:"ds_division_id,omitempty"`
	GNDivisionID *uint `json:"gn_division_id,omitempty"`

	IsApproved bool      `json:"is_approved"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Jurisdiction returns the administrative path this account is scoped to.
func (u *User) Jurisdiction() hierarchy.Jurisdiction {
	return hierarchy.Jurisdiction{
		ProvinceID:   deref(u.ProvinceID),
		DistrictID:   deref(u.DistrictID),
		DSDivisionID: deref(u.DSDivisionID),
		GNDivisionID: deref(u.GNDivisionID),
	}
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func deref(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}
