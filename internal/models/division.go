package models

import "time"

// Province is the top segment of the administrative division catalog.
// Division names are kept in all three official languages.
type Province struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NameEn    string    `gorm:"size:100" json:"name_en"`
	NameSi    string    `gorm:"size:100" json:"name_si"`
	NameTa    string    `gorm:"size:100" json:"name_ta"`
	CreatedAt time.Time `json:"created_at"`
}

// District belongs to a Province.
type District struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NameEn     string    `gorm:"size:100" json:"name_en"`
	NameSi     string    `gorm:"size:100" json:"name_si"`
	NameTa     string    `gorm:"size:100" json:"name_ta"`
	ProvinceID uint      `gorm:"index" json:"province_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// DSDivision is a divisional secretariat division inside a District.
type DSDivision struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	NameEn     string    `gorm:"size:100" json:"name_en"`
	NameSi     string    `gorm:"size:100" json:"name_si"`
	NameTa     string    `gorm:"size:100" json:"name_ta"`
	DistrictID uint      `gorm:"index" json:"district_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// GNDivision is a Grama Niladhari division, the smallest unit in the catalog.
type GNDivision struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	NameEn       string    `gorm:"size:100" json:"name_en"`
	NameSi       string    `gorm:"size:100" json:"name_si"`
	NameTa       string    `gorm:"size:100" json:"name_ta"`
	DSDivisionID uint      `gorm:"index" json:"ds_division_id"`
	CreatedAt    time.Time `json:"created_at"`
}
