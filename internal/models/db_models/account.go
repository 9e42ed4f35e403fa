package db_models

import "github.com/lib/pq"

type Account struct {
	BaseModel
	Name             string
	Email            string `gorm:"uniqueIndex;not null"`
	PasswordHash     string
	Phone            string `gorm:"index"`
	TwoFactorEnabled bool
	CustomCategories pq.StringArray `gorm:"type:text[]"`

	Trips []Trip `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
