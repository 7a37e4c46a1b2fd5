package models

import "gorm.io/gorm"

// Account is a dev-backend user. Profile columns feed the roommate deck.
type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string
	PasswordHash string `gorm:"not null"`
	FullName     string
	Age          int
	District     string
	University   string
	Major        string
	AvatarURL    string
}

// Listing is a dev-backend apartment listing. Images and Features are kept as
// JSON text so the same schema works on sqlite and postgres.
type Listing struct {
	gorm.Model

	Title         string
	Price         float64
	Size          float64
	Location      string
	ImagesJSON    string `gorm:"type:text"`
	FeaturesJSON  string `gorm:"type:text"`
	Description   string `gorm:"type:text"`
	HostAccountID int64  `gorm:"index"`
}
