package models

import "gorm.io/gorm"

// User is the minimal user row the engine reads. Accounts are created and
// authenticated by the external identity service; the engine only joins this
// table for wallet ownership and notification emails.
type User struct {
	gorm.Model
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"index"`
	Role      string `json:"role" gorm:"default:'STUDENT'"` // STUDENT, TEACHER
	IsDeleted bool   `gorm:"default:false"`
}
