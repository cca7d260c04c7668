package learning

import "gorm.io/gorm"

// Course is a catalog row consumed read-only by the engine. Authoring and
// publishing live in the catalog service.
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Level       string `json:"level"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
