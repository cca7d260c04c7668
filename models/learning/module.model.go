package learning

import "gorm.io/gorm"

// CurriculumModule is an ordered unit of a course's curriculum. Modules gate
// sequentially: a module's content and quiz open only once the module with
// the preceding order is completed.
type CurriculumModule struct {
	gorm.Model
	CourseID                 uint   `json:"course_id" gorm:"index;not null"`
	ModuleOrder              int    `json:"module_order" gorm:"not null"` // 1, 2, 3, etc.
	Title                    string `json:"title"`
	Description              string `json:"description" gorm:"type:text"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes" gorm:"default:0"`
	IsDeleted                bool   `gorm:"default:false"`
}
