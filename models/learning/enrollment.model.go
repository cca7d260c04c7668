package learning

import "gorm.io/gorm"

// EnrollmentStatus is the closed set of enrollment states
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentCompleted EnrollmentStatus = "Completed"
	EnrollmentDropped   EnrollmentStatus = "Dropped"
)

// CanTransition reports whether a status change is a legal move. Active may
// move to Completed or Dropped; both of those are terminal.
func (s EnrollmentStatus) CanTransition(to EnrollmentStatus) bool {
	if s == to {
		return false
	}
	return s == EnrollmentActive && (to == EnrollmentCompleted || to == EnrollmentDropped)
}

// Enrollment is a student's registration in a course. Identity is immutable
// once created; only the status changes, via CanTransition-guarded updates.
type Enrollment struct {
	gorm.Model
	UserID    uint             `json:"user_id" gorm:"index;not null"`
	CourseID  uint             `json:"course_id" gorm:"index;not null"`
	Status    EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'Active'"`
	IsDeleted bool             `gorm:"default:false"`
}
