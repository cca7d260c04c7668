package learning

import "gorm.io/gorm"

// ProgressStatus is the closed set of module progress states
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NotStarted"
	ProgressInProgress ProgressStatus = "InProgress"
	ProgressCompleted  ProgressStatus = "Completed"
)

// CanTransition reports whether a progress status change is legal.
// NotStarted -> InProgress -> Completed only; Completed is terminal and a
// module never regresses, whatever later quiz attempts score.
func (s ProgressStatus) CanTransition(to ProgressStatus) bool {
	switch s {
	case ProgressNotStarted:
		return to == ProgressInProgress || to == ProgressCompleted
	case ProgressInProgress:
		return to == ProgressCompleted
	default:
		return false
	}
}

// ModuleProgress tracks one enrollment's consumption of one module. Created
// lazily on the first content-tracking event; never deleted. Completed
// requires 100% content consumption plus a passing quiz attempt, and is only
// ever set by the progression service.
type ModuleProgress struct {
	gorm.Model
	EnrollmentID      uint           `json:"enrollment_id" gorm:"index:idx_progress_enrollment_module;not null"`
	ModuleID          uint           `json:"module_id" gorm:"index:idx_progress_enrollment_module;not null"`
	CompletionPercent float64        `json:"completion_percent" gorm:"default:0"` // 0.0 to 100.0
	Status            ProgressStatus `json:"status" gorm:"type:varchar(20);default:'NotStarted'"`
}
