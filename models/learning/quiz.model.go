package learning

import (
	"time"

	"gorm.io/gorm"
)

// QuizConfig overrides the engine defaults for one module's quiz
type QuizConfig struct {
	gorm.Model
	ModuleID         uint    `json:"module_id" gorm:"uniqueIndex;not null"`
	TotalQuestions   int     `json:"total_questions" gorm:"default:15"`
	TimeLimitSeconds int     `json:"time_limit_seconds" gorm:"default:120"`
	PassScorePercent float64 `json:"pass_score_percent" gorm:"default:100"`
}

// QuizAttempt is one scored submission. Rows are append-only and immutable;
// attempt_number is strictly increasing per (enrollment, module) starting
// at 1, with the count-then-insert serialized per pair.
type QuizAttempt struct {
	gorm.Model
	EnrollmentID     uint      `json:"enrollment_id" gorm:"index:idx_attempt_enrollment_module;not null"`
	ModuleID         uint      `json:"module_id" gorm:"index:idx_attempt_enrollment_module;not null"`
	AttemptNumber    int       `json:"attempt_number" gorm:"not null"`
	ScorePercent     float64   `json:"score_percent" gorm:"not null"` // 0.0 to 100.0
	TimeTakenSeconds int       `json:"time_taken_seconds" gorm:"not null"`
	CompletedInTime  bool      `json:"completed_in_time" gorm:"default:true"`
	AttemptedAt      time.Time `json:"attempted_at"`
}
