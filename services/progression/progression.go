// Package progression implements the sequential module gate: unlock
// decisions, content-consumption tracking and the single authoritative
// place a module becomes Completed.
package progression

import (
	"errors"
	"lms/config"
	"lms/models/learning"
	"lms/services/errs"
	"lms/utils"

	"gorm.io/gorm"
)

// Service is the module gate for one process. The keyed mutex is shared
// with the quiz engine so progress merges and quiz submissions for the same
// (enrollment, module) pair serialize against each other.
type Service struct {
	db    *gorm.DB
	cfg   config.EngineConfig
	locks *utils.KeyMutex
}

func NewService(db *gorm.DB, cfg config.EngineConfig, locks *utils.KeyMutex) *Service {
	return &Service{db: db, cfg: cfg, locks: locks}
}

// ModuleSummary is one row of the module list returned to students
type ModuleSummary struct {
	ModuleID                 uint                    `json:"module_id"`
	Title                    string                  `json:"title"`
	Description              string                  `json:"description"`
	Order                    int                     `json:"order"`
	EstimatedDurationMinutes int                     `json:"estimated_duration_minutes"`
	Unlocked                 bool                    `json:"is_unlocked"`
	Status                   learning.ProgressStatus `json:"status"`
	CompletionPercent        float64                 `json:"completion_percent"`
}

// IsUnlocked reports whether a module is accessible for an enrollment.
// The module with the lowest order in its course is always unlocked; any
// other module requires the immediately preceding module to be Completed.
func (s *Service) IsUnlocked(enrollmentID, moduleID uint) (bool, error) {
	return s.isUnlocked(s.db, enrollmentID, moduleID)
}

func (s *Service) isUnlocked(db *gorm.DB, enrollmentID, moduleID uint) (bool, error) {
	var module learning.CurriculumModule
	if err := db.Where("is_deleted = false").First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(errs.ErrNotFound, "module %d not found", moduleID)
		}
		return false, err
	}

	var minOrder int
	if err := db.Model(&learning.CurriculumModule{}).
		Where("course_id = ? AND is_deleted = false", module.CourseID).
		Select("MIN(module_order)").
		Scan(&minOrder).Error; err != nil {
		return false, err
	}

	// First module of the course is always open
	if module.ModuleOrder == minOrder {
		return true, nil
	}

	// Immediately preceding module by order, tolerant of gaps in numbering
	var previous learning.CurriculumModule
	if err := db.Where("course_id = ? AND module_order < ? AND is_deleted = false", module.CourseID, module.ModuleOrder).
		Order("module_order DESC").
		First(&previous).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(errs.ErrNotFound, "predecessor of module %d not found", moduleID)
		}
		return false, err
	}

	var previousProgress learning.ModuleProgress
	err := db.Where("enrollment_id = ? AND module_id = ?", enrollmentID, previous.ID).
		First(&previousProgress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil // predecessor never started
		}
		return false, err
	}

	return previousProgress.Status == learning.ProgressCompleted, nil
}

// ListModules returns every module of the course in curriculum order with
// its unlock flag, status and completion percent. Each unlock flag is
// recomputed from stored state on every call; nothing is cached.
func (s *Service) ListModules(enrollmentID, courseID uint) ([]ModuleSummary, error) {
	var course learning.Course
	if err := s.db.Where("is_deleted = false").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, "course %d not found", courseID)
		}
		return nil, err
	}

	var modules []learning.CurriculumModule
	if err := s.db.Where("course_id = ? AND is_deleted = false", courseID).
		Order("module_order asc").
		Find(&modules).Error; err != nil {
		return nil, err
	}

	var records []learning.ModuleProgress
	if err := s.db.Where("enrollment_id = ?", enrollmentID).Find(&records).Error; err != nil {
		return nil, err
	}
	progressByModule := make(map[uint]learning.ModuleProgress, len(records))
	for _, p := range records {
		progressByModule[p.ModuleID] = p
	}

	summaries := make([]ModuleSummary, 0, len(modules))
	for _, module := range modules {
		unlocked, err := s.isUnlocked(s.db, enrollmentID, module.ID)
		if err != nil {
			return nil, err
		}

		status := learning.ProgressNotStarted
		percent := 0.0
		if progress, ok := progressByModule[module.ID]; ok {
			status = progress.Status
			percent = progress.CompletionPercent
		}

		summaries = append(summaries, ModuleSummary{
			ModuleID:                 module.ID,
			Title:                    module.Title,
			Description:              module.Description,
			Order:                    module.ModuleOrder,
			EstimatedDurationMinutes: module.EstimatedDurationMinutes,
			Unlocked:                 unlocked,
			Status:                   status,
			CompletionPercent:        percent,
		})
	}

	return summaries, nil
}

// RecordContentProgress merges a reported completion percent into the stored
// progress row. The stored value is monotonically non-decreasing: a lower
// report is ignored. The first report for a pair creates the row as
// InProgress. Returns the stored percent after the merge.
func (s *Service) RecordContentProgress(enrollmentID, moduleID uint, percent float64) (float64, error) {
	if percent < 0 || percent > 100 {
		return 0, errs.Wrap(errs.ErrValidation, "percent must be between 0 and 100, got %.2f", percent)
	}

	unlock := s.locks.Lock(utils.EnrollmentModuleKey(enrollmentID, moduleID))
	defer unlock()

	var merged float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var module learning.CurriculumModule
		if err := tx.Where("is_deleted = false").First(&module, moduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Wrap(errs.ErrNotFound, "module %d not found", moduleID)
			}
			return err
		}

		var progress learning.ModuleProgress
		err := tx.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
			First(&progress).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = learning.ModuleProgress{
				EnrollmentID:      enrollmentID,
				ModuleID:          moduleID,
				CompletionPercent: percent,
				Status:            learning.ProgressInProgress,
			}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
			merged = progress.CompletionPercent
			return nil
		} else if err != nil {
			return err
		}

		if percent > progress.CompletionPercent {
			progress.CompletionPercent = percent
		}
		if progress.CompletionPercent > 100 {
			progress.CompletionPercent = 100
		}
		if progress.Status == learning.ProgressNotStarted {
			progress.Status = learning.ProgressInProgress
		}
		if err := tx.Save(&progress).Error; err != nil {
			return err
		}
		merged = progress.CompletionPercent
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// TryCompleteModule flips a module to Completed when the content is fully
// consumed and the latest quiz attempt passed. Returns true only on the call
// that performs the flip; repeated calls after completion are no-ops.
func (s *Service) TryCompleteModule(enrollmentID, moduleID uint) (bool, error) {
	unlock := s.locks.Lock(utils.EnrollmentModuleKey(enrollmentID, moduleID))
	defer unlock()

	var completed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, err = s.CompleteIfEligible(tx, enrollmentID, moduleID)
		return err
	})
	return completed, err
}

// CompleteIfEligible is the transaction-scoped body of TryCompleteModule,
// exposed so the quiz engine can run it inside the submission unit of work.
// Callers must already hold the (enrollment, module) lock.
func (s *Service) CompleteIfEligible(tx *gorm.DB, enrollmentID, moduleID uint) (bool, error) {
	var progress learning.ModuleProgress
	err := tx.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	// Completed is terminal
	if progress.Status == learning.ProgressCompleted {
		return false, nil
	}
	if progress.CompletionPercent < 100 {
		return false, nil
	}

	var latest learning.QuizAttempt
	err = tx.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		Order("attempt_number DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	passScore := s.PassScoreFor(tx, moduleID)
	if latest.ScorePercent < passScore || !latest.CompletedInTime {
		return false, nil
	}

	if !progress.Status.CanTransition(learning.ProgressCompleted) {
		return false, nil
	}
	progress.Status = learning.ProgressCompleted
	if err := tx.Save(&progress).Error; err != nil {
		return false, err
	}
	return true, nil
}

// PassScoreFor resolves the pass threshold for a module: its QuizConfig row
// if present, else the engine default. The same threshold is used for
// scoring and for the completion check so the two can never disagree.
func (s *Service) PassScoreFor(db *gorm.DB, moduleID uint) float64 {
	var quizConfig learning.QuizConfig
	if err := db.Where("module_id = ?", moduleID).First(&quizConfig).Error; err == nil {
		return quizConfig.PassScorePercent
	}
	return s.cfg.DefaultPassScorePercent
}
