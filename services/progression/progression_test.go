package progression

import (
	"errors"
	"lms/config"
	"lms/models"
	"lms/models/learning"
	"lms/services/errs"
	"lms/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
		&learning.Course{},
		&learning.CurriculumModule{},
		&learning.Enrollment{},
		&learning.ModuleProgress{},
		&learning.QuestionBank{},
		&learning.QuestionOption{},
		&learning.QuizConfig{},
		&learning.QuizAttempt{},
	))
	return db
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		DefaultQuizQuestions:        15,
		DefaultQuizTimeLimitSeconds: 120,
		DefaultPassScorePercent:     100,
		MaxQuizAttempts:             3,
		CreditFastAndFull:           15,
		CreditNormalAndFull:         10,
		CreditOther:                 2,
		FastThresholdSeconds:        60,
		NormalThresholdSeconds:      120,
	}
}

// seedCourse creates a course with modules at the given orders and an active
// enrollment, returning the course, modules (in the given order) and
// enrollment.
func seedCourse(t *testing.T, db *gorm.DB, orders ...int) (learning.Course, []learning.CurriculumModule, learning.Enrollment) {
	t.Helper()

	course := learning.Course{Title: "Algebra Basics", Subject: "Math", IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	modules := make([]learning.CurriculumModule, 0, len(orders))
	for _, order := range orders {
		module := learning.CurriculumModule{
			CourseID:    course.ID,
			ModuleOrder: order,
			Title:       "Module",
		}
		require.NoError(t, db.Create(&module).Error)
		modules = append(modules, module)
	}

	enrollment := learning.Enrollment{UserID: 1, CourseID: course.ID, Status: learning.EnrollmentActive}
	require.NoError(t, db.Create(&enrollment).Error)

	return course, modules, enrollment
}

func markCompleted(t *testing.T, db *gorm.DB, enrollmentID, moduleID uint) {
	t.Helper()
	require.NoError(t, db.Create(&learning.ModuleProgress{
		EnrollmentID:      enrollmentID,
		ModuleID:          moduleID,
		CompletionPercent: 100,
		Status:            learning.ProgressCompleted,
	}).Error)
}

func TestFirstModuleAlwaysUnlocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1, 2, 3)

	unlocked, err := svc.IsUnlocked(enrollment.ID, modules[0].ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestUnlockRequiresPredecessorCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1, 2, 3)

	unlocked, err := svc.IsUnlocked(enrollment.ID, modules[1].ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "second module must stay locked before the first completes")

	markCompleted(t, db, enrollment.ID, modules[0].ID)

	unlocked, err = svc.IsUnlocked(enrollment.ID, modules[1].ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = svc.IsUnlocked(enrollment.ID, modules[2].ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "third module requires the second, not just the first")
}

func TestUnlockToleratesOrderGaps(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1, 5)

	markCompleted(t, db, enrollment.ID, modules[0].ID)

	unlocked, err := svc.IsUnlocked(enrollment.ID, modules[1].ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestIsUnlockedUnknownModule(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())

	_, err := svc.IsUnlocked(1, 999)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestListModules(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	course, modules, enrollment := seedCourse(t, db, 2, 1, 3)

	markCompleted(t, db, enrollment.ID, modules[1].ID) // order 1

	summaries, err := svc.ListModules(enrollment.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Curriculum order regardless of insertion order
	assert.Equal(t, 1, summaries[0].Order)
	assert.Equal(t, 2, summaries[1].Order)
	assert.Equal(t, 3, summaries[2].Order)

	assert.True(t, summaries[0].Unlocked)
	assert.Equal(t, learning.ProgressCompleted, summaries[0].Status)
	assert.Equal(t, 100.0, summaries[0].CompletionPercent)

	assert.True(t, summaries[1].Unlocked)
	assert.Equal(t, learning.ProgressNotStarted, summaries[1].Status)
	assert.Equal(t, 0.0, summaries[1].CompletionPercent)

	assert.False(t, summaries[2].Unlocked)
}

func TestListModulesUnknownCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())

	_, err := svc.ListModules(1, 999)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRecordContentProgressValidatesPercent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1)

	_, err := svc.RecordContentProgress(enrollment.ID, modules[0].ID, -1)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = svc.RecordContentProgress(enrollment.ID, modules[0].ID, 100.5)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestRecordContentProgressUnknownModule(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, _, enrollment := seedCourse(t, db, 1)

	_, err := svc.RecordContentProgress(enrollment.ID, 999, 50)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRecordContentProgressMergesMonotonically(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1)

	// First report creates the row as InProgress
	merged, err := svc.RecordContentProgress(enrollment.ID, modules[0].ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40.0, merged)

	var progress learning.ModuleProgress
	require.NoError(t, db.Where("enrollment_id = ? AND module_id = ?", enrollment.ID, modules[0].ID).First(&progress).Error)
	assert.Equal(t, learning.ProgressInProgress, progress.Status)

	// A lower report never lowers the stored value
	merged, err = svc.RecordContentProgress(enrollment.ID, modules[0].ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 40.0, merged)

	// A higher report raises it
	merged, err = svc.RecordContentProgress(enrollment.ID, modules[0].ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 90.0, merged)
}

func TestTryCompleteModule(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1)
	moduleID := modules[0].ID

	// No progress row yet
	completed, err := svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.False(t, completed)

	// Content fully consumed but no passing attempt
	_, err = svc.RecordContentProgress(enrollment.ID, moduleID, 100)
	require.NoError(t, err)
	completed, err = svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.False(t, completed)

	// A failed latest attempt does not complete
	require.NoError(t, db.Create(&learning.QuizAttempt{
		EnrollmentID: enrollment.ID, ModuleID: moduleID,
		AttemptNumber: 1, ScorePercent: 60, TimeTakenSeconds: 50,
		CompletedInTime: true, AttemptedAt: time.Now(),
	}).Error)
	completed, err = svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.False(t, completed)

	// A passing latest attempt flips the module
	require.NoError(t, db.Create(&learning.QuizAttempt{
		EnrollmentID: enrollment.ID, ModuleID: moduleID,
		AttemptNumber: 2, ScorePercent: 100, TimeTakenSeconds: 50,
		CompletedInTime: true, AttemptedAt: time.Now(),
	}).Error)
	completed, err = svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.True(t, completed)

	// Idempotent: the flip happens exactly once
	completed, err = svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.False(t, completed)

	// A later failing attempt never regresses the status
	require.NoError(t, db.Create(&learning.QuizAttempt{
		EnrollmentID: enrollment.ID, ModuleID: moduleID,
		AttemptNumber: 3, ScorePercent: 0, TimeTakenSeconds: 50,
		CompletedInTime: true, AttemptedAt: time.Now(),
	}).Error)
	completed, err = svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.False(t, completed)

	var progress learning.ModuleProgress
	require.NoError(t, db.Where("enrollment_id = ? AND module_id = ?", enrollment.ID, moduleID).First(&progress).Error)
	assert.Equal(t, learning.ProgressCompleted, progress.Status)
}

func TestTryCompleteRespectsModulePassScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, testEngineConfig(), utils.NewKeyMutex())
	_, modules, enrollment := seedCourse(t, db, 1)
	moduleID := modules[0].ID

	// Module-level override lowers the pass threshold to 70
	require.NoError(t, db.Create(&learning.QuizConfig{
		ModuleID: moduleID, TotalQuestions: 10, TimeLimitSeconds: 120, PassScorePercent: 70,
	}).Error)

	_, err := svc.RecordContentProgress(enrollment.ID, moduleID, 100)
	require.NoError(t, err)

	require.NoError(t, db.Create(&learning.QuizAttempt{
		EnrollmentID: enrollment.ID, ModuleID: moduleID,
		AttemptNumber: 1, ScorePercent: 75, TimeTakenSeconds: 50,
		CompletedInTime: true, AttemptedAt: time.Now(),
	}).Error)

	completed, err := svc.TryCompleteModule(enrollment.ID, moduleID)
	require.NoError(t, err)
	assert.True(t, completed)
}
