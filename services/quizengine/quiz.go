// Package quizengine generates quiz instances from the question bank and
// scores submissions, writing one immutable attempt row per submission.
package quizengine

import (
	"errors"
	"fmt"
	"lms/config"
	"lms/models"
	"lms/models/learning"
	"lms/services/errs"
	"lms/services/ledger"
	"lms/services/progression"
	"lms/services/reward"
	"lms/utils"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReasonMaxAttempts       = "max attempts reached"
	ReasonContentIncomplete = "content incomplete"
)

type Service struct {
	db       *gorm.DB
	cfg      config.EngineConfig
	gate     *progression.Service
	ledger   *ledger.Service
	rewards  *reward.Calculator
	notifier *utils.Notifier
	locks    *utils.KeyMutex
}

func NewService(db *gorm.DB, cfg config.EngineConfig, gate *progression.Service, ledgerSvc *ledger.Service, rewards *reward.Calculator, notifier *utils.Notifier, locks *utils.KeyMutex) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		gate:     gate,
		ledger:   ledgerSvc,
		rewards:  rewards,
		notifier: notifier,
		locks:    locks,
	}
}

// QuizOption carries only what the student may see; the correctness flag
// never leaves the backend.
type QuizOption struct {
	OptionID   uint   `json:"option_id"`
	OptionText string `json:"option_text"`
}

type QuizQuestion struct {
	QuestionID   uint         `json:"question_id"`
	QuestionText string       `json:"question_text"`
	Options      []QuizOption `json:"options"`
}

// QuizInstance is one generated quiz. TotalQuestions reports the actual
// count, which may be below the configured count when the bank is short.
type QuizInstance struct {
	QuizID           string         `json:"quiz_id"`
	ModuleID         uint           `json:"module_id"`
	TotalQuestions   int            `json:"total_questions"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	PassScorePercent float64        `json:"pass_score_percent"`
	Questions        []QuizQuestion `json:"questions"`
}

// Explanation is returned for every incorrectly answered question
type Explanation struct {
	QuestionText   string `json:"question_text"`
	SelectedOption string `json:"selected_option"`
	CorrectOption  string `json:"correct_option"`
	Explanation    string `json:"explanation"`
}

type QuizResult struct {
	AttemptID         uint          `json:"attempt_id"`
	AttemptNumber     int           `json:"attempt_number"`
	ScorePercent      float64       `json:"score_percent"`
	CorrectCount      int           `json:"correct_count"`
	TotalQuestions    int           `json:"total_questions"`
	TimeTakenSeconds  int           `json:"time_taken_seconds"`
	CompletedInTime   bool          `json:"completed_in_time"`
	Passed            bool          `json:"passed"`
	PassScorePercent  float64       `json:"pass_score_percent"`
	RemainingAttempts int           `json:"remaining_attempts"`
	ModuleCompleted   bool          `json:"module_completed"`
	CreditsAwarded    int64         `json:"credits_awarded"`
	Explanations      []Explanation `json:"explanations"`
}

// quizConfigFor resolves a module's quiz parameters, falling back to the
// engine defaults when the module has no QuizConfig row.
func (s *Service) quizConfigFor(db *gorm.DB, moduleID uint) (totalQuestions, timeLimitSeconds int, passScorePercent float64) {
	var quizConfig learning.QuizConfig
	if err := db.Where("module_id = ?", moduleID).First(&quizConfig).Error; err == nil {
		return quizConfig.TotalQuestions, quizConfig.TimeLimitSeconds, quizConfig.PassScorePercent
	}
	return s.cfg.DefaultQuizQuestions, s.cfg.DefaultQuizTimeLimitSeconds, s.cfg.DefaultPassScorePercent
}

// GenerateQuiz builds a fresh quiz instance for a module: configured number
// of questions sampled without replacement, question order and each option
// order shuffled independently.
func (s *Service) GenerateQuiz(moduleID uint) (*QuizInstance, error) {
	var module learning.CurriculumModule
	if err := s.db.Where("is_deleted = false").First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, "module %d not found", moduleID)
		}
		return nil, err
	}

	configured, timeLimit, passScore := s.quizConfigFor(s.db, moduleID)

	var bank []learning.QuestionBank
	if err := s.db.Where("module_id = ?", moduleID).Find(&bank).Error; err != nil {
		return nil, err
	}

	// Sample without replacement; a random permutation prefix gives both
	// the uniform selection and the shuffled question order.
	count := min(len(bank), configured)
	perm := rand.Perm(len(bank))

	questions := make([]QuizQuestion, 0, count)
	for _, idx := range perm[:count] {
		question := bank[idx]

		var options []learning.QuestionOption
		if err := s.db.Where("question_id = ?", question.ID).Find(&options).Error; err != nil {
			return nil, err
		}
		rand.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})

		quizOptions := make([]QuizOption, 0, len(options))
		for _, option := range options {
			quizOptions = append(quizOptions, QuizOption{
				OptionID:   option.ID,
				OptionText: option.OptionText,
			})
		}

		questions = append(questions, QuizQuestion{
			QuestionID:   question.ID,
			QuestionText: question.QuestionText,
			Options:      quizOptions,
		})
	}

	return &QuizInstance{
		QuizID:           uuid.NewString(),
		ModuleID:         moduleID,
		TotalQuestions:   count,
		TimeLimitSeconds: timeLimit,
		PassScorePercent: passScore,
		Questions:        questions,
	}, nil
}

// CanAttempt reports whether a student may take the module quiz, with the
// specific reason when they may not.
func (s *Service) CanAttempt(enrollmentID, moduleID uint) (bool, string, error) {
	var attempts int64
	if err := s.db.Model(&learning.QuizAttempt{}).
		Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		Count(&attempts).Error; err != nil {
		return false, "", err
	}
	if attempts >= int64(s.cfg.MaxQuizAttempts) {
		return false, ReasonMaxAttempts, nil
	}

	var progress learning.ModuleProgress
	err := s.db.Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && progress.CompletionPercent < 100) {
		return false, ReasonContentIncomplete, nil
	}
	if err != nil {
		return false, "", err
	}

	return true, "", nil
}

// SubmitAndScore scores a submission and persists the attempt. The attempt
// count, the insert and — on a pass — the module completion and the credit
// award all commit in one transaction, serialized per (enrollment, module):
// a ledger failure rolls the completion flip back, and concurrent
// submissions can never share an attempt number.
func (s *Service) SubmitAndScore(enrollmentID, moduleID uint, answers map[uint]uint, timeTakenSeconds int) (*QuizResult, error) {
	if timeTakenSeconds < 0 {
		return nil, errs.Wrap(errs.ErrValidation, "time taken must not be negative")
	}

	var enrollment learning.Enrollment
	if err := s.db.Where("is_deleted = false").First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, "enrollment %d not found", enrollmentID)
		}
		return nil, err
	}

	_, timeLimit, passScore := s.quizConfigFor(s.db, moduleID)
	completedInTime := timeTakenSeconds <= timeLimit

	correctCount, explanations := s.scoreAnswers(answers)
	totalSubmitted := len(answers)
	scorePercent := 0.0 // guard the empty submission, never divide by zero
	if totalSubmitted > 0 {
		scorePercent = float64(correctCount) / float64(totalSubmitted) * 100
	}
	passed := scorePercent >= passScore && completedInTime

	unlock := s.locks.Lock(utils.EnrollmentModuleKey(enrollmentID, moduleID))
	defer unlock()

	var result *QuizResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var priorAttempts int64
		if err := tx.Model(&learning.QuizAttempt{}).
			Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
			Count(&priorAttempts).Error; err != nil {
			return err
		}
		if priorAttempts >= int64(s.cfg.MaxQuizAttempts) {
			return errs.Wrap(errs.ErrAttemptLimit, "maximum attempts (%d) reached", s.cfg.MaxQuizAttempts)
		}

		attempt := learning.QuizAttempt{
			EnrollmentID:     enrollmentID,
			ModuleID:         moduleID,
			AttemptNumber:    int(priorAttempts) + 1,
			ScorePercent:     scorePercent,
			TimeTakenSeconds: timeTakenSeconds,
			CompletedInTime:  completedInTime,
			AttemptedAt:      time.Now(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		remaining := s.cfg.MaxQuizAttempts - attempt.AttemptNumber
		if remaining < 0 {
			remaining = 0
		}
		result = &QuizResult{
			AttemptID:         attempt.ID,
			AttemptNumber:     attempt.AttemptNumber,
			ScorePercent:      scorePercent,
			CorrectCount:      correctCount,
			TotalQuestions:    totalSubmitted,
			TimeTakenSeconds:  timeTakenSeconds,
			CompletedInTime:   completedInTime,
			Passed:            passed,
			PassScorePercent:  passScore,
			RemainingAttempts: remaining,
			Explanations:      explanations,
		}

		if !passed {
			return nil
		}

		completed, err := s.gate.CompleteIfEligible(tx, enrollmentID, moduleID)
		if err != nil {
			return err
		}
		result.ModuleCompleted = completed

		credits := s.rewards.Credits(scorePercent, timeTakenSeconds, completedInTime)
		if credits > 0 {
			account, err := s.ledger.EnsureAccountIn(tx, enrollment.UserID)
			if err != nil {
				return err
			}
			txn, err := s.ledger.AwardIn(
				tx,
				account.ID,
				credits,
				models.ReferenceTypeQuizAttempt,
				attempt.ID,
				fmt.Sprintf("Module quiz completion - %d credits", credits),
			)
			if err != nil {
				return err
			}
			result.CreditsAwarded = txn.CreditsDelta
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit fanout only; nothing here can invalidate the attempt
	if result.ModuleCompleted {
		s.notifier.ModuleCompleted(enrollmentID, moduleID)
	}
	if result.CreditsAwarded > 0 {
		var account models.WalletAccount
		if err := s.db.Where("user_id = ?", enrollment.UserID).First(&account).Error; err == nil {
			s.notifier.CreditsAwarded(enrollmentID, moduleID, account.ID, result.CreditsAwarded)
		}
	}

	return result, nil
}

// scoreAnswers compares each submitted answer with the question's correct
// option. A question or option id that resolves to nothing counts as wrong,
// not as an error: students may omit or mis-reference ids.
func (s *Service) scoreAnswers(answers map[uint]uint) (int, []Explanation) {
	correctCount := 0
	explanations := make([]Explanation, 0)

	for questionID, selectedOptionID := range answers {
		var question learning.QuestionBank
		questionErr := s.db.First(&question, questionID).Error

		var options []learning.QuestionOption
		s.db.Where("question_id = ?", questionID).Find(&options)

		var correctOption, selectedOption *learning.QuestionOption
		for i := range options {
			if options[i].IsCorrect {
				correctOption = &options[i]
			}
			if options[i].ID == selectedOptionID {
				selectedOption = &options[i]
			}
		}

		if selectedOption != nil && correctOption != nil && selectedOption.ID == correctOption.ID {
			correctCount++
			continue
		}

		explanation := Explanation{}
		if questionErr == nil {
			explanation.QuestionText = question.QuestionText
			explanation.Explanation = question.ExplanationText
		}
		if selectedOption != nil {
			explanation.SelectedOption = selectedOption.OptionText
		}
		if correctOption != nil {
			explanation.CorrectOption = correctOption.OptionText
		}
		explanations = append(explanations, explanation)
	}

	return correctCount, explanations
}
