package learning

import "gorm.io/gorm"

// QuestionBank is an authored quiz question for a module. Immutable after
// authoring; the authoring surface lives in the catalog service.
type QuestionBank struct {
	gorm.Model
	ModuleID        uint   `json:"module_id" gorm:"index;not null"`
	QuestionText    string `json:"question_text" gorm:"type:text;not null"`
	ExplanationText string `json:"explanation_text" gorm:"type:text"`
}

// QuestionOption is one answer option. Exactly one option per question
// carries IsCorrect; the flag never leaves the backend.
type QuestionOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"-" gorm:"default:false"`
}
