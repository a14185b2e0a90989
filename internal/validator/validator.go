package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lumina-edu/exam-service/internal/models"
)

// Validator combines struct-tag validation with domain rules for exam
// content.
type Validator struct {
	structValidator *validator.Validate
	examValidator   *ExamValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		examValidator:   NewExamValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Exam returns the exam content validator
func (v *Validator) Exam() *ExamValidator {
	return v.examValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("exam_status", validateExamStatus)
	validate.RegisterValidation("violation_type", validateViolationType)
	validate.RegisterValidation("user_role", validateUserRole)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions

func validateQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.QuestionMCQ, models.QuestionShortAnswer, models.QuestionEssay:
		return true
	}
	return false
}

func validateExamStatus(fl validator.FieldLevel) bool {
	switch models.ExamStatus(fl.Field().String()) {
	case models.ExamDraft, models.ExamPendingReview, models.ExamApproved,
		models.ExamRejected, models.ExamArchived:
		return true
	}
	return false
}

func validateViolationType(fl validator.FieldLevel) bool {
	switch models.ViolationType(fl.Field().String()) {
	case models.ViolationTabSwitch, models.ViolationCopyPaste,
		models.ViolationRightClick, models.ViolationFullscreenExit,
		models.ViolationWebcamOff, models.ViolationContactCreator:
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
		return true
	}
	return false
}
