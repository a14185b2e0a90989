package validator

import (
	"fmt"
	"strings"

	"github.com/lumina-edu/exam-service/internal/models"
)

// ExamValidator handles exam content validation beyond struct tags.
type ExamValidator struct{}

// NewExamValidator creates a new exam content validator
func NewExamValidator() *ExamValidator {
	return &ExamValidator{}
}

// QuestionContent is the type-specific portion of a question draft.
type QuestionContent struct {
	Type          models.QuestionType
	Text          string
	Points        int
	Options       []models.QuestionOption
	CorrectAnswer *string
	WordLimit     *int
}

// ValidateQuestion validates one question draft against its type rules.
func (v *ExamValidator) ValidateQuestion(q QuestionContent) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is required")
	}

	if q.Points < 1 || q.Points > 100 {
		return fmt.Errorf("question points must be between 1 and 100")
	}

	switch q.Type {
	case models.QuestionMCQ:
		return v.validateMCQ(q)
	case models.QuestionShortAnswer:
		return v.validateShortAnswer(q)
	case models.QuestionEssay:
		return v.validateEssay(q)
	default:
		return fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

// ValidateQuestionSet validates a full exam question list.
func (v *ExamValidator) ValidateQuestionSet(questions []QuestionContent, questionsPerAttempt *int) error {
	if len(questions) == 0 {
		return fmt.Errorf("exam must have at least 1 question")
	}

	if questionsPerAttempt != nil && *questionsPerAttempt > len(questions) {
		return fmt.Errorf("questions_per_attempt (%d) exceeds question count (%d)",
			*questionsPerAttempt, len(questions))
	}

	for i, q := range questions {
		if err := v.ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	return nil
}

func (v *ExamValidator) validateMCQ(q QuestionContent) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("mcq question must have at least 2 options")
	}

	if len(q.Options) > 10 {
		return fmt.Errorf("mcq question cannot have more than 10 options")
	}

	correct := 0
	for _, option := range q.Options {
		if strings.TrimSpace(option.Text) == "" {
			return fmt.Errorf("option text cannot be empty")
		}
		if option.IsCorrect {
			correct++
		}
	}

	if correct != 1 {
		return fmt.Errorf("mcq question must have exactly 1 correct option, got %d", correct)
	}

	return nil
}

func (v *ExamValidator) validateShortAnswer(q QuestionContent) error {
	if len(q.Options) > 0 {
		return fmt.Errorf("short_answer question cannot have options")
	}
	// CorrectAnswer is optional; absent means manual grading only.
	if q.CorrectAnswer != nil && strings.TrimSpace(*q.CorrectAnswer) == "" {
		return fmt.Errorf("correct_answer cannot be blank when provided")
	}
	return nil
}

func (v *ExamValidator) validateEssay(q QuestionContent) error {
	if len(q.Options) > 0 {
		return fmt.Errorf("essay question cannot have options")
	}
	if q.CorrectAnswer != nil {
		return fmt.Errorf("essay question cannot have a correct answer")
	}
	if q.WordLimit != nil && *q.WordLimit < 1 {
		return fmt.Errorf("word limit must be positive")
	}
	return nil
}
