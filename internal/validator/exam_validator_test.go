package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-edu/exam-service/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func mcq(options ...models.QuestionOption) QuestionContent {
	return QuestionContent{
		Type:    models.QuestionMCQ,
		Text:    "Pick the right one",
		Points:  10,
		Options: options,
	}
}

func TestValidateQuestion_MCQ(t *testing.T) {
	v := NewExamValidator()

	valid := mcq(
		models.QuestionOption{Text: "a"},
		models.QuestionOption{Text: "b", IsCorrect: true},
	)
	require.NoError(t, v.ValidateQuestion(valid))

	tests := []struct {
		name     string
		question QuestionContent
		wantErr  string
	}{
		{
			name:     "too few options",
			question: mcq(models.QuestionOption{Text: "only", IsCorrect: true}),
			wantErr:  "at least 2 options",
		},
		{
			name: "no correct option",
			question: mcq(
				models.QuestionOption{Text: "a"},
				models.QuestionOption{Text: "b"},
			),
			wantErr: "exactly 1 correct option",
		},
		{
			name: "multiple correct options",
			question: mcq(
				models.QuestionOption{Text: "a", IsCorrect: true},
				models.QuestionOption{Text: "b", IsCorrect: true},
			),
			wantErr: "exactly 1 correct option",
		},
		{
			name: "blank option text",
			question: mcq(
				models.QuestionOption{Text: "  "},
				models.QuestionOption{Text: "b", IsCorrect: true},
			),
			wantErr: "option text cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateQuestion(tt.question)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("option count ceiling", func(t *testing.T) {
		options := make([]models.QuestionOption, 11)
		for i := range options {
			options[i] = models.QuestionOption{Text: "option"}
		}
		options[0].IsCorrect = true
		err := v.ValidateQuestion(mcq(options...))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than 10 options")
	})
}

func TestValidateQuestion_ShortAnswer(t *testing.T) {
	v := NewExamValidator()

	t.Run("reference answer is optional", func(t *testing.T) {
		assert.NoError(t, v.ValidateQuestion(QuestionContent{
			Type: models.QuestionShortAnswer, Text: "Define osmosis", Points: 5,
		}))
	})

	t.Run("blank reference answer rejected", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionShortAnswer, Text: "Define osmosis", Points: 5,
			CorrectAnswer: strPtr("   "),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be blank")
	})

	t.Run("options rejected", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionShortAnswer, Text: "Define osmosis", Points: 5,
			Options: []models.QuestionOption{{Text: "a"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot have options")
	})
}

func TestValidateQuestion_Essay(t *testing.T) {
	v := NewExamValidator()

	t.Run("word limit accepted", func(t *testing.T) {
		assert.NoError(t, v.ValidateQuestion(QuestionContent{
			Type: models.QuestionEssay, Text: "Discuss", Points: 20,
			WordLimit: intPtr(500),
		}))
	})

	t.Run("non-positive word limit rejected", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionEssay, Text: "Discuss", Points: 20,
			WordLimit: intPtr(0),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "word limit")
	})

	t.Run("reference answer rejected", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionEssay, Text: "Discuss", Points: 20,
			CorrectAnswer: strPtr("there is none"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot have a correct answer")
	})
}

func TestValidateQuestion_Common(t *testing.T) {
	v := NewExamValidator()

	t.Run("blank text", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionEssay, Text: "   ", Points: 10,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "text is required")
	})

	t.Run("points out of range", func(t *testing.T) {
		for _, points := range []int{0, 101} {
			err := v.ValidateQuestion(QuestionContent{
				Type: models.QuestionEssay, Text: "Discuss", Points: points,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "between 1 and 100")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		err := v.ValidateQuestion(QuestionContent{
			Type: models.QuestionType("matching"), Text: "Match", Points: 10,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported question type")
	})
}

func TestValidateQuestionSet(t *testing.T) {
	v := NewExamValidator()

	questions := []QuestionContent{
		mcq(
			models.QuestionOption{Text: "a"},
			models.QuestionOption{Text: "b", IsCorrect: true},
		),
		{Type: models.QuestionEssay, Text: "Discuss", Points: 20},
	}

	t.Run("valid set", func(t *testing.T) {
		assert.NoError(t, v.ValidateQuestionSet(questions, nil))
		assert.NoError(t, v.ValidateQuestionSet(questions, intPtr(2)))
	})

	t.Run("empty set", func(t *testing.T) {
		err := v.ValidateQuestionSet(nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 1 question")
	})

	t.Run("sample size exceeds pool", func(t *testing.T) {
		err := v.ValidateQuestionSet(questions, intPtr(3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds question count")
	})

	t.Run("errors carry the question position", func(t *testing.T) {
		bad := append([]QuestionContent{}, questions...)
		bad[1].Points = 0
		err := v.ValidateQuestionSet(bad, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "question 2:")
	})
}
