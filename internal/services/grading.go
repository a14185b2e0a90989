package services

import (
	"math"
	"strings"

	"github.com/lumina-edu/exam-service/internal/models"
)

// Auto-grading rules applied per answer at submission time. Grading
// reads only the snapshot, never the live exam.

// autoGradeAnswer scores one answer in place against its snapshot
// question. Returns false when the answer is left for manual grading.
func autoGradeAnswer(q models.SnapshotQuestion, answer *models.AttemptAnswer) bool {
	answer.MaxPoints = q.Points

	switch q.Type {
	case models.QuestionMCQ:
		correct := answer.SelectedOption != nil &&
			*answer.SelectedOption >= 0 &&
			*answer.SelectedOption < len(q.Options) &&
			q.Options[*answer.SelectedOption].IsCorrect
		answer.AutoGraded = true
		answer.IsCorrect = &correct
		if correct {
			answer.Points = float64(q.Points)
		} else {
			answer.Points = 0
		}
		return true

	case models.QuestionShortAnswer:
		// No reference answer, or no student text: nothing to compare.
		// An unanswered question earns zero without review; answered
		// text that does not match exactly goes to manual grading.
		if answer.Text == nil || strings.TrimSpace(*answer.Text) == "" {
			zero := false
			answer.AutoGraded = true
			answer.IsCorrect = &zero
			answer.Points = 0
			return true
		}
		if q.CorrectAnswer == nil {
			answer.Points = 0
			return false
		}
		if strings.EqualFold(strings.TrimSpace(*answer.Text), strings.TrimSpace(*q.CorrectAnswer)) {
			correct := true
			answer.AutoGraded = true
			answer.IsCorrect = &correct
			answer.Points = float64(q.Points)
			return true
		}
		answer.Points = 0
		return false

	case models.QuestionEssay:
		// Essays always go to manual grading, blank or not. A grader
		// may still award zero, but the engine never does it for them.
		answer.Points = 0
		return false
	}

	return false
}

// gradeAnswers applies auto-grading across a full answer set and
// reports the derived grading status.
func gradeAnswers(snapshot *models.ExamSnapshot, answers []*models.AttemptAnswer) models.GradingStatus {
	questions := make(map[uint]models.SnapshotQuestion, len(snapshot.Questions))
	for _, q := range snapshot.Questions {
		questions[q.QuestionID] = q
	}

	allGraded := true
	for _, answer := range answers {
		q, ok := questions[answer.QuestionID]
		if !ok {
			continue
		}
		if !autoGradeAnswer(q, answer) {
			allGraded = false
		}
	}

	if allGraded {
		return models.GradingFullyGraded
	}
	return models.GradingPartiallyGraded
}

// isGraded reports whether an answer has a score, auto or manual.
func isGraded(answer *models.AttemptAnswer) bool {
	return answer.AutoGraded || answer.ManualScore != nil
}

// sumScore totals the points of graded answers only.
func sumScore(answers []*models.AttemptAnswer) float64 {
	var total float64
	for _, answer := range answers {
		if isGraded(answer) {
			total += answer.Points
		}
	}
	return total
}

// computePercentage returns round(score/totalPoints*100).
func computePercentage(score float64, totalPoints int) int {
	if totalPoints <= 0 {
		return 0
	}
	return int(math.Round(score / float64(totalPoints) * 100))
}
