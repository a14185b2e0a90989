package services

import (
	"context"
	"time"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, creatorID string, creatorRole models.UserRole) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*ExamResponse, error)
	List(ctx context.Context, filters repositories.ExamFilters, userID string, role models.UserRole) ([]*ExamResponse, int64, error)
	SubmitForReview(ctx context.Context, examID uint, userID string) error
	Review(ctx context.Context, examID uint, req *ReviewExamRequest, reviewerID string, reviewerRole models.UserRole) (*ExamResponse, error)
	Publish(ctx context.Context, examID uint, userID string, role models.UserRole) (*ExamResponse, error)
	GetStats(ctx context.Context, examID uint, userID string, role models.UserRole) (*ExamStatsResponse, error)
	RecomputeStats(ctx context.Context, examID uint) error
}

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerInput, studentID string) error
	Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*AttemptSummaryResponse, error)
	GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (*TimeRemainingResponse, error)
	List(ctx context.Context, filters repositories.AttemptFilters, userID string, role models.UserRole) ([]*models.ExamAttempt, int64, error)
	HandleTimeout(ctx context.Context, attemptID uint) error
}

type ViolationService interface {
	Record(ctx context.Context, attemptID uint, req *RecordViolationRequest, studentID string) (*ViolationResponse, error)
	List(ctx context.Context, attemptID uint, userID string, role models.UserRole) ([]*models.AttemptViolation, error)
}

type GradingService interface {
	GradeAnswer(ctx context.Context, attemptID, questionID uint, req *GradeAnswerRequest, graderID string, graderRole models.UserRole) error
	PublishScore(ctx context.Context, attemptID uint, req *PublishScoreRequest, publisherID string, publisherRole models.UserRole) (*AttemptSummaryResponse, error)
	GetResults(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*AttemptResultsResponse, error)
}

type ReAttemptService interface {
	Request(ctx context.Context, req *ReAttemptRequestInput, studentID string) (*models.ReAttemptRequest, error)
	Review(ctx context.Context, requestID uint, req *ReviewReAttemptRequest, reviewerID string) (*models.ReAttemptRequest, error)
	ListPending(ctx context.Context, creatorID string) ([]*models.ReAttemptRequest, error)
}

type ExportService interface {
	ExportResults(ctx context.Context, examID uint, userID string, role models.UserRole) ([]byte, string, error)
}

// ===== EXAM DTOS =====

type CreateExamRequest struct {
	CourseID            uint                    `json:"course_id" validate:"required"`
	Title               string                  `json:"title" validate:"required,min=1,max=200"`
	Description         *string                 `json:"description" validate:"omitempty,max=1000"`
	Duration            int                     `json:"duration" validate:"required,min=5,max=300"`
	PassingScore        *int                    `json:"passing_score" validate:"omitempty,min=0,max=100"`
	MaxAttempts         *int                    `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	QuestionsPerAttempt *int                    `json:"questions_per_attempt" validate:"omitempty,min=1"`
	AvailableFrom       *time.Time              `json:"available_from"`
	AvailableUntil      *time.Time              `json:"available_until"`
	Settings            *ExamSettingsInput      `json:"settings"`
	Questions           []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type ExamSettingsInput struct {
	ShuffleQuestions  bool `json:"shuffle_questions"`
	ShuffleOptions    bool `json:"shuffle_options"`
	BlockCopyPaste    bool `json:"block_copy_paste"`
	BlockTabSwitch    bool `json:"block_tab_switch"`
	BlockRightClick   bool `json:"block_right_click"`
	RequireFullScreen bool `json:"require_full_screen"`
	RequireWebcam     bool `json:"require_webcam"`
}

type CreateQuestionRequest struct {
	Type          models.QuestionType     `json:"type" validate:"required,question_type"`
	Text          string                  `json:"text" validate:"required"`
	Points        int                     `json:"points" validate:"required,min=1,max=100"`
	Options       []models.QuestionOption `json:"options" validate:"omitempty,dive"`
	CorrectAnswer *string                 `json:"correct_answer"`
	WordLimit     *int                    `json:"word_limit" validate:"omitempty,min=1"`
	Explanation   *string                 `json:"explanation"`
}

type ReviewExamRequest struct {
	Approved bool    `json:"approved"`
	Comments *string `json:"comments" validate:"omitempty,max=1000"`
}

type ExamResponse struct {
	*models.Exam
	QuestionCount int  `json:"question_count"`
	CanEdit       bool `json:"can_edit"`
	CanReview     bool `json:"can_review"`
}

type ExamStatsResponse struct {
	ExamID         uint    `json:"exam_id"`
	AttemptCount   int     `json:"attempt_count"`
	SubmittedCount int     `json:"submitted_count"`
	AverageScore   float64 `json:"average_score"`
	PassRate       float64 `json:"pass_rate"`
}

// ===== ATTEMPT DTOS =====

type StartAttemptRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`
}

type AttemptResponse struct {
	AttemptID     uint                      `json:"attempt_id"`
	ExamID        uint                      `json:"exam_id"`
	ExamTitle     string                    `json:"exam_title"`
	AttemptNumber int                       `json:"attempt_number"`
	Status        models.AttemptStatus      `json:"status"`
	StartedAt     time.Time                 `json:"started_at"`
	Duration      int                       `json:"duration"` // minutes
	TimeRemaining int                       `json:"time_remaining"` // seconds
	Questions     []models.RedactedQuestion `json:"questions"`
	Resumed       bool                      `json:"resumed"`
}

type SubmitAttemptRequest struct {
	AttemptID uint                `json:"-"`
	Answers   []SubmitAnswerInput `json:"answers" validate:"dive"`
}

type SubmitAnswerInput struct {
	QuestionID     uint    `json:"question_id" validate:"required"`
	SelectedOption *int    `json:"selected_option"`
	Text           *string `json:"text"`
}

type AttemptSummaryResponse struct {
	AttemptID          uint                    `json:"attempt_id"`
	ExamID             uint                    `json:"exam_id"`
	Status             models.AttemptStatus    `json:"status"`
	SubmittedAt        *time.Time              `json:"submitted_at"`
	SubmissionMethod   models.SubmissionMethod `json:"submission_method"`
	IsTimedOut         bool                    `json:"is_timed_out"`
	GradingStatus      models.GradingStatus    `json:"grading_status"`
	ScorePublished     bool                    `json:"score_published"`
	TotalScore         *float64                `json:"total_score,omitempty"`
	Percentage         *int                    `json:"percentage,omitempty"`
	Passed             *bool                   `json:"passed,omitempty"`
	NeedsManualGrading bool                    `json:"needs_manual_grading"`
}

type TimeRemainingResponse struct {
	AttemptID     uint `json:"attempt_id"`
	TimeRemaining int  `json:"time_remaining"` // seconds
	Expired       bool `json:"expired"`
}

// ===== VIOLATION DTOS =====

type RecordViolationRequest struct {
	Type   models.ViolationType `json:"type" validate:"required,violation_type"`
	Detail *string              `json:"detail" validate:"omitempty,max=1000"`
}

type ViolationResponse struct {
	ViolationID    uint                     `json:"violation_id"`
	AttemptID      uint                     `json:"attempt_id"`
	Type           models.ViolationType     `json:"type"`
	Severity       models.ViolationSeverity `json:"severity"`
	ViolationCount int                      `json:"violation_count"`
	Terminated     bool                     `json:"terminated"`
}

// ===== GRADING DTOS =====

type GradeAnswerRequest struct {
	Score    float64 `json:"score" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type PublishScoreRequest struct {
	// FinalScore defaults to the attempt's auto-computed total when nil.
	FinalScore *float64 `json:"final_score" validate:"omitempty,min=0"`
	Feedback   *string  `json:"feedback" validate:"omitempty,max=2000"`
}

type AttemptResultsResponse struct {
	AttemptID       uint                 `json:"attempt_id"`
	ExamID          uint                 `json:"exam_id"`
	ExamTitle       string               `json:"exam_title"`
	StudentID       string               `json:"student_id"`
	Status          models.AttemptStatus `json:"status"`
	SubmittedAt     *time.Time           `json:"submitted_at"`
	TimeSpent       int                  `json:"time_spent"`
	GradingStatus   models.GradingStatus `json:"grading_status"`
	ScorePublished  bool                 `json:"score_published"`
	FinalScore      *float64             `json:"final_score,omitempty"`
	FinalPercentage *int                 `json:"final_percentage,omitempty"`
	FinalPassed     *bool                `json:"final_passed,omitempty"`
	Feedback        *string              `json:"feedback,omitempty"`
	Answers         []AnswerResult       `json:"answers"`
}

type AnswerResult struct {
	QuestionID     uint                `json:"question_id"`
	Type           models.QuestionType `json:"type"`
	Text           string              `json:"text"`
	SelectedOption *int                `json:"selected_option,omitempty"`
	AnswerText     *string             `json:"answer_text,omitempty"`
	Points         float64             `json:"points"`
	MaxPoints      int                 `json:"max_points"`
	IsCorrect      *bool               `json:"is_correct,omitempty"`
	Feedback       *string             `json:"feedback,omitempty"`
}

// ===== RE-ATTEMPT DTOS =====

type ReAttemptRequestInput struct {
	ExamID            uint                 `json:"exam_id" validate:"required"`
	OriginalAttemptID *uint                `json:"original_attempt_id"`
	ViolationType     models.ViolationType `json:"violation_type" validate:"required,violation_type"`
	ViolationDetails  *string              `json:"violation_details" validate:"omitempty,max=1000"`
	Message           string               `json:"message" validate:"required,max=1000"`
}

type ReviewReAttemptRequest struct {
	Approved bool    `json:"approved"`
	Response *string `json:"response" validate:"omitempty,max=1000"`
}
