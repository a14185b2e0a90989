package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/cache"
	"github.com/lumina-edu/exam-service/internal/events"
	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
	"github.com/lumina-edu/exam-service/internal/validator"
)

// fakeRepo is an in-memory TransactionRepository. Transactions are
// simulated: Begin returns the same store, so commits are implicit and
// rollbacks are no-ops. Good enough for exercising service semantics.
type fakeRepo struct {
	mu sync.Mutex

	exams       map[uint]*models.Exam
	attempts    map[uint]*models.ExamAttempt
	answers     map[uint]*models.AttemptAnswer
	violations  map[uint]*models.AttemptViolation
	requests    map[uint]*models.ReAttemptRequest
	courses     map[uint]*models.Course
	enrollments map[uint][]string

	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		exams:       make(map[uint]*models.Exam),
		attempts:    make(map[uint]*models.ExamAttempt),
		answers:     make(map[uint]*models.AttemptAnswer),
		violations:  make(map[uint]*models.AttemptViolation),
		requests:    make(map[uint]*models.ReAttemptRequest),
		courses:     make(map[uint]*models.Course),
		enrollments: make(map[uint][]string),
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) Exam() repositories.ExamRepository             { return (*fakeExamRepo)(f) }
func (f *fakeRepo) Attempt() repositories.AttemptRepository       { return (*fakeAttemptRepo)(f) }
func (f *fakeRepo) ReAttempt() repositories.ReAttemptRepository   { return (*fakeReAttemptRepo)(f) }
func (f *fakeRepo) Enrollment() repositories.EnrollmentRepository { return (*fakeEnrollmentRepo)(f) }

func (f *fakeRepo) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	return f, nil
}
func (f *fakeRepo) Commit(ctx context.Context) error   { return nil }
func (f *fakeRepo) Rollback(ctx context.Context) error { return nil }

// enroll registers a student on a course, creating the course if needed.
func (f *fakeRepo) enroll(courseID uint, studentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[courseID]; !ok {
		f.courses[courseID] = &models.Course{ID: courseID, Title: "Course", CreatedBy: "teacher-1"}
	}
	f.enrollments[courseID] = append(f.enrollments[courseID], studentID)
}

// ===== EXAM =====

type fakeExamRepo fakeRepo

func (f *fakeExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam.ID = (*fakeRepo)(f).id()
	for i := range exam.Questions {
		exam.Questions[i].ID = (*fakeRepo)(f).id()
		exam.Questions[i].ExamID = exam.ID
	}
	exam.Settings.ExamID = exam.ID
	exam.CreatedAt = time.Now()
	cp := *exam
	f.exams[exam.ID] = &cp
	return nil
}

func (f *fakeExamRepo) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *exam
	return &cp, nil
}

func (f *fakeExamRepo) GetByIDWithDetails(ctx context.Context, id uint) (*models.Exam, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeExamRepo) Update(ctx context.Context, exam *models.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *exam
	f.exams[exam.ID] = &cp
	return nil
}

func (f *fakeExamRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.exams, id)
	return nil
}

func (f *fakeExamRepo) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Exam
	for _, exam := range f.exams {
		if filters.Status != nil && exam.Status != *filters.Status {
			continue
		}
		if filters.CourseID != nil && exam.CourseID != *filters.CourseID {
			continue
		}
		if filters.CreatedBy != nil && exam.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Published != nil && exam.IsPublished != *filters.Published {
			continue
		}
		cp := *exam
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeExamRepo) GetByCourse(ctx context.Context, courseID uint, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.CourseID = &courseID
	return f.List(ctx, filters)
}

func (f *fakeExamRepo) GetByCreator(ctx context.Context, creatorID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.CreatedBy = &creatorID
	return f.List(ctx, filters)
}

func (f *fakeExamRepo) TransitionStatus(ctx context.Context, id uint, from, to models.ExamStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[id]
	if !ok || exam.Status != from {
		return false, nil
	}
	exam.Status = to
	for key, value := range updates {
		switch key {
		case "is_published":
			exam.IsPublished = value.(bool)
		case "published_at":
			t := value.(time.Time)
			exam.PublishedAt = &t
		case "published_by":
			s := value.(string)
			exam.PublishedBy = &s
		case "reviewed_by":
			s := value.(string)
			exam.ReviewedBy = &s
		case "reviewed_at":
			t := value.(time.Time)
			exam.ReviewedAt = &t
		case "review_comments":
			exam.ReviewComments, _ = value.(*string)
		}
	}
	return true, nil
}

func (f *fakeExamRepo) Aggregates(ctx context.Context, examID uint) (*repositories.ExamAggregates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agg := &repositories.ExamAggregates{}
	var sum float64
	for _, attempt := range f.attempts {
		if attempt.ExamID != examID {
			continue
		}
		agg.AttemptCount++
		if attempt.Status == models.AttemptSubmitted || attempt.Status == models.AttemptCompleted {
			agg.SubmittedCount++
			sum += attempt.TotalScore
			if attempt.Passed {
				agg.PassedCount++
			}
		}
	}
	if agg.SubmittedCount > 0 {
		agg.AverageScore = sum / float64(agg.SubmittedCount)
	}
	return agg, nil
}

func (f *fakeExamRepo) UpdateStats(ctx context.Context, examID uint, attemptCount int, averageScore, passRate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, ok := f.exams[examID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.AttemptCount = attemptCount
	exam.AverageScore = averageScore
	exam.PassRate = passRate
	return nil
}

// ===== ATTEMPT =====

type fakeAttemptRepo fakeRepo

func (f *fakeAttemptRepo) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirror idx_one_active_attempt.
	if attempt.Status == models.AttemptInProgress {
		for _, existing := range f.attempts {
			if existing.ExamID == attempt.ExamID &&
				existing.StudentID == attempt.StudentID &&
				existing.Status == models.AttemptInProgress {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	attempt.ID = (*fakeRepo)(f).id()
	attempt.CreatedAt = time.Now()
	cp := *attempt
	f.attempts[attempt.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *attempt
	return &cp, nil
}

func (f *fakeAttemptRepo) GetByIDWithDetails(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	attempt, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.AttemptID == id {
			attempt.Answers = append(attempt.Answers, *answer)
		}
	}
	for _, violation := range f.violations {
		if violation.AttemptID == id {
			attempt.Violations = append(attempt.Violations, *violation)
		}
	}
	sort.Slice(attempt.Answers, func(i, j int) bool { return attempt.Answers[i].ID < attempt.Answers[j].ID })
	sort.Slice(attempt.Violations, func(i, j int) bool { return attempt.Violations[i].ID < attempt.Violations[j].ID })
	return attempt, nil
}

func (f *fakeAttemptRepo) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.attempts[attempt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *attempt
	f.attempts[attempt.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ExamAttempt
	for _, attempt := range f.attempts {
		if filters.Status != nil && attempt.Status != *filters.Status {
			continue
		}
		if filters.ExamID != nil && attempt.ExamID != *filters.ExamID {
			continue
		}
		if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
			continue
		}
		cp := *attempt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAttemptRepo) GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ExamAttempt, error) {
	attempts, _, err := f.List(ctx, repositories.AttemptFilters{ExamID: &examID, StudentID: &studentID})
	return attempts, err
}

func (f *fakeAttemptRepo) GetActiveAttempt(ctx context.Context, studentID string, examID uint) (*models.ExamAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID && attempt.ExamID == examID && attempt.Status == models.AttemptInProgress {
			cp := *attempt
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAttemptRepo) CountByStudentAndExam(ctx context.Context, studentID string, examID uint) (int64, error) {
	attempts, err := f.GetByStudentAndExam(ctx, studentID, examID)
	return int64(len(attempts)), err
}

func (f *fakeAttemptRepo) TransitionStatus(ctx context.Context, id uint, from, to models.AttemptStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[id]
	if !ok || attempt.Status != from {
		return false, nil
	}
	attempt.Status = to
	for key, value := range updates {
		switch key {
		case "submitted_at":
			t := value.(time.Time)
			attempt.SubmittedAt = &t
		case "time_spent":
			attempt.TimeSpent = value.(int)
		case "is_timed_out":
			attempt.IsTimedOut = value.(bool)
		case "submission_method":
			attempt.SubmissionMethod = value.(models.SubmissionMethod)
		case "total_score":
			attempt.TotalScore = value.(float64)
		case "percentage":
			attempt.Percentage = value.(int)
		case "passed":
			attempt.Passed = value.(bool)
		case "grading_status":
			attempt.GradingStatus = value.(models.GradingStatus)
		case "end_reason":
			attempt.EndReason, _ = value.(*string)
		case "terminated_due_to_violation":
			attempt.TerminatedDueToViolation = value.(bool)
		case "final_score":
			v := value.(float64)
			attempt.FinalScore = &v
		case "final_percentage":
			v := value.(int)
			attempt.FinalPercentage = &v
		case "final_passed":
			v := value.(bool)
			attempt.FinalPassed = &v
		case "score_published":
			attempt.ScorePublished = value.(bool)
		case "published_at":
			t := value.(time.Time)
			attempt.PublishedAt = &t
		case "published_by":
			s := value.(string)
			attempt.PublishedBy = &s
		case "feedback":
			attempt.Feedback, _ = value.(*string)
		}
	}
	return true, nil
}

func (f *fakeAttemptRepo) CreateAnswers(ctx context.Context, answers []*models.AttemptAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range answers {
		answer.ID = (*fakeRepo)(f).id()
		cp := *answer
		f.answers[answer.ID] = &cp
	}
	return nil
}

func (f *fakeAttemptRepo) GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AttemptAnswer
	for _, answer := range f.answers {
		if answer.AttemptID == attemptID {
			cp := *answer
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAttemptRepo) GetAnswer(ctx context.Context, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.AttemptID == attemptID && answer.QuestionID == questionID {
			cp := *answer
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptRepo) UpdateAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.answers[answer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *answer
	f.answers[answer.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) CreateViolation(ctx context.Context, violation *models.AttemptViolation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	violation.ID = (*fakeRepo)(f).id()
	violation.CreatedAt = time.Now()
	cp := *violation
	f.violations[violation.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) GetViolations(ctx context.Context, attemptID uint) ([]*models.AttemptViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AttemptViolation
	for _, violation := range f.violations {
		if violation.AttemptID == attemptID {
			cp := *violation
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAttemptRepo) IncrementViolationCount(ctx context.Context, attemptID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[attemptID]
	if !ok || attempt.Status != models.AttemptInProgress {
		return 0, gorm.ErrRecordNotFound
	}
	attempt.ViolationCount++
	return attempt.ViolationCount, nil
}

// ===== RE-ATTEMPT =====

type fakeReAttemptRepo fakeRepo

func (f *fakeReAttemptRepo) Create(ctx context.Context, request *models.ReAttemptRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirror idx_one_request_per_attempt.
	if request.OriginalAttemptID != nil {
		for _, existing := range f.requests {
			if existing.StudentID == request.StudentID &&
				existing.OriginalAttemptID != nil &&
				*existing.OriginalAttemptID == *request.OriginalAttemptID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	request.ID = (*fakeRepo)(f).id()
	request.CreatedAt = time.Now()
	cp := *request
	f.requests[request.ID] = &cp
	return nil
}

func (f *fakeReAttemptRepo) GetByID(ctx context.Context, id uint) (*models.ReAttemptRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *request
	return &cp, nil
}

func (f *fakeReAttemptRepo) Update(ctx context.Context, request *models.ReAttemptRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[request.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *request
	f.requests[request.ID] = &cp
	return nil
}

func (f *fakeReAttemptRepo) GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ReAttemptRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ReAttemptRequest
	for _, request := range f.requests {
		if request.StudentID == studentID && request.ExamID == examID {
			cp := *request
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReAttemptRepo) GetPendingByCreator(ctx context.Context, creatorID string) ([]*models.ReAttemptRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ReAttemptRequest
	for _, request := range f.requests {
		if request.ExamCreator == creatorID && request.Status == models.ReAttemptPending {
			cp := *request
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReAttemptRepo) HasPendingRequest(ctx context.Context, studentID string, examID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, request := range f.requests {
		if request.StudentID == studentID && request.ExamID == examID && request.Status == models.ReAttemptPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReAttemptRepo) GetUnusedGrant(ctx context.Context, studentID string, examID uint) (*models.ReAttemptRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []*models.ReAttemptRequest
	for _, request := range f.requests {
		if request.StudentID == studentID && request.ExamID == examID &&
			request.Status == models.ReAttemptApproved &&
			request.NewAttemptGranted && !request.NewAttemptUsed {
			candidates = append(candidates, request)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	cp := *candidates[0]
	return &cp, nil
}

func (f *fakeReAttemptRepo) TransitionStatus(ctx context.Context, id uint, from, to models.ReAttemptStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok || request.Status != from {
		return false, nil
	}
	request.Status = to
	for key, value := range updates {
		switch key {
		case "response":
			request.Response, _ = value.(*string)
		case "reviewed_by":
			s := value.(string)
			request.ReviewedBy = &s
		case "reviewed_at":
			t := value.(time.Time)
			request.ReviewedAt = &t
		case "new_attempt_granted":
			request.NewAttemptGranted = value.(bool)
		}
	}
	return true, nil
}

func (f *fakeReAttemptRepo) ConsumeGrant(ctx context.Context, id uint, newAttemptID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok || !request.NewAttemptGranted || request.NewAttemptUsed {
		return false, nil
	}
	request.NewAttemptUsed = true
	request.NewAttemptID = &newAttemptID
	return true, nil
}

// ===== ENROLLMENT =====

type fakeEnrollmentRepo fakeRepo

func (f *fakeEnrollmentRepo) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[courseID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *course
	return &cp, nil
}

func (f *fakeEnrollmentRepo) IsEnrolled(ctx context.Context, courseID uint, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.enrollments[courseID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentRepo) GetEnrolledStudentIDs(ctx context.Context, courseID uint) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.enrollments[courseID]))
	copy(out, f.enrollments[courseID])
	return out, nil
}

// ===== TEST WIRING =====

type testEnv struct {
	repo      *fakeRepo
	publisher *events.MockEventPublisher
	exams     ExamService
	attempts  *attemptService
	grading   GradingService
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	v := validator.New()
	notifier := NewNotificationEventService(repo, publisher, logger)

	exams := NewExamService(repo, cache.NewNoopCache(), logger, v, notifier)
	attempts := NewAttemptService(repo, logger, v, notifier, exams)
	grading := NewGradingService(repo, logger, v, notifier)

	return &testEnv{
		repo:      repo,
		publisher: publisher,
		exams:     exams,
		attempts:  attempts,
		grading:   grading,
	}
}

func (e *testEnv) violations() ViolationService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	notifier := NewNotificationEventService(e.repo, e.publisher, logger)
	return NewViolationService(e.repo, logger, v, notifier, e.attempts)
}

func (e *testEnv) reattempts() ReAttemptService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	notifier := NewNotificationEventService(e.repo, e.publisher, logger)
	return NewReAttemptService(e.repo, logger, v, notifier)
}

// seedPublishedExam stores an approved, published two-question exam
// (one mcq, one essay, 10 points each) and enrolls the student.
func (e *testEnv) seedPublishedExam(creatorID, studentID string) *models.Exam {
	return e.seedExamWithQuestions(creatorID, studentID, []models.ExamQuestion{
		mcqQuestion(1, 10, 1),
		essayQuestion(2, 10),
	})
}

func (e *testEnv) seedExamWithQuestions(creatorID, studentID string, questions []models.ExamQuestion) *models.Exam {
	exam := &models.Exam{
		CourseID:     1,
		Title:        "Midterm",
		Duration:     60,
		PassingScore: 60,
		MaxAttempts:  1,
		Status:       models.ExamApproved,
		IsPublished:  true,
		CreatedBy:    creatorID,
		Questions:    questions,
	}
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	exam.TotalPoints = total
	if err := e.repo.Exam().Create(context.Background(), exam); err != nil {
		panic(err)
	}
	e.repo.enroll(exam.CourseID, studentID)
	return exam
}

func mcqQuestion(position, points, correctIndex int) models.ExamQuestion {
	options := `[{"text":"red","is_correct":false},{"text":"green","is_correct":false},{"text":"blue","is_correct":false}]`
	switch correctIndex {
	case 0:
		options = `[{"text":"red","is_correct":true},{"text":"green","is_correct":false},{"text":"blue","is_correct":false}]`
	case 1:
		options = `[{"text":"red","is_correct":false},{"text":"green","is_correct":true},{"text":"blue","is_correct":false}]`
	case 2:
		options = `[{"text":"red","is_correct":false},{"text":"green","is_correct":false},{"text":"blue","is_correct":true}]`
	}
	return models.ExamQuestion{
		Position: position,
		Type:     models.QuestionMCQ,
		Text:     "Pick one",
		Points:   points,
		Options:  []byte(options),
	}
}

func essayQuestion(position, points int) models.ExamQuestion {
	return models.ExamQuestion{
		Position: position,
		Type:     models.QuestionEssay,
		Text:     "Discuss",
		Points:   points,
	}
}

func shortAnswerQuestion(position, points int, correct string) models.ExamQuestion {
	return models.ExamQuestion{
		Position:      position,
		Type:          models.QuestionShortAnswer,
		Text:          "Answer briefly",
		Points:        points,
		CorrectAnswer: &correct,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
