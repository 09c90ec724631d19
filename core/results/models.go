package results

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrResultNotFound = core.NewError(core.KindNotFound, "NotFound", "result not found")
	ErrInfosNotFound  = core.NewError(core.KindNotFound, "NotFound", "student infos not found")
	ErrNoClass        = core.NewError(core.KindValidation, "NoClass", "the student has no class; set class_id explicitly")
)

// Result is a student's score in one subject for a (session, term, exam).
// Average, Total, Grade, Status and GPA are derived on every save.
type Result struct {
	ID        int64               `json:"id" db:"id"`
	StudentID int64               `json:"student_id" db:"student_id"`
	SessionID int64               `json:"session_id" db:"session_id"`
	TermID    int64               `json:"term_id" db:"term_id"`
	ExamID    int64               `json:"exam_id" db:"exam_id"`
	ClassID   int64               `json:"class_id" db:"class_id"`
	SubjectID int64               `json:"subject_id" db:"subject_id"`
	TestScore decimal.NullDecimal `json:"test_score" db:"test_score"`
	ExamScore decimal.NullDecimal `json:"exam_score" db:"exam_score"`
	Average   decimal.Decimal     `json:"average" db:"average"`
	Total     decimal.Decimal     `json:"total" db:"total"`
	Grade     string              `json:"grade" db:"grade"`
	Status    string              `json:"status" db:"status"`
	GPA       decimal.Decimal     `json:"gpa" db:"gpa"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

// derive fills the computed fields from the scores.
func (r *Result) derive() {
	r.Average = Score(r.TestScore, r.ExamScore)
	r.Total = r.Average
	r.Grade = GradeFor(r.Average)
	r.Status = StatusFor(r.Average)
	r.GPA = PointsFor(r.Grade)
}

type ResultInput struct {
	StudentID int64               `json:"student_id" validate:"required"`
	SessionID int64               `json:"session_id" validate:"required"`
	TermID    int64               `json:"term_id" validate:"required"`
	ExamID    int64               `json:"exam_id" validate:"required"`
	ClassID   int64               `json:"class_id"` // 0: the student's current class
	SubjectID int64               `json:"subject_id" validate:"required"`
	TestScore decimal.NullDecimal `json:"test_score" validate:"omitempty,score"`
	ExamScore decimal.NullDecimal `json:"exam_score" validate:"omitempty,score"`
}

type Filter struct {
	StudentID    int64 `json:"student_id" query:"student_id"`
	SessionID    int64 `json:"session_id" query:"session_id"`
	TermID       int64 `json:"term_id" query:"term_id"`
	ExamID       int64 `json:"exam_id" query:"exam_id"`
	ClassID      int64 `json:"class_id" query:"class_id"`
	SubjectID    int64 `json:"subject_id" query:"subject_id"`
	AssignedOnly bool  `json:"assigned_only" query:"assigned_only"`
}

// StudentReport is a student's standing in a class for a (session, term, exam).
type StudentReport struct {
	StudentID        int64           `json:"student_id"`
	StudentName      string          `json:"student_name"`
	Subjects         int             `json:"subjects"`
	TotalScore       decimal.Decimal `json:"total_score"`
	TotalMarks       int             `json:"total_marks"`
	Average          decimal.Decimal `json:"overall_average"`
	Grade            string          `json:"grade"`
	Status           string          `json:"status"`
	Comment          string          `json:"comment"`
	GPA              decimal.Decimal `json:"gpa"`
	Position         int             `json:"position"`
	AveragedPosition decimal.Decimal `json:"averaged_position"`
}

type ClassReport struct {
	Filter
	Students []StudentReport `json:"students"`
}

type SubjectSummary struct {
	SubjectID int64           `json:"subject_id"`
	Subject   string          `json:"subject"`
	Students  int             `json:"students"`
	Passed    int             `json:"passed"`
	Average   decimal.Decimal `json:"average"`
	Grade     string          `json:"grade"`
	GPA       decimal.Decimal `json:"gpa"`
	Comment   string          `json:"comment"`
}

// Infos is the behaviour report of a student for a (session, term, exam).
type Infos struct {
	ID                   int64     `json:"id" db:"id"`
	StudentID            int64     `json:"student_id" db:"student_id"`
	SessionID            int64     `json:"session_id" db:"session_id"`
	TermID               int64     `json:"term_id" db:"term_id"`
	ExamID               int64     `json:"exam_id" db:"exam_id"`
	CooperationWithPeers string    `json:"cooperation_with_peers" db:"cooperation_with_peers" validate:"oneof=A B C D F"`
	Honesty              string    `json:"honesty" db:"honesty" validate:"oneof=A B C D F"`
	Hygiene              string    `json:"hygiene" db:"hygiene" validate:"oneof=A B C D F"`
	WillingnessToWork    string    `json:"willingness_to_work" db:"willingness_to_work" validate:"oneof=A B C D F"`
	Respect              string    `json:"respect" db:"respect" validate:"oneof=A B C D F"`
	CollaborationInWork  string    `json:"collaboration_in_work" db:"collaboration_in_work" validate:"oneof=A B C D F"`
	LoveForWork          string    `json:"love_for_work" db:"love_for_work" validate:"oneof=A B C D F"`
	BehaviorImprovement  string    `json:"behavior_improvement" db:"behavior_improvement" validate:"oneof=A B C D F"`
	Effort               string    `json:"effort" db:"effort" validate:"oneof=A B C D F"`
	DateOfOpening        time.Time `json:"date_of_opening" db:"date_of_opening"`
	DateOfClosing        time.Time `json:"date_of_closing" db:"date_of_closing"`
	HeadComments         string    `json:"head_comments" db:"head_comments"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Validate defaults missing behaviour grades to A and both dates to today.
func (in *Infos) Validate(validate *validator.Validate) error {
	for _, g := range []*string{
		&in.CooperationWithPeers, &in.Honesty, &in.Hygiene, &in.WillingnessToWork, &in.Respect,
		&in.CollaborationInWork, &in.LoveForWork, &in.BehaviorImprovement, &in.Effort,
	} {
		*g = strings.ToUpper(core.CleanString(*g))
		if *g == "" {
			*g = "A"
		}
	}
	in.HeadComments = core.CleanString(in.HeadComments)
	if in.DateOfOpening.IsZero() {
		in.DateOfOpening = core.Today()
	}
	if in.DateOfClosing.IsZero() {
		in.DateOfClosing = core.Today()
	}
	in.DateOfOpening = core.Day(in.DateOfOpening)
	in.DateOfClosing = core.Day(in.DateOfClosing)
	if in.StudentID == 0 || in.SessionID == 0 || in.TermID == 0 || in.ExamID == 0 {
		return core.NewFieldError("student_id", "student, session, term and exam are required")
	}
	return validate.Struct(in)
}
