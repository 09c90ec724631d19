package school

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrPeriodNotFound  = core.NewError(core.KindNotFound, "NotFound", "period not found")
	ErrPeriodInUse     = core.NewError(core.KindInUse, "PeriodInUse", "period is referenced by other records")
	ErrPeriodExists    = core.NewError(core.KindConflict, "Conflict", "a period with this name already exists")
	ErrWrongKind       = core.NewError(core.KindValidation, "WrongPeriodKind", "period is not of the expected kind")
	ErrNoCurrent       = core.NewError(core.KindNotFound, "NoCurrent", "no current period selected")
	ErrClassNotFound   = core.NewError(core.KindNotFound, "NotFound", "class not found")
	ErrClassInUse      = core.NewError(core.KindInUse, "ClassInUse", "class is referenced by other records")
	ErrClassExists     = core.NewError(core.KindConflict, "Conflict", "a class with this name already exists")
	ErrSubjectNotFound = core.NewError(core.KindNotFound, "NotFound", "subject not found")
	ErrSubjectInUse    = core.NewError(core.KindInUse, "SubjectInUse", "subject is referenced by other records")
	ErrSubjectExists   = core.NewError(core.KindConflict, "Conflict", "a subject with this name already exists")
	ErrStudentNotFound = core.NewError(core.KindNotFound, "NotFound", "student not found")
	ErrStudentExists   = core.NewError(core.KindConflict, "Conflict", "a student with this registration number already exists")
	ErrStaffNotFound   = core.NewError(core.KindNotFound, "NotFound", "staff not found")
	ErrAlreadyAssigned = core.NewError(core.KindConflict, "Conflict", "student is already assigned to this term")
)

// PeriodKind tells sessions, terms, exams and installments apart.
type PeriodKind string

const (
	KindSession     PeriodKind = "session"
	KindTerm        PeriodKind = "term"
	KindExam        PeriodKind = "exam"
	KindInstallment PeriodKind = "installment"
)

var PeriodKinds = []PeriodKind{KindSession, KindTerm, KindExam, KindInstallment}

func (k PeriodKind) Valid() bool {
	for _, kind := range PeriodKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Period is an academic session, term, exam type or fee installment.
// Periods of a kind are ordered by ID.
type Period struct {
	ID        int64      `json:"id" db:"id"`
	Kind      PeriodKind `json:"kind" db:"kind"`
	Name      string     `json:"name" db:"name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"` // UTC
}

// Cycle is the single record pointing at the current period of every kind.
type Cycle struct {
	SessionID     null.Int64 `json:"session_id" db:"session_id"`
	TermID        null.Int64 `json:"term_id" db:"term_id"`
	ExamID        null.Int64 `json:"exam_id" db:"exam_id"`
	InstallmentID null.Int64 `json:"installment_id" db:"installment_id"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

func (c Cycle) Get(kind PeriodKind) null.Int64 {
	switch kind {
	case KindSession:
		return c.SessionID
	case KindTerm:
		return c.TermID
	case KindExam:
		return c.ExamID
	case KindInstallment:
		return c.InstallmentID
	}
	return null.Int64{}
}

func (c *Cycle) Set(kind PeriodKind, id null.Int64) {
	switch kind {
	case KindSession:
		c.SessionID = id
	case KindTerm:
		c.TermID = id
	case KindExam:
		c.ExamID = id
	case KindInstallment:
		c.InstallmentID = id
	}
}

// Clear forgets any pointer to the period with the given id.
func (c *Cycle) Clear(id int64) {
	for _, kind := range PeriodKinds {
		if v := c.Get(kind); v.Valid && v.Int64 == id {
			c.Set(kind, null.Int64{})
		}
	}
}

// CurrentCycle is a resolved Cycle; unset kinds are nil.
type CurrentCycle struct {
	Session     *Period `json:"session"`
	Term        *Period `json:"term"`
	Exam        *Period `json:"exam"`
	Installment *Period `json:"installment"`
}

type Class struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Subject struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Student categories
const (
	CategoryBoarding  = "boarding"
	CategoryDayWalker = "day_walker"
	CategoryDayBus    = "day_bus"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// NHIF sources
const (
	NHIFParentProcessed = "parent_processed"
	NHIFSchoolProcessed = "school_processed"
)

type Student struct {
	ID                 int64      `json:"id" db:"id"`
	RegistrationNumber string     `json:"registration_number" db:"registration_number"`
	Firstname          string     `json:"firstname" db:"firstname"`
	MiddleName         string     `json:"middle_name" db:"middle_name"`
	Surname            string     `json:"surname" db:"surname"`
	Gender             string     `json:"gender" db:"gender"`
	DateOfBirth        null.Time  `json:"date_of_birth" db:"date_of_birth"`
	ClassID            null.Int64 `json:"class_id" db:"class_id"`
	AdmissionDate      time.Time  `json:"admission_date" db:"admission_date"`
	Category           string     `json:"category" db:"category"`
	Guardian1Mobile    string     `json:"guardian1_mobile_number" db:"guardian1_mobile"`
	Guardian2Mobile    string     `json:"guardian2_mobile_number" db:"guardian2_mobile"`
	HasNHIF            bool       `json:"has_nhif" db:"has_nhif"`
	NHIFSource         string     `json:"nhif_source" db:"nhif_source"`
	NHIFNumber         string     `json:"nhif_number" db:"nhif_number"`
	Address            string     `json:"address" db:"address"`
	Others             string     `json:"others" db:"others"`
	ParentStudentID    null.Int64 `json:"parent_student_id" db:"parent_student_id"`
	Status             string     `json:"status" db:"status"`
	Completed          bool       `json:"completed" db:"completed"`
	AlumniSessionID    null.Int64 `json:"alumni_session_id" db:"alumni_session_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

func (s Student) FullName() string {
	if s.MiddleName == "" {
		return s.Firstname + " " + s.Surname
	}
	return s.Firstname + " " + s.MiddleName + " " + s.Surname
}

// StudentInput contains the information needed to create or replace a Student.
type StudentInput struct {
	RegistrationNumber string     `json:"registration_number" validate:"required,regno"`
	Firstname          string     `json:"firstname" validate:"required,max=200"`
	MiddleName         string     `json:"middle_name" validate:"max=200"`
	Surname            string     `json:"surname" validate:"required,max=200"`
	Gender             string     `json:"gender" validate:"required,oneof=M F"`
	DateOfBirth        null.Time  `json:"date_of_birth"`
	ClassID            null.Int64 `json:"class_id"`
	AdmissionDate      time.Time  `json:"admission_date"`
	Category           string     `json:"category" validate:"required,oneof=boarding day_walker day_bus"`
	Guardian1Mobile    string     `json:"guardian1_mobile_number" validate:"omitempty,tzmobile"`
	Guardian2Mobile    string     `json:"guardian2_mobile_number" validate:"omitempty,tzmobile"`
	HasNHIF            bool       `json:"has_nhif"`
	NHIFSource         string     `json:"nhif_source" validate:"omitempty,oneof=parent_processed school_processed"`
	NHIFNumber         string     `json:"nhif_number" validate:"max=50"`
	Address            string     `json:"address"`
	Others             string     `json:"others"`
	ParentStudentID    null.Int64 `json:"parent_student_id"`
	Status             string     `json:"status" validate:"omitempty,oneof=active inactive"`
	AlumniSessionID    null.Int64 `json:"alumni_session_id"`
}

// Validate cleans the input then checks it.
// Mobiles are normalised to the +255 form and NHIF details are dropped when the student has none.
func (in *StudentInput) Validate(validate *validator.Validate) error {
	in.RegistrationNumber = core.CleanString(in.RegistrationNumber)
	in.Firstname = core.CleanString(in.Firstname)
	in.MiddleName = core.CleanString(in.MiddleName)
	in.Surname = core.CleanString(in.Surname)
	in.Gender = core.CleanString(in.Gender)
	in.Category = core.CleanString(in.Category)
	in.Guardian1Mobile = core.NormalizeMobile(in.Guardian1Mobile)
	in.Guardian2Mobile = core.NormalizeMobile(in.Guardian2Mobile)
	in.NHIFSource = core.CleanString(in.NHIFSource)
	in.NHIFNumber = core.CleanString(in.NHIFNumber)
	in.Status = core.CleanString(in.Status, true /* lower */)
	if in.Status == "" {
		in.Status = StatusActive
	}

	if in.HasNHIF {
		if in.NHIFSource == "" {
			return core.NewFieldError("nhif_source", "NHIF source must be specified if the student has NHIF")
		}
		if in.NHIFNumber == "" {
			return core.NewFieldError("nhif_number", "NHIF number must be provided if the student has NHIF")
		}
	} else {
		in.NHIFSource = ""
		in.NHIFNumber = ""
	}
	return validate.Struct(in)
}

type StudentFilter struct {
	Search    string  `query:"search"`
	ClassID   int64   `query:"class_id"`
	Status    string  `query:"status"`
	Completed *bool   `query:"completed"`
	Category  string  `query:"category"`
	IDs       []int64 `query:"id"`
}

func (f *StudentFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Status = core.CleanString(f.Status, true /* lower */)
	f.Category = core.CleanString(f.Category, true /* lower */)
}

// Staff categories
const (
	StaffTeaching    = "teaching"
	StaffNonTeaching = "non_teaching"
)

type Staff struct {
	ID               int64           `json:"id" db:"id"`
	StaffNumber      string          `json:"staff_number" db:"staff_number"`
	Firstname        string          `json:"firstname" db:"firstname"`
	MiddleName       string          `json:"middle_name" db:"middle_name"`
	Surname          string          `json:"surname" db:"surname"`
	Gender           string          `json:"gender" db:"gender"`
	Category         string          `json:"category" db:"category"`
	JobTitle         string          `json:"job_title" db:"job_title"`
	Department       string          `json:"department" db:"department"`
	Mobile           string          `json:"mobile_number" db:"mobile"`
	Salary           core.Money      `json:"salary" db:"salary"`
	SpecialAllowance core.Money      `json:"special_allowance" db:"special_allowance"`
	HasHELSB         bool            `json:"has_helsb" db:"has_helsb"`
	HELSBRate        decimal.Decimal `json:"helsb_rate" db:"helsb_rate"` // fraction: 0.15 => 15%
	Status           string          `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (s Staff) FullName() string {
	if s.MiddleName == "" {
		return s.Firstname + " " + s.Surname
	}
	return s.Firstname + " " + s.MiddleName + " " + s.Surname
}

// FormatStaffNumber renders the n-th staff number, e.g. VST001.
func FormatStaffNumber(n int) string {
	return fmt.Sprintf("VST%03d", n)
}

type StaffInput struct {
	Firstname        string          `json:"firstname" validate:"required,max=200"`
	MiddleName       string          `json:"middle_name" validate:"max=200"`
	Surname          string          `json:"surname" validate:"required,max=200"`
	Gender           string          `json:"gender" validate:"required,oneof=male female"`
	Category         string          `json:"category" validate:"omitempty,oneof=teaching non_teaching"`
	JobTitle         string          `json:"job_title" validate:"max=120"`
	Department       string          `json:"department" validate:"omitempty,oneof=teaching administration maintenance catering security"`
	Mobile           string          `json:"mobile_number" validate:"omitempty,tzmobile"`
	Salary           core.Money      `json:"salary" validate:"money_gte0"`
	SpecialAllowance core.Money      `json:"special_allowance" validate:"money_gte0"`
	HasHELSB         bool            `json:"has_helsb"`
	HELSBRate        decimal.Decimal `json:"helsb_rate"`
	Status           string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in *StaffInput) Validate(validate *validator.Validate) error {
	in.Firstname = core.CleanString(in.Firstname)
	in.MiddleName = core.CleanString(in.MiddleName)
	in.Surname = core.CleanString(in.Surname)
	in.Gender = core.CleanString(in.Gender, true /* lower */)
	in.Mobile = core.NormalizeStaffMobile(in.Mobile)
	in.Status = core.CleanString(in.Status, true /* lower */)
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.Category == "" {
		in.Category = StaffTeaching
	}
	if in.Department == "" {
		in.Department = StaffTeaching
	}
	if in.HELSBRate.IsNegative() || in.HELSBRate.GreaterThan(decimal.NewFromInt(1)) {
		return core.NewFieldError("helsb_rate", "HELSB rate must be a fraction between 0 and 1")
	}
	return validate.Struct(in)
}

type StaffFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

// Assignment records that a student is enrolled for a (session, term).
type Assignment struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"student_id" db:"student_id"`
	SessionID  int64     `json:"session_id" db:"session_id"`
	TermID     int64     `json:"term_id" db:"term_id"`
	AssignedOn time.Time `json:"assigned_on" db:"assigned_on"`
}
