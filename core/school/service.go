package school

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

const staffSerialPrefix = "VST"

type Repository interface {
	// NextSerial increments and returns the counter of (prefix, year).
	NextSerial(ctx context.Context, prefix string, year int) (int, error)

	CreatePeriod(ctx context.Context, p Period) (Period, error)
	UpdatePeriod(ctx context.Context, p Period) (Period, error)
	// DeletePeriod returns ErrPeriodInUse when other records reference the period.
	DeletePeriod(ctx context.Context, id int64) error
	GetPeriod(ctx context.Context, id int64) (Period, error)
	// ListPeriods returns the periods of kind ("" for all) ordered by ID.
	ListPeriods(ctx context.Context, kind PeriodKind) ([]Period, error)
	CountPeriods(ctx context.Context, kind PeriodKind) (int, error)

	GetCycle(ctx context.Context) (Cycle, error)
	SaveCycle(ctx context.Context, c Cycle) (Cycle, error)

	CreateClass(ctx context.Context, c Class) (Class, error)
	UpdateClass(ctx context.Context, c Class) (Class, error)
	DeleteClass(ctx context.Context, id int64) error
	GetClass(ctx context.Context, id int64) (Class, error)
	ListClasses(ctx context.Context) ([]Class, error)

	CreateSubject(ctx context.Context, s Subject) (Subject, error)
	UpdateSubject(ctx context.Context, s Subject) (Subject, error)
	DeleteSubject(ctx context.Context, id int64) error
	GetSubject(ctx context.Context, id int64) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)

	CreateStudent(ctx context.Context, s Student) (Student, error)
	UpdateStudent(ctx context.Context, s Student) (Student, error)
	GetStudent(ctx context.Context, id int64) (Student, error)
	GetStudentByRegNo(ctx context.Context, regNo string) (Student, error)
	ListStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error)

	CreateStaff(ctx context.Context, s Staff) (Staff, error)
	UpdateStaff(ctx context.Context, s Staff) (Staff, error)
	GetStaff(ctx context.Context, id int64) (Staff, error)
	ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error)

	// CreateAssignment returns ErrAlreadyAssigned on a duplicate (student, session, term).
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	ListAssignments(ctx context.Context, sessionID, termID int64) ([]Assignment, error)
}

type Service struct {
	repo            Repository
	tx              core.Transactor
	validate        *validator.Validate
	logger          core.Logger
	graduationClass string
}

func NewService(repo Repository, tx core.Transactor, validate *validator.Validate, conf *core.Config, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:            repo,
		tx:              tx,
		validate:        validate,
		logger:          logger,
		graduationClass: conf.School.GraduationClass,
	}
}

// Periods

type PeriodInput struct {
	Kind PeriodKind `json:"kind" validate:"required,oneof=session term exam installment"`
	Name string     `json:"name" validate:"required,max=100"`
}

func (in *PeriodInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Kind = PeriodKind(core.CleanString(string(in.Kind), true /* lower */))
	return validate.Struct(in)
}

func (svc *Service) CreatePeriod(ctx context.Context, in PeriodInput) (Period, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Period{}, err
	}
	return svc.repo.CreatePeriod(ctx, Period{Kind: in.Kind, Name: in.Name, CreatedAt: core.NowFunc().UTC()})
}

func (svc *Service) UpdatePeriod(ctx context.Context, id int64, name string) (Period, error) {
	name = core.CleanString(name)
	if name == "" {
		return Period{}, core.NewFieldError("name", "this field is required")
	}
	p, err := svc.repo.GetPeriod(ctx, id)
	if err != nil {
		return Period{}, err
	}
	p.Name = name
	return svc.repo.UpdatePeriod(ctx, p)
}

func (svc *Service) DeletePeriod(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		cycle, err := svc.repo.GetCycle(ctx)
		if err != nil {
			return err
		}
		cycle.Clear(id)
		cycle.UpdatedAt = core.NowFunc().UTC()
		if _, err = svc.repo.SaveCycle(ctx, cycle); err != nil {
			return err
		}
		return svc.repo.DeletePeriod(ctx, id)
	})
}

func (svc *Service) GetPeriod(ctx context.Context, id int64) (Period, error) {
	return svc.repo.GetPeriod(ctx, id)
}

// GetPeriodOf fetches a period and checks its kind.
func (svc *Service) GetPeriodOf(ctx context.Context, kind PeriodKind, id int64) (Period, error) {
	p, err := svc.repo.GetPeriod(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if p.Kind != kind {
		return Period{}, errors.Wrapf(ErrWrongKind, "period %d is a %s, not a %s", id, p.Kind, kind)
	}
	return p, nil
}

func (svc *Service) ListPeriods(ctx context.Context, kind PeriodKind) ([]Period, error) {
	return svc.repo.ListPeriods(ctx, kind)
}

func (svc *Service) CountPeriods(ctx context.Context, kind PeriodKind) (int, error) {
	return svc.repo.CountPeriods(ctx, kind)
}

// Current cycle

// SetCurrent makes the period the current one of its kind in a single write on the Cycle record.
func (svc *Service) SetCurrent(ctx context.Context, kind PeriodKind, id int64) (Cycle, error) {
	var cycle Cycle
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.GetPeriodOf(ctx, kind, id); err != nil {
			return err
		}
		var err error
		if cycle, err = svc.repo.GetCycle(ctx); err != nil {
			return err
		}
		cycle.Set(kind, null.Int64From(id))
		cycle.UpdatedAt = core.NowFunc().UTC()
		cycle, err = svc.repo.SaveCycle(ctx, cycle)
		return err
	})
	if err != nil {
		return Cycle{}, err
	}
	svc.logger.Info(fmt.Sprintf("current %s set to %d", kind, id))
	return cycle, nil
}

func (svc *Service) Cycle(ctx context.Context) (Cycle, error) {
	return svc.repo.GetCycle(ctx)
}

// Current returns the current period of kind, or ErrNoCurrent.
func (svc *Service) Current(ctx context.Context, kind PeriodKind) (Period, error) {
	cycle, err := svc.repo.GetCycle(ctx)
	if err != nil {
		return Period{}, err
	}
	id := cycle.Get(kind)
	if !id.Valid {
		return Period{}, errors.Wrapf(ErrNoCurrent, "no current %s", kind)
	}
	return svc.repo.GetPeriod(ctx, id.Int64)
}

// CurrentCycle resolves the four current periods at once.
func (svc *Service) CurrentCycle(ctx context.Context) (CurrentCycle, error) {
	cycle, err := svc.repo.GetCycle(ctx)
	if err != nil {
		return CurrentCycle{}, err
	}
	var cc CurrentCycle
	targets := map[PeriodKind]**Period{
		KindSession:     &cc.Session,
		KindTerm:        &cc.Term,
		KindExam:        &cc.Exam,
		KindInstallment: &cc.Installment,
	}
	for kind, target := range targets {
		id := cycle.Get(kind)
		if !id.Valid {
			continue
		}
		p, err := svc.repo.GetPeriod(ctx, id.Int64)
		if err != nil {
			return CurrentCycle{}, errors.Wrapf(err, "resolving current %s", kind)
		}
		*target = &p
	}
	return cc, nil
}

// Classes & subjects

func (svc *Service) CreateClass(ctx context.Context, name string) (Class, error) {
	name = core.CleanString(name)
	if name == "" {
		return Class{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.CreateClass(ctx, Class{Name: name})
}

func (svc *Service) RenameClass(ctx context.Context, id int64, name string) (Class, error) {
	name = core.CleanString(name)
	if name == "" {
		return Class{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.UpdateClass(ctx, Class{ID: id, Name: name})
}

func (svc *Service) DeleteClass(ctx context.Context, id int64) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) GetClass(ctx context.Context, id int64) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.ListClasses(ctx)
}

func (svc *Service) CreateSubject(ctx context.Context, name string) (Subject, error) {
	name = core.CleanString(name)
	if name == "" {
		return Subject{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.CreateSubject(ctx, Subject{Name: name})
}

func (svc *Service) RenameSubject(ctx context.Context, id int64, name string) (Subject, error) {
	name = core.CleanString(name)
	if name == "" {
		return Subject{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.UpdateSubject(ctx, Subject{ID: id, Name: name})
}

func (svc *Service) DeleteSubject(ctx context.Context, id int64) error {
	return svc.repo.DeleteSubject(ctx, id)
}

func (svc *Service) GetSubject(ctx context.Context, id int64) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.ListSubjects(ctx)
}

// Students

func (svc *Service) checkStudentRefs(ctx context.Context, in StudentInput) error {
	if in.ClassID.Valid {
		if _, err := svc.repo.GetClass(ctx, in.ClassID.Int64); err != nil {
			return errors.Wrap(err, "checking class")
		}
	}
	if in.AlumniSessionID.Valid {
		if _, err := svc.GetPeriodOf(ctx, KindSession, in.AlumniSessionID.Int64); err != nil {
			return errors.Wrap(err, "checking alumni session")
		}
	}
	return nil
}

func (svc *Service) CreateStudent(ctx context.Context, in StudentInput) (Student, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	if err := svc.checkStudentRefs(ctx, in); err != nil {
		return Student{}, err
	}
	now := core.NowFunc().UTC()
	std := Student{CreatedAt: now}
	applyStudentInput(&std, in, now)
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) UpdateStudent(ctx context.Context, id int64, in StudentInput) (Student, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	var std Student
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if std, err = svc.repo.GetStudent(ctx, id); err != nil {
			return err
		}
		if err = svc.checkStudentRefs(ctx, in); err != nil {
			return err
		}
		applyStudentInput(&std, in, core.NowFunc().UTC())
		std, err = svc.repo.UpdateStudent(ctx, std)
		return err
	})
	return std, err
}

func applyStudentInput(std *Student, in StudentInput, now time.Time) {
	std.RegistrationNumber = in.RegistrationNumber
	std.Firstname = in.Firstname
	std.MiddleName = in.MiddleName
	std.Surname = in.Surname
	std.Gender = in.Gender
	std.DateOfBirth = in.DateOfBirth
	std.ClassID = in.ClassID
	std.AdmissionDate = core.Day(in.AdmissionDate)
	if in.AdmissionDate.IsZero() {
		std.AdmissionDate = core.Day(now)
	}
	std.Category = in.Category
	std.Guardian1Mobile = in.Guardian1Mobile
	std.Guardian2Mobile = in.Guardian2Mobile
	std.HasNHIF = in.HasNHIF
	std.NHIFSource = in.NHIFSource
	std.NHIFNumber = in.NHIFNumber
	std.Address = in.Address
	std.Others = in.Others
	std.ParentStudentID = in.ParentStudentID
	std.Status = in.Status
	if in.AlumniSessionID.Valid {
		std.AlumniSessionID = in.AlumniSessionID
		std.Completed = true
	}
	std.UpdatedAt = now
}

func (svc *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) ListStudents(ctx context.Context, filter StudentFilter, ordering []core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.ListStudents(ctx, filter, ordering)
}

// Promote moves students into the target class. Promoting into the graduation class makes them
// alumni of the current session instead: inactive, completed and without a class.
func (svc *Service) Promote(ctx context.Context, studentIDs []int64, targetClassID int64) ([]Student, error) {
	promoted := make([]Student, 0, len(studentIDs))
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		target, err := svc.repo.GetClass(ctx, targetClassID)
		if err != nil {
			return err
		}
		graduating := target.Name == svc.graduationClass

		var session Period
		if graduating {
			if session, err = svc.Current(ctx, KindSession); err != nil {
				return err
			}
		}

		now := core.NowFunc().UTC()
		for _, id := range studentIDs {
			std, err := svc.repo.GetStudent(ctx, id)
			if err != nil {
				return err
			}
			if graduating {
				std.Status = StatusInactive
				std.Completed = true
				std.AlumniSessionID = null.Int64From(session.ID)
				std.ClassID = null.Int64{}
			} else {
				std.ClassID = null.Int64From(target.ID)
			}
			std.UpdatedAt = now
			if std, err = svc.repo.UpdateStudent(ctx, std); err != nil {
				return err
			}
			promoted = append(promoted, std)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info(fmt.Sprintf("promoted %d students to class %d", len(promoted), targetClassID))
	return promoted, nil
}

// CompleteClass marks every student of the class as completed and inactive.
// Students of the graduation class also become alumni of the current session.
func (svc *Service) CompleteClass(ctx context.Context, classID int64) ([]Student, error) {
	var completed []Student
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		class, err := svc.repo.GetClass(ctx, classID)
		if err != nil {
			return err
		}
		session := null.Int64{}
		if class.Name == svc.graduationClass {
			if cur, err := svc.Current(ctx, KindSession); err == nil {
				session = null.Int64From(cur.ID)
			} else if core.KindOf(err) != core.KindNotFound {
				return err
			}
		}

		students, err := svc.repo.ListStudents(ctx, StudentFilter{ClassID: classID}, nil)
		if err != nil {
			return err
		}
		now := core.NowFunc().UTC()
		for _, std := range students {
			std.Status = StatusInactive
			std.Completed = true
			if session.Valid {
				std.AlumniSessionID = session
			}
			std.UpdatedAt = now
			if std, err = svc.repo.UpdateStudent(ctx, std); err != nil {
				return err
			}
			completed = append(completed, std)
		}
		return nil
	})
	return completed, err
}

// Staff

func (svc *Service) CreateStaff(ctx context.Context, in StaffInput) (Staff, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Staff{}, err
	}
	var stf Staff
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := svc.repo.NextSerial(ctx, staffSerialPrefix, 0)
		if err != nil {
			return errors.Wrap(err, "numbering staff")
		}
		now := core.NowFunc().UTC()
		stf = Staff{StaffNumber: FormatStaffNumber(n), CreatedAt: now}
		applyStaffInput(&stf, in, now)
		stf, err = svc.repo.CreateStaff(ctx, stf)
		return err
	})
	return stf, err
}

func (svc *Service) UpdateStaff(ctx context.Context, id int64, in StaffInput) (Staff, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Staff{}, err
	}
	var stf Staff
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if stf, err = svc.repo.GetStaff(ctx, id); err != nil {
			return err
		}
		applyStaffInput(&stf, in, core.NowFunc().UTC())
		stf, err = svc.repo.UpdateStaff(ctx, stf)
		return err
	})
	return stf, err
}

func applyStaffInput(stf *Staff, in StaffInput, now time.Time) {
	stf.Firstname = in.Firstname
	stf.MiddleName = in.MiddleName
	stf.Surname = in.Surname
	stf.Gender = in.Gender
	stf.Category = in.Category
	stf.JobTitle = in.JobTitle
	stf.Department = in.Department
	stf.Mobile = in.Mobile
	stf.Salary = in.Salary.R2()
	stf.SpecialAllowance = in.SpecialAllowance.R2()
	stf.HasHELSB = in.HasHELSB
	stf.HELSBRate = in.HELSBRate
	stf.Status = in.Status
	stf.UpdatedAt = now
}

func (svc *Service) GetStaff(ctx context.Context, id int64) (Staff, error) {
	return svc.repo.GetStaff(ctx, id)
}

func (svc *Service) ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.ListStaff(ctx, filter)
}

// Term assignments

func (svc *Service) AssignTerm(ctx context.Context, studentID, sessionID, termID int64) (Assignment, error) {
	var a Assignment
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := svc.GetPeriodOf(ctx, KindSession, sessionID); err != nil {
			return err
		}
		if _, err := svc.GetPeriodOf(ctx, KindTerm, termID); err != nil {
			return err
		}
		var err error
		a, err = svc.repo.CreateAssignment(ctx, Assignment{
			StudentID:  studentID,
			SessionID:  sessionID,
			TermID:     termID,
			AssignedOn: core.Today(),
		})
		return err
	})
	return a, err
}

// AssignCurrentTerm assigns the students to the current (session, term), skipping those already assigned.
func (svc *Service) AssignCurrentTerm(ctx context.Context, studentIDs []int64) ([]Assignment, error) {
	var created []Assignment
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		session, err := svc.Current(ctx, KindSession)
		if err != nil {
			return err
		}
		term, err := svc.Current(ctx, KindTerm)
		if err != nil {
			return err
		}
		for _, id := range studentIDs {
			a, err := svc.AssignTerm(ctx, id, session.ID, term.ID)
			if err != nil {
				if errors.Cause(err) == ErrAlreadyAssigned {
					continue
				}
				return err
			}
			created = append(created, a)
		}
		return nil
	})
	return created, err
}

func (svc *Service) AssignedStudents(ctx context.Context, sessionID, termID int64) ([]Student, error) {
	assignments, err := svc.repo.ListAssignments(ctx, sessionID, termID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []Student{}, nil
	}
	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.StudentID)
	}
	return svc.repo.ListStudents(ctx, StudentFilter{IDs: ids}, nil)
}

func (svc *Service) ListAssignments(ctx context.Context, sessionID, termID int64) ([]Assignment, error) {
	return svc.repo.ListAssignments(ctx, sessionID, termID)
}
