package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (t *tables) nextSerial(prefix string, year int) int {
	key := serialKey{prefix: prefix, year: year}
	t.serials[key]++
	return t.serials[key]
}

func (repo schoolRepository) NextSerial(ctx context.Context, prefix string, year int) (int, error) {
	t, done := repo.db.begin(ctx)
	defer done()
	return t.nextSerial(prefix, year), nil
}

// Periods

func (t *tables) periodTaken(p school.Period) bool {
	return t.periods.exists(func(o school.Period) bool {
		return o.ID != p.ID && o.Kind == p.Kind && o.Name == p.Name
	})
}

func (t *tables) periodInUse(id int64) bool {
	return t.students.exists(func(s school.Student) bool { return s.AlumniSessionID.Valid && s.AlumniSessionID.Int64 == id }) ||
		t.assignments.exists(func(a school.Assignment) bool { return a.SessionID == id || a.TermID == id }) ||
		t.tiers.exists(func(tr fees.Tier) bool { return tr.SessionID == id }) ||
		t.uniforms.exists(func(u fees.Uniform) bool { return u.SessionID == id || u.TermID == id }) ||
		t.studentUniforms.exists(func(u fees.StudentUniform) bool { return u.SessionID == id || u.TermID == id }) ||
		t.invoices.exists(func(inv ledger.Invoice) bool { return inv.SessionID == id || inv.InstallmentID == id }) ||
		t.budgets.exists(func(b budget.Budget) bool { return b.SessionID == id }) ||
		t.results.exists(func(r results.Result) bool { return r.SessionID == id || r.TermID == id || r.ExamID == id }) ||
		t.infos.exists(func(in results.Infos) bool { return in.SessionID == id || in.TermID == id || in.ExamID == id })
}

func (repo schoolRepository) CreatePeriod(ctx context.Context, p school.Period) (school.Period, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.periodTaken(p) {
		return school.Period{}, school.ErrPeriodExists
	}
	p.ID = t.periods.nextID()
	t.periods.put(p.ID, p)
	return p, nil
}

func (repo schoolRepository) UpdatePeriod(ctx context.Context, p school.Period) (school.Period, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.periods.has(p.ID) {
		return school.Period{}, school.ErrPeriodNotFound
	}
	if t.periodTaken(p) {
		return school.Period{}, school.ErrPeriodExists
	}
	t.periods.put(p.ID, p)
	return p, nil
}

func (repo schoolRepository) DeletePeriod(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.periods.has(id) {
		return school.ErrPeriodNotFound
	}
	if t.periodInUse(id) {
		return school.ErrPeriodInUse
	}
	t.periods.remove(id)
	t.cycle.Clear(id)
	return nil
}

func (repo schoolRepository) GetPeriod(ctx context.Context, id int64) (school.Period, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.periods.get(id); ok {
		return p, nil
	}
	return school.Period{}, school.ErrPeriodNotFound
}

func (repo schoolRepository) ListPeriods(ctx context.Context, kind school.PeriodKind) ([]school.Period, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.periods.filter(func(p school.Period) bool { return kind == "" || p.Kind == kind }), nil
}

func (repo schoolRepository) CountPeriods(ctx context.Context, kind school.PeriodKind) (int, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return len(t.periods.filter(func(p school.Period) bool { return p.Kind == kind })), nil
}

// Cycle

func (repo schoolRepository) GetCycle(ctx context.Context) (school.Cycle, error) {
	t, done := repo.db.begin(ctx)
	defer done()
	return t.cycle, nil
}

func (repo schoolRepository) SaveCycle(ctx context.Context, c school.Cycle) (school.Cycle, error) {
	t, done := repo.db.begin(ctx)
	defer done()
	t.cycle = c
	return c, nil
}

// Classes

func (t *tables) classTaken(c school.Class) bool {
	return t.classes.exists(func(o school.Class) bool { return o.ID != c.ID && o.Name == c.Name })
}

func (repo schoolRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.classTaken(c) {
		return school.Class{}, school.ErrClassExists
	}
	c.ID = t.classes.nextID()
	t.classes.put(c.ID, c)
	return c, nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, c school.Class) (school.Class, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.classes.has(c.ID) {
		return school.Class{}, school.ErrClassNotFound
	}
	if t.classTaken(c) {
		return school.Class{}, school.ErrClassExists
	}
	t.classes.put(c.ID, c)
	return c, nil
}

func (repo schoolRepository) DeleteClass(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.classes.has(id) {
		return school.ErrClassNotFound
	}
	if t.students.exists(func(s school.Student) bool { return s.ClassID.Valid && s.ClassID.Int64 == id }) ||
		t.uniforms.exists(func(u fees.Uniform) bool { return u.ClassID == id }) ||
		t.studentUniforms.exists(func(u fees.StudentUniform) bool { return u.ClassID == id }) ||
		t.results.exists(func(r results.Result) bool { return r.ClassID == id }) {
		return school.ErrClassInUse
	}
	t.classes.remove(id)
	for invID, inv := range t.invoices.rows {
		if inv.ClassID.Valid && inv.ClassID.Int64 == id {
			inv.ClassID.Valid = false
			t.invoices.put(invID, inv)
		}
	}
	return nil
}

func (repo schoolRepository) GetClass(ctx context.Context, id int64) (school.Class, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if c, ok := t.classes.get(id); ok {
		return c, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo schoolRepository) ListClasses(ctx context.Context) ([]school.Class, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	classes := t.classes.filter(nil)
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

// Subjects

func (t *tables) subjectTaken(s school.Subject) bool {
	return t.subjects.exists(func(o school.Subject) bool { return o.ID != s.ID && o.Name == s.Name })
}

func (repo schoolRepository) CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.subjectTaken(s) {
		return school.Subject{}, school.ErrSubjectExists
	}
	s.ID = t.subjects.nextID()
	t.subjects.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) UpdateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.subjects.has(s.ID) {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	if t.subjectTaken(s) {
		return school.Subject{}, school.ErrSubjectExists
	}
	t.subjects.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) DeleteSubject(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.subjects.has(id) {
		return school.ErrSubjectNotFound
	}
	if t.results.exists(func(r results.Result) bool { return r.SubjectID == id }) {
		return school.ErrSubjectInUse
	}
	t.subjects.remove(id)
	return nil
}

func (repo schoolRepository) GetSubject(ctx context.Context, id int64) (school.Subject, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if s, ok := t.subjects.get(id); ok {
		return s, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo schoolRepository) ListSubjects(ctx context.Context) ([]school.Subject, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	subjects := t.subjects.filter(nil)
	sort.SliceStable(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// Students

var studentOrderings = comparators[school.Student]{
	"id":                  func(a, b school.Student) int { return cmpInt(a.ID, b.ID) },
	"registration_number": func(a, b school.Student) int { return strings.Compare(a.RegistrationNumber, b.RegistrationNumber) },
	"firstname":           func(a, b school.Student) int { return strings.Compare(a.Firstname, b.Firstname) },
	"surname":             func(a, b school.Student) int { return strings.Compare(a.Surname, b.Surname) },
	"admission_date":      func(a, b school.Student) int { return cmpTime(a.AdmissionDate, b.AdmissionDate) },
	"created_at":          func(a, b school.Student) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
}

func (t *tables) regNoTaken(s school.Student) bool {
	return t.students.exists(func(o school.Student) bool {
		return o.ID != s.ID && o.RegistrationNumber == s.RegistrationNumber
	})
}

func (repo schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.regNoTaken(s) {
		return school.Student{}, school.ErrStudentExists
	}
	s.ID = t.students.nextID()
	t.students.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.students.has(s.ID) {
		return school.Student{}, school.ErrStudentNotFound
	}
	if t.regNoTaken(s) {
		return school.Student{}, school.ErrStudentExists
	}
	t.students.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) GetStudent(ctx context.Context, id int64) (school.Student, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if s, ok := t.students.get(id); ok {
		return s, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo schoolRepository) GetStudentByRegNo(ctx context.Context, regNo string) (school.Student, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	found := t.students.filter(func(s school.Student) bool { return s.RegistrationNumber == regNo })
	if len(found) == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return found[0], nil
}

func (repo schoolRepository) ListStudents(ctx context.Context, filter school.StudentFilter, ordering []core.DBOrdering) ([]school.Student, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	ids := make(map[int64]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}
	students := t.students.filter(func(s school.Student) bool {
		switch {
		case filter.Search != "" && !contains(s.RegistrationNumber+" "+s.Firstname+" "+s.MiddleName+" "+s.Surname, filter.Search):
			return false
		case filter.ClassID != 0 && (!s.ClassID.Valid || s.ClassID.Int64 != filter.ClassID):
			return false
		case filter.Status != "" && s.Status != filter.Status:
			return false
		case filter.Completed != nil && s.Completed != *filter.Completed:
			return false
		case filter.Category != "" && s.Category != filter.Category:
			return false
		case len(ids) > 0 && !ids[s.ID]:
			return false
		}
		return true
	})
	studentOrderings.sort(students, ordering,
		core.DBOrdering{Field: "surname", Ascending: true}, core.DBOrdering{Field: "firstname", Ascending: true})
	return students, nil
}

// Staff

func (repo schoolRepository) CreateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	s.ID = t.staff.nextID()
	t.staff.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) UpdateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.staff.has(s.ID) {
		return school.Staff{}, school.ErrStaffNotFound
	}
	t.staff.put(s.ID, s)
	return s, nil
}

func (repo schoolRepository) GetStaff(ctx context.Context, id int64) (school.Staff, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if s, ok := t.staff.get(id); ok {
		return s, nil
	}
	return school.Staff{}, school.ErrStaffNotFound
}

func (repo schoolRepository) ListStaff(ctx context.Context, filter school.StaffFilter) ([]school.Staff, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	staff := t.staff.filter(func(s school.Staff) bool {
		if filter.Search != "" && !contains(s.StaffNumber+" "+s.Firstname+" "+s.MiddleName+" "+s.Surname, filter.Search) {
			return false
		}
		return filter.Status == "" || s.Status == filter.Status
	})
	sort.SliceStable(staff, func(i, j int) bool { return staff[i].StaffNumber < staff[j].StaffNumber })
	return staff, nil
}

// Assignments

func (repo schoolRepository) CreateAssignment(ctx context.Context, a school.Assignment) (school.Assignment, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.assignments.exists(func(o school.Assignment) bool {
		return o.StudentID == a.StudentID && o.SessionID == a.SessionID && o.TermID == a.TermID
	}) {
		return school.Assignment{}, school.ErrAlreadyAssigned
	}
	a.ID = t.assignments.nextID()
	t.assignments.put(a.ID, a)
	return a, nil
}

func (repo schoolRepository) ListAssignments(ctx context.Context, sessionID, termID int64) ([]school.Assignment, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.assignments.filter(func(a school.Assignment) bool {
		return (sessionID == 0 || a.SessionID == sessionID) && (termID == 0 || a.TermID == termID)
	}), nil
}
