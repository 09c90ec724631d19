package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type schoolRepository struct {
	repository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{repository{db: db}}
}

// NextSerial bumps the (prefix, year) counter; the row stays locked until the transaction ends.
func (repo schoolRepository) NextSerial(ctx context.Context, prefix string, year int) (int, error) {
	return nextSerial(ctx, repo.repository, prefix, year)
}

func nextSerial(ctx context.Context, repo repository, prefix string, year int) (int, error) {
	var n int
	err := repo.getExec(ctx).QueryRowxContext(ctx, `
		INSERT INTO serial_counter (prefix, year, value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET value = serial_counter.value + 1
		RETURNING value`, prefix, year).Scan(&n)
	return n, errors.Wrap(err, "incrementing serial counter")
}

// Periods

func (repo schoolRepository) CreatePeriod(ctx context.Context, p school.Period) (school.Period, error) {
	id, err := repo.insert(ctx, `INSERT INTO period (kind, name, created_at) VALUES (:kind, :name, :created_at) RETURNING id`, p, school.ErrPeriodExists)
	if err != nil {
		return school.Period{}, err
	}
	p.ID = id
	return p, nil
}

func (repo schoolRepository) UpdatePeriod(ctx context.Context, p school.Period) (school.Period, error) {
	err := repo.update(ctx, `UPDATE period SET name = :name WHERE id = :id`, p, school.ErrPeriodNotFound, school.ErrPeriodExists)
	return p, err
}

func (repo schoolRepository) DeletePeriod(ctx context.Context, id int64) error {
	return repo.delete(ctx, "period", id, school.ErrPeriodNotFound, school.ErrPeriodInUse)
}

func (repo schoolRepository) GetPeriod(ctx context.Context, id int64) (school.Period, error) {
	var p school.Period
	err := repo.get(ctx, &p, school.ErrPeriodNotFound, `SELECT * FROM period WHERE id = $1`, id)
	return p, err
}

func (repo schoolRepository) ListPeriods(ctx context.Context, kind school.PeriodKind) ([]school.Period, error) {
	w := &where{}
	if kind != "" {
		w.add("kind = ?", kind)
	}
	periods := []school.Period{}
	err := repo.list(ctx, &periods, `SELECT * FROM period`+w.String()+` ORDER BY id`, w.args...)
	return periods, err
}

func (repo schoolRepository) CountPeriods(ctx context.Context, kind school.PeriodKind) (int, error) {
	var n int
	err := repo.get(ctx, &n, nil, `SELECT COUNT(*) FROM period WHERE kind = $1`, kind)
	return n, err
}

// Cycle

func (repo schoolRepository) GetCycle(ctx context.Context) (school.Cycle, error) {
	var c school.Cycle
	err := repo.get(ctx, &c, nil, `SELECT session_id, term_id, exam_id, installment_id, updated_at FROM current_cycle WHERE id = 1`)
	return c, err
}

func (repo schoolRepository) SaveCycle(ctx context.Context, c school.Cycle) (school.Cycle, error) {
	err := repo.update(ctx, `
		UPDATE current_cycle
		SET session_id = :session_id, term_id = :term_id, exam_id = :exam_id,
			installment_id = :installment_id, updated_at = :updated_at
		WHERE id = 1`, c, nil, nil)
	return c, err
}

// Classes

func (repo schoolRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	id, err := repo.insert(ctx, `INSERT INTO class (name) VALUES (:name) RETURNING id`, c, school.ErrClassExists)
	if err != nil {
		return school.Class{}, err
	}
	c.ID = id
	return c, nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, c school.Class) (school.Class, error) {
	err := repo.update(ctx, `UPDATE class SET name = :name WHERE id = :id`, c, school.ErrClassNotFound, school.ErrClassExists)
	return c, err
}

func (repo schoolRepository) DeleteClass(ctx context.Context, id int64) error {
	return repo.delete(ctx, "class", id, school.ErrClassNotFound, school.ErrClassInUse)
}

func (repo schoolRepository) GetClass(ctx context.Context, id int64) (school.Class, error) {
	var c school.Class
	err := repo.get(ctx, &c, school.ErrClassNotFound, `SELECT * FROM class WHERE id = $1`, id)
	return c, err
}

func (repo schoolRepository) ListClasses(ctx context.Context) ([]school.Class, error) {
	classes := []school.Class{}
	err := repo.list(ctx, &classes, `SELECT * FROM class ORDER BY name`)
	return classes, err
}

// Subjects

func (repo schoolRepository) CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	id, err := repo.insert(ctx, `INSERT INTO subject (name) VALUES (:name) RETURNING id`, s, school.ErrSubjectExists)
	if err != nil {
		return school.Subject{}, err
	}
	s.ID = id
	return s, nil
}

func (repo schoolRepository) UpdateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	err := repo.update(ctx, `UPDATE subject SET name = :name WHERE id = :id`, s, school.ErrSubjectNotFound, school.ErrSubjectExists)
	return s, err
}

func (repo schoolRepository) DeleteSubject(ctx context.Context, id int64) error {
	return repo.delete(ctx, "subject", id, school.ErrSubjectNotFound, school.ErrSubjectInUse)
}

func (repo schoolRepository) GetSubject(ctx context.Context, id int64) (school.Subject, error) {
	var s school.Subject
	err := repo.get(ctx, &s, school.ErrSubjectNotFound, `SELECT * FROM subject WHERE id = $1`, id)
	return s, err
}

func (repo schoolRepository) ListSubjects(ctx context.Context) ([]school.Subject, error) {
	subjects := []school.Subject{}
	err := repo.list(ctx, &subjects, `SELECT * FROM subject ORDER BY name`)
	return subjects, err
}

// Students

const studentColumns = `registration_number, firstname, middle_name, surname, gender, date_of_birth, class_id,
	admission_date, category, guardian1_mobile, guardian2_mobile, has_nhif, nhif_source, nhif_number, address,
	others, parent_student_id, status, completed, alumni_session_id, created_at, updated_at`

var studentOrderings = map[string]bool{
	"id": true, "registration_number": true, "firstname": true, "surname": true, "admission_date": true,
	"created_at": true,
}

func (repo schoolRepository) CreateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	id, err := repo.insert(ctx, `INSERT INTO student (`+studentColumns+`) VALUES (
		:registration_number, :firstname, :middle_name, :surname, :gender, :date_of_birth, :class_id,
		:admission_date, :category, :guardian1_mobile, :guardian2_mobile, :has_nhif, :nhif_source, :nhif_number,
		:address, :others, :parent_student_id, :status, :completed, :alumni_session_id, :created_at, :updated_at
	) RETURNING id`, s, school.ErrStudentExists)
	if err != nil {
		return school.Student{}, err
	}
	s.ID = id
	return s, nil
}

func (repo schoolRepository) UpdateStudent(ctx context.Context, s school.Student) (school.Student, error) {
	err := repo.update(ctx, `
		UPDATE student SET
			registration_number = :registration_number, firstname = :firstname, middle_name = :middle_name,
			surname = :surname, gender = :gender, date_of_birth = :date_of_birth, class_id = :class_id,
			admission_date = :admission_date, category = :category, guardian1_mobile = :guardian1_mobile,
			guardian2_mobile = :guardian2_mobile, has_nhif = :has_nhif, nhif_source = :nhif_source,
			nhif_number = :nhif_number, address = :address, others = :others,
			parent_student_id = :parent_student_id, status = :status, completed = :completed,
			alumni_session_id = :alumni_session_id, updated_at = :updated_at
		WHERE id = :id`, s, school.ErrStudentNotFound, school.ErrStudentExists)
	return s, err
}

func (repo schoolRepository) GetStudent(ctx context.Context, id int64) (school.Student, error) {
	var s school.Student
	err := repo.get(ctx, &s, school.ErrStudentNotFound, `SELECT * FROM student WHERE id = $1`, id)
	return s, err
}

func (repo schoolRepository) GetStudentByRegNo(ctx context.Context, regNo string) (school.Student, error) {
	var s school.Student
	err := repo.get(ctx, &s, school.ErrStudentNotFound, `SELECT * FROM student WHERE registration_number = $1`, regNo)
	return s, err
}

func (repo schoolRepository) ListStudents(ctx context.Context, filter school.StudentFilter, ordering []core.DBOrdering) ([]school.Student, error) {
	w := &where{}
	if filter.Search != "" {
		w.add(`(registration_number || ' ' || firstname || ' ' || middle_name || ' ' || surname) ILIKE ?`, "%"+filter.Search+"%")
	}
	if filter.ClassID != 0 {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.Completed != nil {
		w.add("completed = ?", *filter.Completed)
	}
	if filter.Category != "" {
		w.add("category = ?", filter.Category)
	}
	if len(filter.IDs) > 0 {
		w.add("id = ANY(?)", pq.Array(filter.IDs))
	}
	query := `SELECT * FROM student` + w.String() + orderBy(core.FilterOrderings(ordering, studentOrderings,
		core.DBOrdering{Field: "surname", Ascending: true}, core.DBOrdering{Field: "firstname", Ascending: true}))

	students := []school.Student{}
	err := repo.list(ctx, &students, query, w.args...)
	return students, err
}

// Staff

func (repo schoolRepository) CreateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	id, err := repo.insert(ctx, `INSERT INTO staff (
		staff_number, firstname, middle_name, surname, gender, category, job_title, department, mobile, salary,
		special_allowance, has_helsb, helsb_rate, status, created_at, updated_at
	) VALUES (
		:staff_number, :firstname, :middle_name, :surname, :gender, :category, :job_title, :department, :mobile,
		:salary, :special_allowance, :has_helsb, :helsb_rate, :status, :created_at, :updated_at
	) RETURNING id`, s, nil)
	if err != nil {
		return school.Staff{}, err
	}
	s.ID = id
	return s, nil
}

func (repo schoolRepository) UpdateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	err := repo.update(ctx, `
		UPDATE staff SET
			firstname = :firstname, middle_name = :middle_name, surname = :surname, gender = :gender,
			category = :category, job_title = :job_title, department = :department, mobile = :mobile,
			salary = :salary, special_allowance = :special_allowance, has_helsb = :has_helsb,
			helsb_rate = :helsb_rate, status = :status, updated_at = :updated_at
		WHERE id = :id`, s, school.ErrStaffNotFound, nil)
	return s, err
}

func (repo schoolRepository) GetStaff(ctx context.Context, id int64) (school.Staff, error) {
	var s school.Staff
	err := repo.get(ctx, &s, school.ErrStaffNotFound, `SELECT * FROM staff WHERE id = $1`, id)
	return s, err
}

func (repo schoolRepository) ListStaff(ctx context.Context, filter school.StaffFilter) ([]school.Staff, error) {
	w := &where{}
	if filter.Search != "" {
		w.add(`(staff_number || ' ' || firstname || ' ' || middle_name || ' ' || surname) ILIKE ?`, "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	staff := []school.Staff{}
	err := repo.list(ctx, &staff, `SELECT * FROM staff`+w.String()+` ORDER BY staff_number`, w.args...)
	return staff, err
}

// Assignments

func (repo schoolRepository) CreateAssignment(ctx context.Context, a school.Assignment) (school.Assignment, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO term_assignment (student_id, session_id, term_id, assigned_on)
		VALUES (:student_id, :session_id, :term_id, :assigned_on) RETURNING id`, a, school.ErrAlreadyAssigned)
	if err != nil {
		return school.Assignment{}, err
	}
	a.ID = id
	return a, nil
}

func (repo schoolRepository) ListAssignments(ctx context.Context, sessionID, termID int64) ([]school.Assignment, error) {
	w := &where{}
	if sessionID != 0 {
		w.add("session_id = ?", sessionID)
	}
	if termID != 0 {
		w.add("term_id = ?", termID)
	}
	assignments := []school.Assignment{}
	err := repo.list(ctx, &assignments, `SELECT * FROM term_assignment`+w.String()+` ORDER BY id`, w.args...)
	return assignments, err
}
