package results

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	Repository interface {
		// UpsertResult inserts or replaces the row keyed on (student, session, term, exam, subject).
		UpsertResult(ctx context.Context, r Result) (Result, error)
		DeleteResult(ctx context.Context, id int64) error
		GetResult(ctx context.Context, id int64) (Result, error)
		ListResults(ctx context.Context, filter Filter) ([]Result, error)

		// UpsertInfos keeps a single record per (student, session, term, exam).
		UpsertInfos(ctx context.Context, in Infos) (Infos, error)
		GetInfos(ctx context.Context, studentID, sessionID, termID, examID int64) (Infos, error)
	}

	Calendar interface {
		GetPeriodOf(ctx context.Context, kind school.PeriodKind, id int64) (school.Period, error)
		GetStudent(ctx context.Context, id int64) (school.Student, error)
		GetClass(ctx context.Context, id int64) (school.Class, error)
		GetSubject(ctx context.Context, id int64) (school.Subject, error)
		ListSubjects(ctx context.Context) ([]school.Subject, error)
		ListStudents(ctx context.Context, filter school.StudentFilter, ordering []core.DBOrdering) ([]school.Student, error)
		ListAssignments(ctx context.Context, sessionID, termID int64) ([]school.Assignment, error)
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		calendar Calendar
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, calendar Calendar, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, tx: tx, calendar: calendar, validate: validate, logger: logger}
}

func (svc *Service) checkPeriods(ctx context.Context, sessionID, termID, examID int64) error {
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindSession, sessionID); err != nil {
		return err
	}
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindTerm, termID); err != nil {
		return err
	}
	_, err := svc.calendar.GetPeriodOf(ctx, school.KindExam, examID)
	return err
}

// SaveResult stores the scores of a subject, recomputing the derived fields.
func (svc *Service) SaveResult(ctx context.Context, in ResultInput) (Result, error) {
	if err := svc.validate.Struct(in); err != nil {
		return Result{}, err
	}
	var res Result
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		std, err := svc.calendar.GetStudent(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if err = svc.checkPeriods(ctx, in.SessionID, in.TermID, in.ExamID); err != nil {
			return err
		}
		if _, err = svc.calendar.GetSubject(ctx, in.SubjectID); err != nil {
			return err
		}
		classID := in.ClassID
		if classID == 0 {
			if !std.ClassID.Valid {
				return ErrNoClass
			}
			classID = std.ClassID.Int64
		}
		if _, err = svc.calendar.GetClass(ctx, classID); err != nil {
			return err
		}

		res = Result{
			StudentID: in.StudentID,
			SessionID: in.SessionID,
			TermID:    in.TermID,
			ExamID:    in.ExamID,
			ClassID:   classID,
			SubjectID: in.SubjectID,
			TestScore: in.TestScore,
			ExamScore: in.ExamScore,
			UpdatedAt: core.NowFunc().UTC(),
		}
		res.derive()
		res, err = svc.repo.UpsertResult(ctx, res)
		return err
	})
	return res, err
}

func (svc *Service) DeleteResult(ctx context.Context, id int64) error {
	return svc.repo.DeleteResult(ctx, id)
}

func (svc *Service) GetResult(ctx context.Context, id int64) (Result, error) {
	return svc.repo.GetResult(ctx, id)
}

func (svc *Service) ListResults(ctx context.Context, filter Filter) ([]Result, error) {
	return svc.filteredResults(ctx, filter)
}

// filteredResults applies AssignedOnly on top of the repository filter.
func (svc *Service) filteredResults(ctx context.Context, filter Filter) ([]Result, error) {
	rows, err := svc.repo.ListResults(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !filter.AssignedOnly {
		return rows, nil
	}
	assignments, err := svc.calendar.ListAssignments(ctx, filter.SessionID, filter.TermID)
	if err != nil {
		return nil, err
	}
	assigned := make(map[int64]bool, len(assignments))
	for _, a := range assignments {
		assigned[a.StudentID] = true
	}
	kept := rows[:0]
	for _, r := range rows {
		if assigned[r.StudentID] {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// ClassReport ranks the students of a class for a (session, term, exam). It carries both the
// distinct-rank position and the tie-averaged one.
func (svc *Service) ClassReport(ctx context.Context, filter Filter) (ClassReport, error) {
	filter.StudentID, filter.SubjectID = 0, 0
	rows, err := svc.filteredResults(ctx, filter)
	if err != nil {
		return ClassReport{}, err
	}

	type acc struct {
		averages []decimal.Decimal
		points   []decimal.Decimal
	}
	byStudent := make(map[int64]*acc)
	var ids []int64
	for _, r := range rows {
		a, ok := byStudent[r.StudentID]
		if !ok {
			a = &acc{}
			byStudent[r.StudentID] = a
			ids = append(ids, r.StudentID)
		}
		a.averages = append(a.averages, r.Average)
		a.points = append(a.points, PointsFor(r.Grade))
	}

	report := ClassReport{Filter: filter, Students: []StudentReport{}}
	if len(ids) == 0 {
		return report, nil
	}
	names := make(map[int64]string, len(ids))
	students, err := svc.calendar.ListStudents(ctx, school.StudentFilter{IDs: ids}, nil)
	if err != nil {
		return ClassReport{}, err
	}
	for _, std := range students {
		names[std.ID] = std.FullName()
	}

	overall := make([]decimal.Decimal, 0, len(ids))
	for _, id := range ids {
		a := byStudent[id]
		avg := Mean(a.averages, 2)
		grade := GradeFor(avg)
		report.Students = append(report.Students, StudentReport{
			StudentID:   id,
			StudentName: names[id],
			Subjects:    len(a.averages),
			TotalScore:  decimal.Sum(decimal.Zero, a.averages...),
			TotalMarks:  len(a.averages) * 100,
			Average:     avg,
			Grade:       grade,
			Status:      StatusFor(avg),
			Comment:     CommentFor(grade),
			GPA:         Mean(a.points, 3),
		})
		overall = append(overall, avg)
	}

	distinct := DistinctPositions(overall)
	averaged := TieAveragedPositions(overall)
	for i := range report.Students {
		report.Students[i].Position = distinct[i]
		report.Students[i].AveragedPosition = averaged[i]
	}
	sort.SliceStable(report.Students, func(i, j int) bool {
		a, b := report.Students[i], report.Students[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.StudentName < b.StudentName
	})
	return report, nil
}

// SubjectReport summarises each subject of a class for a (session, term, exam).
func (svc *Service) SubjectReport(ctx context.Context, filter Filter) ([]SubjectSummary, error) {
	filter.StudentID = 0
	rows, err := svc.filteredResults(ctx, filter)
	if err != nil {
		return nil, err
	}
	subjects, err := svc.calendar.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}

	bySubject := make(map[int64][]Result)
	var ids []int64
	for _, r := range rows {
		if _, ok := bySubject[r.SubjectID]; !ok {
			ids = append(ids, r.SubjectID)
		}
		bySubject[r.SubjectID] = append(bySubject[r.SubjectID], r)
	}

	sums := make([]SubjectSummary, 0, len(ids))
	for _, id := range ids {
		rs := bySubject[id]
		avgs := make([]decimal.Decimal, 0, len(rs))
		passed := 0
		for _, r := range rs {
			avgs = append(avgs, r.Average)
			if r.Status == StatusPass {
				passed++
			}
		}
		avg := Mean(avgs, 2)
		grade := GradeFor(avg)
		sums = append(sums, SubjectSummary{
			SubjectID: id,
			Subject:   names[id],
			Students:  len(rs),
			Passed:    passed,
			Average:   avg,
			Grade:     grade,
			GPA:       SubjectGPA(avg),
			Comment:   CommentFor(grade),
		})
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i].Subject < sums[j].Subject })
	return sums, nil
}

// SaveInfos records the latest behaviour report of a student.
func (svc *Service) SaveInfos(ctx context.Context, in Infos) (Infos, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Infos{}, err
	}
	var out Infos
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.calendar.GetStudent(ctx, in.StudentID); err != nil {
			return err
		}
		if err := svc.checkPeriods(ctx, in.SessionID, in.TermID, in.ExamID); err != nil {
			return err
		}
		in.UpdatedAt = core.NowFunc().UTC()
		var err error
		out, err = svc.repo.UpsertInfos(ctx, in)
		return err
	})
	return out, err
}

func (svc *Service) GetInfos(ctx context.Context, studentID, sessionID, termID, examID int64) (Infos, error) {
	return svc.repo.GetInfos(ctx, studentID, sessionID, termID, examID)
}
