package results_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func score(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func decs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, dec(v))
	}
	return out
}

func TestGrading(t *testing.T) {
	tests := []struct {
		avg        string
		wantGrade  string
		wantStatus string
		wantPoints string
	}{
		{"100", "A", results.StatusPass, "4"},
		{"81", "A", results.StatusPass, "4"},
		{"80.99", "B", results.StatusPass, "3"},
		{"75", "B", results.StatusPass, "3"},
		{"65", "C", results.StatusPass, "2"},
		{"55", "D", results.StatusPass, "1"},
		{"54.99", "F", results.StatusPass, "0"},
		{"50", "F", results.StatusPass, "0"},
		{"49.99", "F", results.StatusFail, "0"},
		{"0", "F", results.StatusFail, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.avg, func(t *testing.T) {
			avg := dec(tt.avg)
			grade := results.GradeFor(avg)
			assert.Equal(t, tt.wantGrade, grade)
			assert.Equal(t, tt.wantStatus, results.StatusFor(avg))
			assert.True(t, dec(tt.wantPoints).Equal(results.PointsFor(grade)))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		test, exam decimal.NullDecimal
		want       string
	}{
		{"both", score("70"), score("85"), "77.5"},
		{"test only", score("64.333"), decimal.NullDecimal{}, "64.33"},
		{"exam only", decimal.NullDecimal{}, score("90"), "90"},
		{"none", decimal.NullDecimal{}, decimal.NullDecimal{}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := results.Score(tt.test, tt.exam)
			assert.True(t, dec(tt.want).Equal(got), "Score() = %s, want %s", got, tt.want)
		})
	}
}

func TestPositions(t *testing.T) {
	tests := []struct {
		name         string
		avgs         []decimal.Decimal
		wantDistinct []int
		wantAveraged []decimal.Decimal
	}{
		{"one tie", decs("80", "70", "70", "60"), []int{1, 2, 2, 3}, decs("1", "2.5", "2.5", "4")},
		{"all tied", decs("75", "75", "75"), []int{1, 1, 1}, decs("2", "2", "2")},
		{"unsorted input", decs("60", "90", "75"), []int{3, 1, 2}, decs("3", "1", "2")},
		{"empty", nil, []int{}, []decimal.Decimal{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDistinct, results.DistinctPositions(tt.avgs))
			got := results.TieAveragedPositions(tt.avgs)
			require.Len(t, got, len(tt.wantAveraged))
			for i := range got {
				assert.True(t, tt.wantAveraged[i].Equal(got[i]), "position %d = %s, want %s", i, got[i], tt.wantAveraged[i])
			}
		})
	}
}

func TestSubjectGPA(t *testing.T) {
	assert.True(t, dec("6.4").Equal(results.SubjectGPA(dec("80"))))
	assert.True(t, dec("5.386").Equal(results.SubjectGPA(dec("67.33"))))
}

type fixture struct {
	env                 *testutil.Env
	session, term, exam school.Period
	class               school.Class
	maths, english      school.Subject
}

func setup(t *testing.T) fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	return fixture{
		env:     env,
		session: env.Current(t, school.KindSession, "2025"),
		term:    env.Current(t, school.KindTerm, "Term 1"),
		exam:    env.Current(t, school.KindExam, "Midterm"),
		class:   env.Class(t, "Standard 4"),
		maths:   env.Subject(t, "Mathematics"),
		english: env.Subject(t, "English"),
	}
}

func (f fixture) save(t *testing.T, studentID, subjectID int64, test, exam decimal.NullDecimal) results.Result {
	t.Helper()
	res, err := f.env.Results.SaveResult(f.env.Ctx, results.ResultInput{
		StudentID: studentID, SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID,
		SubjectID: subjectID, TestScore: test, ExamScore: exam,
	})
	require.NoError(t, err)
	return res
}

func (f fixture) filter() results.Filter {
	return results.Filter{SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID, ClassID: f.class.ID}
}

func TestSaveResult(t *testing.T) {
	f := setup(t)
	std := f.env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", f.class.ID)

	res := f.save(t, std.ID, f.maths.ID, score("70"), score("85"))
	assert.Equal(t, f.class.ID, res.ClassID)
	assert.True(t, dec("77.5").Equal(res.Average))
	assert.Equal(t, "B", res.Grade)
	assert.Equal(t, results.StatusPass, res.Status)

	// saving again replaces the same row
	again := f.save(t, std.ID, f.maths.ID, score("40"), decimal.NullDecimal{})
	assert.Equal(t, res.ID, again.ID)
	assert.Equal(t, results.StatusFail, again.Status)

	classless := f.env.Student(t, "S0000002/2025/0002", "Baraka", "Kweka", 0)
	tests := []struct {
		name    string
		in      results.ResultInput
		wantErr error
	}{
		{
			name: "no class",
			in: results.ResultInput{
				StudentID: classless.ID, SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID, SubjectID: f.maths.ID,
			},
			wantErr: results.ErrNoClass,
		},
		{
			name: "exam passed as term",
			in: results.ResultInput{
				StudentID: std.ID, SessionID: f.session.ID, TermID: f.exam.ID, ExamID: f.exam.ID, SubjectID: f.maths.ID,
			},
			wantErr: school.ErrWrongKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.Results.SaveResult(f.env.Ctx, tt.in)
			testutil.CheckErr(t, "SaveResult", err, tt.wantErr)
		})
	}

	_, err := f.env.Results.SaveResult(f.env.Ctx, results.ResultInput{
		StudentID: std.ID, SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID,
		SubjectID: f.maths.ID, ExamScore: score("100.5"),
	})
	assert.Error(t, err, "scores above 100 are refused")
}

func TestClassReport(t *testing.T) {
	f := setup(t)
	names := []struct{ reg, first, surname, avg string }{
		{"S0000001/2025/0001", "Amani", "Mushi", "80"},
		{"S0000002/2025/0002", "Baraka", "Kweka", "70"},
		{"S0000003/2025/0003", "Chausiku", "Lema", "70"},
		{"S0000004/2025/0004", "Dotto", "Massawe", "60"},
	}
	ids := map[string]int64{}
	for _, n := range names {
		std := f.env.Student(t, n.reg, n.first, n.surname, f.class.ID)
		ids[n.first] = std.ID
		f.save(t, std.ID, f.maths.ID, decimal.NullDecimal{}, score(n.avg))
		f.save(t, std.ID, f.english.ID, decimal.NullDecimal{}, score(n.avg))
	}

	report, err := f.env.Results.ClassReport(f.env.Ctx, f.filter())
	require.NoError(t, err)
	require.Len(t, report.Students, 4)

	want := []struct {
		id       int64
		position int
		averaged string
		grade    string
	}{
		{ids["Amani"], 1, "1", "B"},
		{ids["Baraka"], 2, "2.5", "C"},
		{ids["Chausiku"], 2, "2.5", "C"},
		{ids["Dotto"], 3, "4", "D"},
	}
	for i, w := range want {
		got := report.Students[i]
		assert.Equal(t, w.id, got.StudentID)
		assert.Equal(t, w.position, got.Position)
		assert.True(t, dec(w.averaged).Equal(got.AveragedPosition), "averaged position = %s", got.AveragedPosition)
		assert.Equal(t, w.grade, got.Grade)
		assert.Equal(t, 2, got.Subjects)
		assert.Equal(t, 200, got.TotalMarks)
	}
	assert.Equal(t, "Amani Mushi", report.Students[0].StudentName)

	subjects, err := f.env.Results.SubjectReport(f.env.Ctx, f.filter())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "English", subjects[0].Subject)
	assert.Equal(t, 4, subjects[1].Students)
	assert.Equal(t, 4, subjects[1].Passed)
	assert.True(t, dec("70").Equal(subjects[1].Average))
	assert.True(t, dec("5.6").Equal(subjects[1].GPA))
}

func TestClassReport_assignedOnly(t *testing.T) {
	f := setup(t)
	a := f.env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", f.class.ID)
	b := f.env.Student(t, "S0000002/2025/0002", "Baraka", "Kweka", f.class.ID)
	f.save(t, a.ID, f.maths.ID, score("90"), score("90"))
	f.save(t, b.ID, f.maths.ID, score("95"), score("95"))
	_, err := f.env.School.AssignTerm(f.env.Ctx, a.ID, f.session.ID, f.term.ID)
	require.NoError(t, err)

	filter := f.filter()
	filter.AssignedOnly = true
	report, err := f.env.Results.ClassReport(f.env.Ctx, filter)
	require.NoError(t, err)
	require.Len(t, report.Students, 1)
	assert.Equal(t, a.ID, report.Students[0].StudentID)
	assert.Equal(t, 1, report.Students[0].Position)
}

func TestSaveInfos(t *testing.T) {
	f := setup(t)
	std := f.env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", f.class.ID)

	infos, err := f.env.Results.SaveInfos(f.env.Ctx, results.Infos{
		StudentID: std.ID, SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID,
		Honesty: "b", HeadComments: "  Keep it up ",
	})
	require.NoError(t, err)
	assert.Equal(t, "B", infos.Honesty)
	assert.Equal(t, "A", infos.Hygiene)
	assert.Equal(t, "Keep it up", infos.HeadComments)
	assert.Equal(t, core.Today(), infos.DateOfOpening)

	got, err := f.env.Results.GetInfos(f.env.Ctx, std.ID, f.session.ID, f.term.ID, f.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, infos.ID, got.ID)

	_, err = f.env.Results.SaveInfos(f.env.Ctx, results.Infos{
		StudentID: std.ID, SessionID: f.session.ID, TermID: f.term.ID, ExamID: f.exam.ID, Effort: "E",
	})
	assert.Error(t, err)

	_, err = f.env.Results.GetInfos(f.env.Ctx, std.ID, f.session.ID, f.term.ID, f.exam.ID+100)
	testutil.CheckErr(t, "GetInfos", err, results.ErrInfosNotFound)
}
