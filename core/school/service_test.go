package school_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func TestSetCurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := env.Ctx

	_, err := env.School.Current(ctx, school.KindSession)
	testutil.CheckErr(t, "Current", err, school.ErrNoCurrent)

	s2024 := env.Current(t, school.KindSession, "2024")
	s2025 := env.Period(t, school.KindSession, "2025")
	term := env.Current(t, school.KindTerm, "Term 1")

	cycle, err := env.School.SetCurrent(ctx, school.KindSession, s2025.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(s2025.ID), cycle.SessionID)
	assert.Equal(t, null.Int64From(term.ID), cycle.TermID)

	cur, err := env.School.Current(ctx, school.KindSession)
	require.NoError(t, err)
	assert.Equal(t, s2025.ID, cur.ID)
	assert.NotEqual(t, s2024.ID, cur.ID)

	cc, err := env.School.CurrentCycle(ctx)
	require.NoError(t, err)
	require.NotNil(t, cc.Session)
	require.NotNil(t, cc.Term)
	assert.Nil(t, cc.Exam)
	assert.Equal(t, "2025", cc.Session.Name)

	_, err = env.School.SetCurrent(ctx, school.KindTerm, s2024.ID)
	testutil.CheckErr(t, "SetCurrent", err, school.ErrWrongKind)

	// deleting the current session clears the pointer
	require.NoError(t, env.School.DeletePeriod(ctx, s2025.ID))
	_, err = env.School.Current(ctx, school.KindSession)
	testutil.CheckErr(t, "Current", err, school.ErrNoCurrent)
}

func TestCreateStudent(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		in      school.StudentInput
		check   func(t *testing.T, s school.Student)
		wantErr bool
	}{
		{
			name: "normalises mobiles",
			in: school.StudentInput{
				RegistrationNumber: "S0000001/2025/0001", Firstname: " Neema ", Surname: "Msuya", Gender: "F",
				Category: school.CategoryDayBus, Guardian1Mobile: "0712 345 678",
			},
			check: func(t *testing.T, s school.Student) {
				assert.Equal(t, "Neema", s.Firstname)
				assert.Equal(t, "+255712345678", s.Guardian1Mobile)
				assert.Equal(t, school.StatusActive, s.Status)
			},
		},
		{
			name: "drops NHIF details without NHIF",
			in: school.StudentInput{
				RegistrationNumber: "S0000002/2025/0002", Firstname: "Juma", Surname: "Said", Gender: "M",
				Category: school.CategoryBoarding, NHIFSource: school.NHIFParentProcessed, NHIFNumber: "123",
			},
			check: func(t *testing.T, s school.Student) {
				assert.Empty(t, s.NHIFSource)
				assert.Empty(t, s.NHIFNumber)
			},
		},
		{
			name: "bad registration number",
			in: school.StudentInput{
				RegistrationNumber: "S123/2025/0001", Firstname: "Juma", Surname: "Said", Gender: "M",
				Category: school.CategoryBoarding,
			},
			wantErr: true,
		},
		{
			name: "NHIF without number",
			in: school.StudentInput{
				RegistrationNumber: "S0000003/2025/0003", Firstname: "Juma", Surname: "Said", Gender: "M",
				Category: school.CategoryBoarding, HasNHIF: true, NHIFSource: school.NHIFSchoolProcessed,
			},
			wantErr: true,
		},
		{
			name: "bad mobile",
			in: school.StudentInput{
				RegistrationNumber: "S0000004/2025/0004", Firstname: "Juma", Surname: "Said", Gender: "M",
				Category: school.CategoryBoarding, Guardian2Mobile: "+1555123",
			},
			wantErr: true,
		},
		{
			name: "duplicate registration number",
			in: school.StudentInput{
				RegistrationNumber: "S0000001/2025/0001", Firstname: "Neema", Surname: "Msuya", Gender: "F",
				Category: school.CategoryDayBus,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.School.CreateStudent(env.Ctx, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateStudent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestPromote(t *testing.T) {
	env := testutil.NewEnv(t)
	std3 := env.Class(t, "Standard 3")
	std4 := env.Class(t, "Standard 4")
	std7 := env.Class(t, env.Conf.School.GraduationClass)
	a := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", std3.ID)
	b := env.Student(t, "S0000002/2025/0002", "Baraka", "Kweka", std3.ID)

	promoted, err := env.School.Promote(env.Ctx, []int64{a.ID, b.ID}, std4.ID)
	require.NoError(t, err)
	require.Len(t, promoted, 2)
	for _, s := range promoted {
		assert.Equal(t, null.Int64From(std4.ID), s.ClassID)
		assert.False(t, s.Completed)
	}

	_, err = env.School.Promote(env.Ctx, []int64{a.ID}, std7.ID)
	testutil.CheckErr(t, "Promote", err, school.ErrNoCurrent)

	session := env.Current(t, school.KindSession, "2025")
	promoted, err = env.School.Promote(env.Ctx, []int64{a.ID}, std7.ID)
	require.NoError(t, err)
	alumni := promoted[0]
	assert.True(t, alumni.Completed)
	assert.Equal(t, school.StatusInactive, alumni.Status)
	assert.False(t, alumni.ClassID.Valid)
	assert.Equal(t, null.Int64From(session.ID), alumni.AlumniSessionID)

	completed, err := env.School.CompleteClass(env.Ctx, std4.ID)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, b.ID, completed[0].ID)
	assert.True(t, completed[0].Completed)
	assert.False(t, completed[0].AlumniSessionID.Valid)
}

func TestCreateStaff(t *testing.T) {
	env := testutil.NewEnv(t)

	first := env.Staff(t, "Rehema", "Nyerere", 800_000)
	assert.Equal(t, "VST001", first.StaffNumber)

	second, err := env.School.CreateStaff(env.Ctx, school.StaffInput{
		Firstname: "Hamisi", Surname: "Kombo", Gender: "Male", Mobile: "0754 000 111", Salary: core.M(500_000),
	})
	require.NoError(t, err)
	assert.Equal(t, "VST002", second.StaffNumber)
	assert.Equal(t, "+255754000111", second.Mobile)
	assert.Equal(t, school.StaffTeaching, second.Category)

	_, err = env.School.CreateStaff(env.Ctx, school.StaffInput{
		Firstname: "Hamisi", Surname: "Kombo", Gender: "male", Salary: core.M(1), HasHELSB: true, HELSBRate: decimal.NewFromInt(15),
	})
	assert.Equal(t, core.KindValidation, core.KindOf(err), "CreateStaff() error = %v", err)
}

func TestAssignCurrentTerm(t *testing.T) {
	env := testutil.NewEnv(t)
	a := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", 0)
	b := env.Student(t, "S0000002/2025/0002", "Baraka", "Kweka", 0)
	env.Student(t, "S0000003/2025/0003", "Chausiku", "Lema", 0)

	_, err := env.School.AssignCurrentTerm(env.Ctx, []int64{a.ID})
	testutil.CheckErr(t, "AssignCurrentTerm", err, school.ErrNoCurrent)

	session := env.Current(t, school.KindSession, "2025")
	term := env.Current(t, school.KindTerm, "Term 1")

	_, err = env.School.AssignTerm(env.Ctx, a.ID, session.ID, term.ID)
	require.NoError(t, err)
	_, err = env.School.AssignTerm(env.Ctx, a.ID, session.ID, term.ID)
	testutil.CheckErr(t, "AssignTerm", err, school.ErrAlreadyAssigned)

	created, err := env.School.AssignCurrentTerm(env.Ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, b.ID, created[0].StudentID)

	assigned, err := env.School.AssignedStudents(env.Ctx, session.ID, term.ID)
	require.NoError(t, err)
	assert.Len(t, assigned, 2)
}

func TestImportStudents(t *testing.T) {
	env := testutil.NewEnv(t)
	class := env.Class(t, "Standard 5")
	env.Period(t, school.KindSession, "2024")
	env.Student(t, "S0000009/2025/0009", "Existing", "Student", 0)

	csv := strings.Join([]string{
		"registration_number,surname,firstname,middle_name,gender,category,guardian1_mobile_number,has_nhif,current_class,alumni_session",
		"S0000001/2025/0001,Mushi,Amani,,m,Boarding,0712345678,false,Standard 5,",
		"S0000002/2025/0002,Kweka,Baraka,,F,day_walker,,false,,2024",
		"S0000003/2025/0003,Lema,Chausiku,,F,day_bus,,false,Standard 9,",
		"S0000001/2025/0001,Mushi,Amani,,M,boarding,,false,,",
		"S0000009/2025/0009,Existing,Student,,M,boarding,,false,,",
		"bad,Lema,Chausiku,,F,day_bus,,maybe,,",
		"S0000004/2025/0004,,Chausiku,,F,day_bus,,false,,",
	}, "\n")

	res, err := env.School.ImportStudents(env.Ctx, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	assert.Equal(t, null.Int64From(class.ID), res.Created[0].ClassID)
	assert.Equal(t, "+255712345678", res.Created[0].Guardian1Mobile)
	assert.True(t, res.Created[1].AlumniSessionID.Valid)

	lines := map[int]string{}
	for _, e := range res.Errors {
		lines[e.Line] = e.Field
	}
	assert.Equal(t, map[int]string{
		4: "current_class",
		5: "registration_number",
		6: "registration_number",
		7: "has_nhif",
		8: "surname",
	}, lines)
}

func TestImportStudents_byteOrderMark(t *testing.T) {
	env := testutil.NewEnv(t)

	csv := "\ufeffRegistration_Number,Surname,Firstname,Gender,Category\n" +
		"S0000001/2025/0001,Mushi,Amani,M,boarding\n"
	res, err := env.School.ImportStudents(env.Ctx, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "S0000001/2025/0001", res.Created[0].RegistrationNumber)
}

func TestImportStudents_header(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name     string
		header   string
		wantHint string
	}{
		{"misspelt column", "registration_number,surname,firstname,gendr,category", `did you mean "gender"?`},
		{"missing column", "registration_number,surname,firstname,gender", "missing column"},
		{"empty file", "", "the file is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.School.ImportStudents(env.Ctx, strings.NewReader(tt.header))
			if core.KindOf(err) != core.KindValidation {
				t.Fatalf("ImportStudents() error = %v, wantErr %v", err, core.KindValidation)
			}
			verr, ok := err.(*core.ValidationError)
			require.True(t, ok)
			var msgs []string
			for _, f := range verr.Fields {
				msgs = append(msgs, f.Error)
			}
			assert.Contains(t, strings.Join(msgs, "; "), tt.wantHint)
		})
	}
}
