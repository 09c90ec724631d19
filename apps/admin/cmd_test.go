package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)
	return &commandLine{conf: env.Conf, out: out, school: env.School}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) check(t *testing.T, err error, out string) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr && errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
		t.Errorf("cli.run() output = %q, want it to contain %q", out, tt.wantOut)
	}
}

func runCLI(cli *commandLine, out *bytes.Buffer, args []string) (string, error) {
	out.Reset()
	err := cli.run(append([]string{"admin"}, args...))
	return out.String(), err
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"token", "-user", "1"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
		})
	}
}

func Test_commandLine_createDB(t *testing.T) {
	cli, _, out := setup(t)

	var gotPassword string
	createDBFunc = func(conf *core.Config) error {
		gotPassword = conf.Database.AdminPassword
		return nil
	}

	tests := []struct {
		cliTest
		typed    string
		wantPass string
	}{
		{cliTest: cliTest{name: "no prompt", args: []string{"createdb"}, wantOut: "is ready"}},
		{cliTest: cliTest{name: "empty password", args: []string{"createdb", "-prompt"}, wantErr: errHelp}},
		{cliTest: cliTest{name: "prompted password", args: []string{"createdb", "-prompt"}, wantOut: "is ready"}, typed: "s3cret", wantPass: "s3cret"},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.typed), nil
		}
		gotPassword = ""

		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
			if err == nil {
				assert.Equal(t, tt.wantPass, gotPassword)
			}
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	cli, env, out := setup(t)

	stf := env.Staff(t, "Neema", "Swai", 600_000)
	inactive := env.Staff(t, "Juma", "Said", 300_000)
	_, err := env.School.UpdateStaff(env.Ctx, inactive.ID, school.StaffInput{
		Firstname: inactive.Firstname,
		Surname:   inactive.Surname,
		Gender:    inactive.Gender,
		Salary:    inactive.Salary,
		Status:    school.StatusInactive,
	})
	require.NoError(t, err)

	tests := []cliTest{
		{name: "no args", args: []string{"token"}, wantErr: errHelp},
		{name: "no role", args: []string{"token", "-staff", "1"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"token", "-staff", strconv.FormatInt(stf.ID, 10), "-role", "janitor"}, wantErr: errUnknownRole},
		{name: "inactive staff", args: []string{"token", "-staff", strconv.FormatInt(inactive.ID, 10), "-role", "bursar"}, wantErr: errStaffInactive},
		{name: "ok", args: []string{"token", "-staff", strconv.FormatInt(stf.ID, 10), "-role", "bursar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
			if err != nil {
				return
			}
			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(strings.TrimSpace(s), claims, func(*jwt.Token) (interface{}, error) {
				return []byte(env.Conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, stf.ID, claims.Actor().StaffID)
			assert.Equal(t, echoapi.RoleBursar, claims.Role)
		})
	}
}

func Test_commandLine_importStudents(t *testing.T) {
	cli, env, out := setup(t)
	env.Class(t, "Standard 5")

	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(strings.Join([]string{
		"registration_number,surname,firstname,gender,category,current_class",
		"S0000001/2025/0001,Mushi,Amani,M,boarding,Standard 5",
		"S0000002/2025/0002,Kweka,Baraka,F,day_walker,",
	}, "\n")), 0o644))
	partial := filepath.Join(dir, "partial.csv")
	require.NoError(t, os.WriteFile(partial, []byte(strings.Join([]string{
		"registration_number,surname,firstname,gender,category,current_class",
		"S0000003/2025/0003,Lema,Chausiku,F,day_bus,Standard 9",
	}, "\n")), 0o644))

	tests := []cliTest{
		{name: "no file", args: []string{"importstudents"}, wantErr: errHelp},
		{name: "ok", args: []string{"importstudents", "-file", good}, wantOut: "2 students created"},
		{name: "skipped rows", args: []string{"importstudents", "-file", partial}, wantErrStr: "1 rows skipped", wantOut: "line 2: current_class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
		})
	}

	students, err := env.School.ListStudents(env.Ctx, school.StudentFilter{}, nil)
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func Test_commandLine_setCurrent(t *testing.T) {
	cli, env, out := setup(t)
	session := env.Period(t, school.KindSession, "2025")
	term := env.Period(t, school.KindTerm, "Term 1")

	tests := []cliTest{
		{name: "no args", args: []string{"setcurrent"}, wantErr: errHelp},
		{name: "wrong kind", args: []string{"setcurrent", "-kind", "term", "-id", strconv.FormatInt(session.ID, 10)}, wantErr: school.ErrWrongKind},
		{name: "session", args: []string{"setcurrent", "-kind", "session", "-id", strconv.FormatInt(session.ID, 10)}, wantOut: "current session is now"},
		{name: "term", args: []string{"setcurrent", "-kind", "term", "-id", strconv.FormatInt(term.ID, 10)}, wantOut: "current term is now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := runCLI(cli, out, tt.args)
			tt.check(t, err, s)
		})
	}

	current, err := env.School.Current(env.Ctx, school.KindTerm)
	require.NoError(t, err)
	assert.Equal(t, term.ID, current.ID)
}
