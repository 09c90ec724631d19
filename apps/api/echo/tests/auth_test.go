package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

func TestHome(t *testing.T) {
	app := Setup(t)

	rec := app.Do(newRequest(http.MethodGet, "/"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Montessori API!", rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	app := Setup(t)
	stf := app.Staff(t, "Neema", "Swai", 600_000)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/invoices",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "missing or malformed jwt"}),
		},
		{
			name:     "unknown role",
			method:   http.MethodGet,
			path:     "/v1/invoices",
			token:    app.Token(t, stf, "janitor"),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "staff not authenticated"}),
		},
		{
			name:     "missing staff id",
			method:   http.MethodGet,
			path:     "/v1/invoices",
			token:    app.Token(t, school.Staff{}, echoapi.RoleBursar),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "teacher on bursar routes",
			method:   http.MethodGet,
			path:     "/v1/invoices",
			token:    app.Token(t, stf, echoapi.RoleTeacher),
			wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "teacher on staff admin",
			method:   http.MethodPost,
			path:     "/v1/staff",
			body:     []byte(`{"firstname":"A","surname":"B"}`),
			token:    app.Token(t, stf, echoapi.RoleTeacher),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "bursar",
			method:   http.MethodGet,
			path:     "/v1/invoices",
			token:    app.Token(t, stf, echoapi.RoleBursar),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "admin passes every role",
			method:   http.MethodGet,
			path:     "/v1/results",
			token:    app.Token(t, stf, echoapi.RoleAdmin),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.Do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestRefreshToken(t *testing.T) {
	app := Setup(t)
	stf := app.Staff(t, "Neema", "Swai", 600_000)

	rec := app.Do(newAuthRequest(http.MethodPost, "/v1/auth/refresh", app.Token(t, stf, echoapi.RoleBursar)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp echoapi.TokenResponse
	unmarshalObj(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	rec = app.Do(newAuthRequest(http.MethodGet, "/v1/invoices", resp.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	t.Run("unknown staff", func(t *testing.T) {
		ghost := school.Staff{ID: stf.ID + 100, Firstname: "Ghost"}
		rec := app.Do(newAuthRequest(http.MethodPost, "/v1/auth/refresh", app.Token(t, ghost, echoapi.RoleBursar)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
