package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	"github.com/kizito-simon15/montessori-sub000/services/filestore"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

// App is a test server over an in-memory Env.
type App struct {
	*testutil.Env
	Server *echoapi.Server
}

func Setup(t *testing.T) *App {
	t.Helper()
	env := testutil.NewEnv(t)
	store, err := filestore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() failed: %v", err)
	}

	srv := echoapi.NewServer(&echoapi.Options{
		Conf:           env.Conf,
		Logger:         &core.NopLogger{},
		Translator:     env.Translator,
		Files:          store,
		DisableReqLogs: true,
		School:         env.School,
		Fees:           env.Fees,
		Ledger:         env.Ledger,
		Budget:         env.Budget,
		Payroll:        env.Payroll,
		Results:        env.Results,
		Inventory:      env.Inventory,
		Report:         env.Report,
	})
	return &App{Env: env, Server: srv}
}

// Token signs a token for stf with role.
func (app *App) Token(t *testing.T, stf school.Staff, role string) string {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.NewClaims(stf, role, app.Conf), app.Conf.SecretKey)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// Do serves the request and returns the recorded response.
func (app *App) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Server.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type domainErr struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest posts content as the multipart `file` field.
func newUploadRequest(t *testing.T, path, token, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() failed: %v", err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatalf("part.Write() failed: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("multipart Close() failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshalObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshalObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
