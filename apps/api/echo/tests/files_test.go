package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
)

func TestFiles(t *testing.T) {
	app := Setup(t)
	stf := app.Staff(t, "Baraka", "Mollel", 400_000)
	storekeeper := app.Token(t, stf, echoapi.RoleStorekeeper)
	content := []byte("%PDF-1.4 delivery note")

	rec := app.Do(newUploadRequest(t, "/v1/files/purchases", storekeeper, "Delivery Note.PDF", content))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp echoapi.UploadResponse
	unmarshalObj(t, rec, &resp)
	require.True(t, strings.HasPrefix(resp.Key, "purchases/"), "key = %s", resp.Key)
	assert.True(t, strings.HasSuffix(resp.Key, ".pdf"), "key = %s", resp.Key)

	rec = app.Do(newAuthRequest(http.MethodGet, "/v1/files/"+resp.Key, storekeeper))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = app.Do(newAuthRequest(http.MethodDelete, "/v1/files/"+resp.Key, storekeeper))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.Do(newAuthRequest(http.MethodGet, "/v1/files/"+resp.Key, storekeeper))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	tests := []struct {
		name     string
		path     string
		filename string
		wantCode int
	}{
		{name: "unknown folder", path: "/v1/files/payroll", filename: "slip.pdf", wantCode: http.StatusBadRequest},
		{name: "bad extension", path: "/v1/files/purchases", filename: "note.exe", wantCode: http.StatusBadRequest},
		{name: "folder of another role", path: "/v1/files/expenditures", filename: "bill.png", wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.Do(newUploadRequest(t, tt.path, storekeeper, tt.filename, content))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}
