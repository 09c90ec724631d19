package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type ledgerFixture struct {
	*App
	token   string
	staffID int64
	session school.Period
	inst    school.Period
	tierID  int64
	student school.Student
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	app := Setup(t)
	stf := app.Staff(t, "Neema", "Swai", 600_000)
	f := ledgerFixture{
		App:     app,
		token:   app.Token(t, stf, echoapi.RoleBursar),
		staffID: stf.ID,
		session: app.Current(t, school.KindSession, "2025"),
		inst:    app.Period(t, school.KindInstallment, "1st"),
	}
	app.Period(t, school.KindInstallment, "2nd")
	app.Period(t, school.KindInstallment, "3rd")
	f.tierID = app.Tier(t, f.session.ID, school.CategoryBoarding, 1_200_000).ID
	class := app.Class(t, "Standard 3")
	f.student = app.Student(t, "S0000001/2025/0001", "Amani", "Mushi", class.ID)
	return f
}

func (f ledgerFixture) createInvoice(t *testing.T) ledger.Invoice {
	body := marshalObj(t, ledger.NewInvoice{
		StudentID:     f.student.ID,
		SessionID:     f.session.ID,
		InstallmentID: f.inst.ID,
		TierID:        f.tierID,
		DueDate:       core.Today().AddDate(0, 1, 0),
	})
	rec := f.Do(newAuthRequest(http.MethodPost, "/v1/invoices", f.token, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv ledger.Invoice
	unmarshalObj(t, rec, &inv)
	return inv
}

func TestInvoiceAndReceipts(t *testing.T) {
	f := newLedgerFixture(t)

	inv := f.createInvoice(t)
	assert.Equal(t, int64(400_000), inv.Amount)
	assert.Equal(t, ledger.StatusActive, inv.Status)

	rec := f.Do(newAuthRequest(http.MethodPost, "/v1/receipts", f.token, marshalObj(t, ledger.ReceiptInput{
		InvoiceID: inv.ID,
		Amount:    core.M(150_000),
		Method:    ledger.MethodMobile,
		Reference: "MP250310.1234",
	})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var receipt ledger.Receipt
	unmarshalObj(t, rec, &receipt)
	assert.Equal(t, f.staffID, receipt.ReceivedBy.Int64, "received_by comes from the token")
	assert.True(t, core.M(150_000).Equal(receipt.Amount))

	rec = f.Do(newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/invoices/%d", inv.ID), f.token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got ledger.Invoice
	unmarshalObj(t, rec, &got)
	assert.True(t, core.M(150_000).Equal(got.Paid), "amount_paid = %s", got.Paid)

	tests := []struct {
		name     string
		method   string
		path     string
		body     []byte
		wantCode int
		wantKind string
	}{
		{
			name:   "overpayment",
			method: http.MethodPost,
			path:   "/v1/receipts",
			body: marshalObj(t, ledger.ReceiptInput{
				InvoiceID: inv.ID, Amount: core.M(250_001), Method: ledger.MethodCash,
			}),
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "OverpayReceipt",
		},
		{
			name:   "missing invoice",
			method: http.MethodPost,
			path:   "/v1/receipts",
			body: marshalObj(t, ledger.ReceiptInput{
				InvoiceID: inv.ID + 100, Amount: core.M(1_000), Method: ledger.MethodCash,
			}),
			wantCode: http.StatusNotFound,
			wantKind: "NotFound",
		},
		{
			name:     "unknown invoice id",
			method:   http.MethodGet,
			path:     fmt.Sprintf("/v1/invoices/%d", inv.ID+100),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "tier in use",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/v1/fee-tiers/%d", f.tierID),
			wantCode: http.StatusConflict,
			wantKind: "FeeTierInUse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.Do(newAuthRequest(tt.method, tt.path, f.token, tt.body))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantKind != "" {
				var derr domainErr
				unmarshalObj(t, rec, &derr)
				assert.Equal(t, tt.wantKind, derr.Code)
				assert.NotEmpty(t, derr.Error)
			}
		})
	}
}

func TestPostReceipt_validation(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.createInvoice(t)

	body := []byte(fmt.Sprintf(`{"invoice_id": %d, "amount_paid": "1000", "payment_method": "CHEQUE"}`, inv.ID))
	rec := f.Do(newAuthRequest(http.MethodPost, "/v1/receipts", f.token, body))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var fields map[string]string
	unmarshalObj(t, rec, &fields)
	assert.Contains(t, fields, "payment_method")
}

func TestAllocatePayment(t *testing.T) {
	f := newLedgerFixture(t)
	inv := f.createInvoice(t)

	body := marshalObj(t, ledger.AllocationInput{
		StudentID: f.student.ID,
		Amount:    core.M(100_000),
		Method:    ledger.MethodCash,
	})
	rec := f.Do(newAuthRequest(http.MethodPost, "/v1/payments", f.token, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got, err := f.Ledger.GetInvoice(f.Ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, core.M(100_000).Equal(got.Paid), "amount_paid = %s", got.Paid)
}

func TestYearLedgerEndpoint(t *testing.T) {
	f := newLedgerFixture(t)

	tests := []httpTest{
		{name: "not a number", method: http.MethodGet, path: "/v1/reports/ledger/abc", wantCode: http.StatusBadRequest},
		{name: "out of range", method: http.MethodGet, path: "/v1/reports/ledger/1999", wantCode: http.StatusBadRequest},
		{name: "ok", method: http.MethodGet, path: "/v1/reports/ledger/2025", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.Do(newAuthRequest(tt.method, tt.path, f.token))
			checkCodeAndData(t, tt, rec)
		})
	}
}
