package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

type fixture struct {
	env          *testutil.Env
	session      school.Period
	installments []school.Period
	tierID       int64
	student      school.Student
}

// newFixture sets up session 2025 with three installments and a boarding tier of 1 200 000.
func newFixture(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	testutil.Freeze(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))

	f := fixture{env: env, session: env.Current(t, school.KindSession, "2025")}
	for _, name := range []string{"1st", "2nd", "3rd"} {
		f.installments = append(f.installments, env.Period(t, school.KindInstallment, name))
	}
	f.tierID = env.Tier(t, f.session.ID, school.CategoryBoarding, 1_200_000).ID
	class := env.Class(t, "Standard 3")
	f.student = env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", class.ID)
	return f
}

func (f fixture) invoice(t *testing.T, inst int) ledger.Invoice {
	return f.env.Invoice(t, f.student.ID, f.session.ID, f.installments[inst].ID, f.tierID, 0)
}

func (f fixture) reload(t *testing.T, id int64) ledger.Invoice {
	inv, err := f.env.Ledger.GetInvoice(f.env.Ctx, id)
	require.NoError(t, err)
	return inv
}

func TestCreateInvoice_carryForward(t *testing.T) {
	f := newFixture(t)

	first := f.invoice(t, 0)
	assert.Equal(t, int64(400_000), first.Amount)
	assert.True(t, first.BalanceFromPrevious.IsZero())
	assert.Equal(t, ledger.StatusActive, first.Status)
	assert.Equal(t, f.student.ClassID, first.ClassID)

	f.env.Receipt(t, first.ID, core.M(250_000))

	second := f.invoice(t, 1)
	assert.Equal(t, int64(400_000), second.Amount)
	assert.True(t, core.M(150_000).Equal(second.BalanceFromPrevious), "previous balance = %s", second.BalanceFromPrevious)
}

func TestCreateInvoice_numbering(t *testing.T) {
	f := newFixture(t)

	inv := f.invoice(t, 0)
	assert.Equal(t, ledger.FormatInvoiceNumber(2025, f.student.ID, 1), inv.Number)
	assert.Regexp(t, `^INV-2025-\d+-00001$`, inv.Number)

	rec := f.env.Receipt(t, inv.ID, core.M(1000))
	assert.Equal(t, "REC-2025-00001", rec.Number)
	rec = f.env.Receipt(t, inv.ID, core.M(1000))
	assert.Equal(t, "REC-2025-00002", rec.Number)
}

func TestCreateInvoice_errors(t *testing.T) {
	f := newFixture(t)
	f.invoice(t, 0)
	other := f.env.Period(t, school.KindSession, "2026")
	otherTier := f.env.Tier(t, other.ID, school.CategoryBoarding, 900_000)

	tests := []struct {
		name    string
		in      ledger.NewInvoice
		wantErr error
	}{
		{
			name: "duplicate installment",
			in: ledger.NewInvoice{StudentID: f.student.ID, SessionID: f.session.ID,
				InstallmentID: f.installments[0].ID, TierID: f.tierID, DueDate: core.Today()},
			wantErr: ledger.ErrInvoiceExists,
		},
		{
			name: "annual fee exceeded",
			in: ledger.NewInvoice{StudentID: f.student.ID, SessionID: f.session.ID,
				InstallmentID: f.installments[1].ID, TierID: f.tierID, Amount: 900_000, DueDate: core.Today()},
			wantErr: ledger.ErrAnnualFeeExceeded,
		},
		{
			name: "installment is not a session",
			in: ledger.NewInvoice{StudentID: f.student.ID, SessionID: f.installments[1].ID,
				InstallmentID: f.installments[1].ID, TierID: f.tierID, DueDate: core.Today()},
			wantErr: school.ErrWrongKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.Ledger.CreateInvoice(f.env.Ctx, tt.in)
			testutil.CheckErr(t, "CreateInvoice", err, tt.wantErr)
		})
	}

	t.Run("tier of another session", func(t *testing.T) {
		_, err := f.env.Ledger.CreateInvoice(f.env.Ctx, ledger.NewInvoice{StudentID: f.student.ID, SessionID: f.session.ID,
			InstallmentID: f.installments[2].ID, TierID: otherTier.ID, DueDate: core.Today()})
		assert.Equal(t, core.KindValidation, core.KindOf(err), "CreateInvoice() error = %v", err)
	})
}

func TestPostReceipt_statusRoundTrip(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 0)

	rec := f.env.Receipt(t, inv.ID, inv.OverallBalance())
	inv = f.reload(t, inv.ID)
	assert.Equal(t, ledger.StatusClosed, inv.Status)
	assert.True(t, inv.OverallBalance().IsZero())

	require.NoError(t, f.env.Ledger.DeleteReceipt(f.env.Ctx, rec.ID))
	inv = f.reload(t, inv.ID)
	assert.Equal(t, ledger.StatusActive, inv.Status)
	assert.True(t, core.M(400_000).Equal(inv.OverallBalance()))
}

func TestPostReceipt_errors(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 0)

	tests := []struct {
		name     string
		amount   core.Money
		datePaid time.Time
		method   string
		wantErr  error // nil: any validation failure
	}{
		{"over the balance", core.M("400000.01"), time.Time{}, ledger.MethodCash, ledger.ErrOverpayReceipt},
		{"zero amount", core.M(0), time.Time{}, ledger.MethodCash, nil},
		{"future date", core.M(100), core.Today().AddDate(0, 0, 1), ledger.MethodCash, nil},
		{"unknown method", core.M(100), time.Time{}, "CHEQUE", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.Ledger.PostReceipt(f.env.Ctx, ledger.ReceiptInput{
				InvoiceID: inv.ID, Amount: tt.amount, DatePaid: tt.datePaid, Method: tt.method,
			})
			if tt.wantErr != nil {
				testutil.CheckErr(t, "PostReceipt", err, tt.wantErr)
				return
			}
			if err == nil {
				t.Fatalf("PostReceipt() error = %v, want a validation error", err)
			}
		})
	}

	receipts, err := f.env.Ledger.ListReceipts(f.env.Ctx, ledger.ReceiptFilter{InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestUpdateReceipt_ceilingIncludesOriginal(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 0)
	rec := f.env.Receipt(t, inv.ID, core.M(300_000))

	_, err := f.env.Ledger.UpdateReceipt(f.env.Ctx, rec.ID, ledger.ReceiptUpdate{Amount: core.M(400_000), Method: ledger.MethodNMB})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusClosed, f.reload(t, inv.ID).Status)

	_, err = f.env.Ledger.UpdateReceipt(f.env.Ctx, rec.ID, ledger.ReceiptUpdate{Amount: core.M(400_001), Method: ledger.MethodNMB})
	testutil.CheckErr(t, "UpdateReceipt", err, ledger.ErrOverpayReceipt)
}

func TestUpdateInvoice_overpaymentShiftsNextInvoice(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t, 0)
	f.env.Receipt(t, a.ID, core.M(400_000))
	b := f.invoice(t, 1)
	require.True(t, b.BalanceFromPrevious.IsZero())

	a, err := f.env.Ledger.UpdateInvoice(f.env.Ctx, a.ID, ledger.InvoiceUpdate{Amount: 300_000, DueDate: a.DueDate})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusClosed, a.Status)

	b = f.reload(t, b.ID)
	assert.True(t, core.M(-100_000).Equal(b.BalanceFromPrevious), "previous balance = %s", b.BalanceFromPrevious)
	assert.True(t, core.M(300_000).Equal(b.OverallBalance()))
}

func TestUpdateInvoice_annualCap(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t, 0)
	f.invoice(t, 1)
	f.invoice(t, 2)

	_, err := f.env.Ledger.UpdateInvoice(f.env.Ctx, a.ID, ledger.InvoiceUpdate{Amount: 400_001, DueDate: a.DueDate})
	testutil.CheckErr(t, "UpdateInvoice", err, ledger.ErrAnnualFeeExceeded)
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t, 0)
	b := f.invoice(t, 1)
	f.env.Receipt(t, b.ID, core.M(10))

	err := f.env.Ledger.DeleteInvoice(f.env.Ctx, b.ID)
	testutil.CheckErr(t, "DeleteInvoice", err, ledger.ErrInvoiceHasReceipts)
	assert.Equal(t, core.KindInUse, core.KindOf(err))

	require.NoError(t, f.env.Ledger.DeleteInvoice(f.env.Ctx, a.ID))
	b = f.reload(t, b.ID)
	assert.True(t, b.BalanceFromPrevious.IsZero(), "previous balance = %s", b.BalanceFromPrevious)
}

func TestAllocatePayment(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t, 0)
	b := f.invoice(t, 1)

	_, err := f.env.Ledger.AllocatePayment(f.env.Ctx, ledger.AllocationInput{
		StudentID: f.student.ID, Amount: core.M("800000.01"), Method: ledger.MethodMobile,
	})
	testutil.CheckErr(t, "AllocatePayment", err, ledger.ErrInsufficientOutstanding)

	receipts, err := f.env.Ledger.AllocatePayment(f.env.Ctx, ledger.AllocationInput{
		StudentID: f.student.ID, Amount: core.M(600_000), Method: ledger.MethodMobile, Reference: "TX-1",
	})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, a.ID, receipts[0].InvoiceID)
	assert.True(t, core.M(400_000).Equal(receipts[0].Amount))
	assert.Equal(t, b.ID, receipts[1].InvoiceID)
	assert.True(t, core.M(200_000).Equal(receipts[1].Amount))

	assert.Equal(t, ledger.StatusClosed, f.reload(t, a.ID).Status)
	b = f.reload(t, b.ID)
	assert.Equal(t, ledger.StatusActive, b.Status)
	assert.True(t, core.M(200_000).Equal(b.OverallBalance()))
}

func TestStudentSummaries(t *testing.T) {
	f := newFixture(t)
	a := f.invoice(t, 0)
	f.invoice(t, 1)
	f.env.Receipt(t, a.ID, core.M(150_000))
	f.env.Student(t, "S0000002/2025/0002", "Baraka", "Kweka", 0)

	sums, err := f.env.Ledger.StudentSummaries(f.env.Ctx, ledger.InvoiceFilter{SessionID: f.session.ID})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "Amani Mushi", sums[0].StudentName)
	assert.Equal(t, 2, sums[0].Invoices)
	assert.True(t, core.M(800_000).Equal(sums[0].Expected))
	assert.True(t, core.M(650_000).Equal(sums[0].Balance))
	assert.Equal(t, f.installments[1].ID, sums[0].LatestInstallment)
}

func TestInvoiceItems(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 0)

	it, err := f.env.Ledger.AddItem(f.env.Ctx, inv.ID, ledger.ItemInput{
		Description: "Bus fare", Category: ledger.ItemTransport, Quantity: core.Q(3), UnitPrice: core.M("12500.5"),
	})
	require.NoError(t, err)
	assert.True(t, core.M("37501.5").Equal(it.Amount))

	got := f.reload(t, inv.ID)
	require.Len(t, got.Items, 1)

	require.NoError(t, f.env.Ledger.DeleteItem(f.env.Ctx, it.ID))
	assert.Empty(t, f.reload(t, inv.ID).Items)
}

func TestInvoiceStatusInvariant(t *testing.T) {
	f := newFixture(t)
	invoices := []ledger.Invoice{f.invoice(t, 0), f.invoice(t, 1), f.invoice(t, 2)}
	payments := []string{"100000", "650000", "25000.50"}
	for i, amount := range payments {
		f.env.Receipt(t, invoices[i].ID, core.M(amount))
	}

	carried := core.M(0)
	for _, inv := range invoices {
		inv = f.reload(t, inv.ID)
		assert.True(t, carried.Equal(inv.BalanceFromPrevious), "%s: previous = %s, want %s", inv.Number, inv.BalanceFromPrevious, carried)
		wantClosed := !inv.OverallBalance().IsPositive()
		assert.Equal(t, wantClosed, inv.Status == ledger.StatusClosed, inv.Number)
		carried = carried.Add(inv.OwnBalance())
	}
}
