package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func moneyEqual(t *testing.T, want int64, got core.Money, field string) {
	t.Helper()
	if !core.M(want).Equal(got) {
		t.Errorf("%s = %s, want %d", field, got, want)
	}
}

func TestCompute(t *testing.T) {
	rates := payroll.Rates{NSSF: decimal.RequireFromString("0.10"), WCF: decimal.RequireFromString("0.005")}

	tests := []struct {
		name       string
		in         payroll.Inputs
		helsb      payroll.HELSBTerms
		deductions []payroll.Deduction
		want       payroll.Snapshots
	}{
		{
			name: "basic only",
			in:   payroll.Inputs{BasicSalary: core.M(400_000)},
			want: payroll.Snapshots{
				TaxableGross: core.M(400_000), GrossSalary: core.M(400_000), NSSF: core.M(40_000), WCF: core.M(2_000),
				HELSB: core.M(0), ExtraDeductions: core.M(0), NetSalary: core.M(358_000), TotalGiven: core.M(358_000),
			},
		},
		{
			name:  "allowance is untaxed",
			in:    payroll.Inputs{BasicSalary: core.M(600_000), SpecialAllowance: core.M(100_000), Allowance: core.M(30_000), PAYE: core.M(20_000)},
			helsb: payroll.HELSBTerms{HasHELSB: true, Rate: decimal.RequireFromString("0.08")},
			deductions: []payroll.Deduction{
				{Reason: "Advance", Amount: core.M(15_000)},
				{Reason: "Uniform", Amount: core.M(5_000)},
			},
			want: payroll.Snapshots{
				TaxableGross: core.M(700_000), GrossSalary: core.M(730_000), NSSF: core.M(70_000), WCF: core.M(3_500),
				HELSB: core.M(56_000), ExtraDeductions: core.M(20_000), NetSalary: core.M(560_500), TotalGiven: core.M(560_500),
			},
		},
		{
			name:  "rate ignored without HELSB",
			in:    payroll.Inputs{BasicSalary: core.M("333333.33")},
			helsb: payroll.HELSBTerms{HasHELSB: false, Rate: decimal.RequireFromString("0.15")},
			want: payroll.Snapshots{
				TaxableGross: core.M("333333.33"), GrossSalary: core.M("333333.33"), NSSF: core.M("33333.33"), WCF: core.M("1666.67"),
				HELSB: core.M(0), ExtraDeductions: core.M(0), NetSalary: core.M("298333.33"), TotalGiven: core.M("298333.33"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payroll.Compute(tt.in, tt.helsb, tt.deductions, rates)
			assert.True(t, tt.want.TaxableGross.Equal(got.TaxableGross), "taxable = %s", got.TaxableGross)
			assert.True(t, tt.want.GrossSalary.Equal(got.GrossSalary), "gross = %s", got.GrossSalary)
			assert.True(t, tt.want.NSSF.Equal(got.NSSF), "nssf = %s", got.NSSF)
			assert.True(t, tt.want.WCF.Equal(got.WCF), "wcf = %s", got.WCF)
			assert.True(t, tt.want.HELSB.Equal(got.HELSB), "helsb = %s", got.HELSB)
			assert.True(t, tt.want.ExtraDeductions.Equal(got.ExtraDeductions), "extra = %s", got.ExtraDeductions)
			assert.True(t, tt.want.NetSalary.Equal(got.NetSalary), "net = %s", got.NetSalary)
			assert.True(t, got.NetSalary.Equal(got.TotalGiven))
		})
	}
}

func setup(t *testing.T) (*testutil.Env, school.Staff, int64) {
	t.Helper()
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	b := env.AllocateBudget(t, session.ID, "Salaries", 5_000_000)
	stf, err := env.School.CreateStaff(env.Ctx, school.StaffInput{
		Firstname: "Rehema", Surname: "Nyerere", Gender: "female",
		Salary: core.M(800_000), SpecialAllowance: core.M(200_000),
		HasHELSB: true, HELSBRate: decimal.RequireFromString("0.15"),
	})
	require.NoError(t, err)
	return env, stf, b.ID
}

func TestSaveSlip_helsb(t *testing.T) {
	env, stf, budgetID := setup(t)

	in := payroll.SlipInput{
		BudgetID: budgetID, StaffID: stf.ID, Month: testutil.Date(2025, time.March, 20),
		Allowance: core.M(50_000), PAYE: core.M(60_000),
	}
	slip, err := env.Payroll.SaveSlip(env.Ctx, 0, in)
	require.NoError(t, err)

	assert.Equal(t, testutil.Date(2025, time.March, 1), slip.Month)
	moneyEqual(t, 800_000, slip.BasicSalary, "basic")
	moneyEqual(t, 200_000, slip.SpecialAllowance, "special")
	moneyEqual(t, 1_000_000, slip.TaxableGross, "taxable")
	moneyEqual(t, 1_050_000, slip.GrossSalary, "gross")
	moneyEqual(t, 100_000, slip.NSSF, "nssf")
	moneyEqual(t, 0, slip.WCF, "wcf")
	moneyEqual(t, 150_000, slip.HELSB, "helsb")
	moneyEqual(t, 740_000, slip.NetSalary, "net")

	sum, err := env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	moneyEqual(t, 740_000, sum.Used, "budget used")

	// saving the same inputs again yields identical snapshots
	again, err := env.Payroll.SaveSlip(env.Ctx, slip.ID, in)
	require.NoError(t, err)
	assert.Equal(t, slip.ID, again.ID)
	assert.True(t, slip.NetSalary.Equal(again.NetSalary))
	assert.True(t, slip.HELSB.Equal(again.HELSB))
	sum, err = env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	moneyEqual(t, 740_000, sum.Used, "budget used after resave")
}

func TestSaveSlip_updateKeepsFigures(t *testing.T) {
	env, stf, budgetID := setup(t)
	month := testutil.Date(2025, time.April, 1)

	slip, err := env.Payroll.SaveSlip(env.Ctx, 0, payroll.SlipInput{
		BudgetID: budgetID, StaffID: stf.ID, Month: month,
		BasicSalary: core.M(900_000), SpecialAllowance: core.M(50_000),
	})
	require.NoError(t, err)
	moneyEqual(t, 900_000, slip.BasicSalary, "basic")

	slip, err = env.Payroll.SaveSlip(env.Ctx, slip.ID, payroll.SlipInput{
		BudgetID: budgetID, StaffID: stf.ID, Month: month, Allowance: core.M(10_000),
	})
	require.NoError(t, err)
	moneyEqual(t, 900_000, slip.BasicSalary, "basic kept")
	moneyEqual(t, 50_000, slip.SpecialAllowance, "special kept")
	moneyEqual(t, 10_000, slip.Allowance, "allowance")

	slip, err = env.Payroll.SaveSlip(env.Ctx, slip.ID, payroll.SlipInput{
		BudgetID: budgetID, StaffID: stf.ID, Month: month, BasicSalary: core.M(700_000),
	})
	require.NoError(t, err)
	moneyEqual(t, 700_000, slip.BasicSalary, "basic replaced")
}

func TestSaveSlip_errors(t *testing.T) {
	env, stf, budgetID := setup(t)
	march := testutil.Date(2025, time.March, 1)
	_, err := env.Payroll.SaveSlip(env.Ctx, 0, payroll.SlipInput{BudgetID: budgetID, StaffID: stf.ID, Month: march})
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       payroll.SlipInput
		wantErr  error
		wantKind core.Kind
	}{
		{
			name:     "duplicate month",
			in:       payroll.SlipInput{BudgetID: budgetID, StaffID: stf.ID, Month: march.AddDate(0, 0, 14)},
			wantErr:  payroll.ErrDuplicateSlip,
			wantKind: core.KindInvariant,
		},
		{
			name:     "negative PAYE",
			in:       payroll.SlipInput{BudgetID: budgetID, StaffID: stf.ID, Month: march.AddDate(0, 1, 0), PAYE: core.M(-1)},
			wantErr:  payroll.ErrNegativePaye,
			wantKind: core.KindValidation,
		},
		{
			name:     "missing budget",
			in:       payroll.SlipInput{StaffID: stf.ID, Month: march.AddDate(0, 1, 0)},
			wantErr:  payroll.ErrMissingBudget,
			wantKind: core.KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Payroll.SaveSlip(env.Ctx, 0, tt.in)
			testutil.CheckErr(t, "SaveSlip", err, tt.wantErr)
			assert.Equal(t, tt.wantKind, core.KindOf(err))
		})
	}

	slips, err := env.Payroll.ListSlips(env.Ctx, payroll.SlipFilter{StaffID: stf.ID})
	require.NoError(t, err)
	assert.Len(t, slips, 1)
}

func TestDeductions(t *testing.T) {
	env, stf, budgetID := setup(t)
	slip, err := env.Payroll.SaveSlip(env.Ctx, 0, payroll.SlipInput{
		BudgetID: budgetID, StaffID: stf.ID, Month: testutil.Date(2025, time.April, 1),
		Allowance: core.M(50_000), PAYE: core.M(60_000),
	})
	require.NoError(t, err)

	ded, slip, err := env.Payroll.RecordDeduction(env.Ctx, slip.ID, payroll.DeductionInput{Reason: "Salary advance", Amount: core.M(40_000)})
	require.NoError(t, err)
	moneyEqual(t, 40_000, slip.ExtraDeductions, "extra")
	moneyEqual(t, 700_000, slip.NetSalary, "net")

	_, slip, err = env.Payroll.UpdateDeduction(env.Ctx, ded.ID, payroll.DeductionInput{Reason: "Salary advance", Amount: core.M(10_000)})
	require.NoError(t, err)
	moneyEqual(t, 730_000, slip.NetSalary, "net after update")

	slip, err = env.Payroll.DeleteDeduction(env.Ctx, ded.ID)
	require.NoError(t, err)
	moneyEqual(t, 0, slip.ExtraDeductions, "extra after delete")
	moneyEqual(t, 740_000, slip.NetSalary, "net after delete")

	slip, err = env.Payroll.UpsertDeductions(env.Ctx, slip.ID, []payroll.DeductionInput{
		{Reason: "Loan", Amount: core.M(20_000)},
		{Reason: "Welfare", Amount: core.M(5_000)},
	})
	require.NoError(t, err)
	require.Len(t, slip.Deductions, 2)
	moneyEqual(t, 715_000, slip.NetSalary, "net after upsert")

	sum, err := env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	moneyEqual(t, 715_000, sum.Used, "budget used")

	_, _, err = env.Payroll.RecordDeduction(env.Ctx, slip.ID, payroll.DeductionInput{Reason: "Bad", Amount: core.M(-5)})
	testutil.CheckErr(t, "RecordDeduction", err, payroll.ErrInvalidAmount)

	require.NoError(t, env.Payroll.DeleteSlip(env.Ctx, slip.ID))
	_, err = env.Payroll.GetSlip(env.Ctx, slip.ID)
	testutil.CheckErr(t, "GetSlip", err, payroll.ErrSlipNotFound)
	sum, err = env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, sum.Used.IsZero(), "used = %s", sum.Used)
}
