package fees_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func TestTier_InstallmentAmount(t *testing.T) {
	tier := fees.Tier{AnnualAmount: 1_000_000}
	tests := []struct {
		installments int
		want         int64
	}{
		{0, 1_000_000},
		{1, 1_000_000},
		{3, 333_333},
		{4, 250_000},
	}
	for _, tt := range tests {
		if got := tier.InstallmentAmount(tt.installments); got != tt.want {
			t.Errorf("InstallmentAmount(%d) = %d, want %d", tt.installments, got, tt.want)
		}
	}
}

func TestTiers(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.Freeze(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	session := env.Current(t, school.KindSession, "2025")
	term := env.Period(t, school.KindTerm, "Term 1")

	tier := env.Tier(t, session.ID, school.CategoryBoarding, 1_200_000)

	tests := []struct {
		name    string
		in      fees.TierInput
		wantErr error
	}{
		{"same session and category", fees.TierInput{SessionID: session.ID, Category: "Boarding", AnnualAmount: 1}, fees.ErrTierExists},
		{"not a session", fees.TierInput{SessionID: term.ID, Category: school.CategoryDayBus, AnnualAmount: 1}, school.ErrWrongKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Fees.CreateTier(env.Ctx, tt.in)
			testutil.CheckErr(t, "CreateTier", err, tt.wantErr)
		})
	}
	_, err := env.Fees.CreateTier(env.Ctx, fees.TierInput{SessionID: session.ID, Category: "weekly", AnnualAmount: 1})
	assert.Equal(t, core.KindValidation, core.KindOf(err), "CreateTier() error = %v", err)

	for _, name := range []string{"1st", "2nd", "3rd"} {
		env.Period(t, school.KindInstallment, name)
	}
	amount, err := env.Fees.InstallmentAmount(env.Ctx, tier)
	require.NoError(t, err)
	assert.Equal(t, int64(400_000), amount)

	tier, err = env.Fees.UpdateTier(env.Ctx, tier.ID, fees.TierInput{SessionID: session.ID, Category: school.CategoryBoarding, AnnualAmount: 1_500_000})
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), tier.AnnualAmount)

	std := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", 0)
	inst, err := env.School.ListPeriods(env.Ctx, school.KindInstallment)
	require.NoError(t, err)
	env.Invoice(t, std.ID, session.ID, inst[0].ID, tier.ID, 0)

	err = env.Fees.DeleteTier(env.Ctx, tier.ID)
	testutil.CheckErr(t, "DeleteTier", err, fees.ErrTierInUse)
	assert.Equal(t, core.KindInUse, core.KindOf(err))

	spare := env.Tier(t, session.ID, school.CategoryDayWalker, 600_000)
	require.NoError(t, env.Fees.DeleteTier(env.Ctx, spare.ID))
	_, err = env.Fees.GetTier(env.Ctx, spare.ID)
	testutil.CheckErr(t, "GetTier", err, fees.ErrTierNotFound)
}

func TestUniforms(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	term := env.Current(t, school.KindTerm, "Term 1")
	class := env.Class(t, "Standard 2")
	std := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", class.ID)

	shirt, err := env.Fees.CreateUniformType(env.Ctx, fees.UniformTypeInput{Name: " Shirt ", Price: core.M("12500.50")})
	require.NoError(t, err)
	assert.Equal(t, "Shirt", shirt.Name)
	_, err = env.Fees.CreateUniformType(env.Ctx, fees.UniformTypeInput{Name: "Shirt", Price: core.M(1)})
	testutil.CheckErr(t, "CreateUniformType", err, fees.ErrUniformTypeExists)

	issue := fees.IssueInput{StudentID: std.ID, SessionID: session.ID, TermID: term.ID, ClassID: class.ID, TypeID: shirt.ID, Quantity: 3}
	u, err := env.Fees.IssueUniform(env.Ctx, issue)
	require.NoError(t, err)
	assert.True(t, core.M("37501.50").Equal(u.Price), "price = %s", u.Price)

	// the issued price is a snapshot
	_, err = env.Fees.UpdateUniformType(env.Ctx, shirt.ID, fees.UniformTypeInput{Name: "Shirt", Price: core.M(20_000)})
	require.NoError(t, err)
	issue.Quantity = 1
	_, err = env.Fees.IssueUniform(env.Ctx, issue)
	require.NoError(t, err)

	_, err = env.Fees.RecordUniformPayment(env.Ctx, fees.PaymentInput{
		StudentID: std.ID, SessionID: session.ID, TermID: term.ID, ClassID: class.ID, Amount: core.M(30_000),
	})
	require.NoError(t, err)
	// a second payment replaces the recorded amount
	_, err = env.Fees.RecordUniformPayment(env.Ctx, fees.PaymentInput{
		StudentID: std.ID, SessionID: session.ID, TermID: term.ID, ClassID: class.ID, Amount: core.M(50_000),
	})
	require.NoError(t, err)

	bal, err := env.Fees.UniformBalance(env.Ctx, std.ID, session.ID, term.ID)
	require.NoError(t, err)
	assert.True(t, core.M("57501.50").Equal(bal.Issued), "issued = %s", bal.Issued)
	assert.True(t, core.M(50_000).Equal(bal.Paid), "paid = %s", bal.Paid)
	assert.True(t, core.M("7501.50").Equal(bal.Balance), "balance = %s", bal.Balance)

	testutil.CheckErr(t, "DeleteUniformType", env.Fees.DeleteUniformType(env.Ctx, shirt.ID), fees.ErrUniformTypeInUse)

	issue.Quantity = 0
	_, err = env.Fees.IssueUniform(env.Ctx, issue)
	assert.Error(t, err)
}
