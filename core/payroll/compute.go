package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// HELSBTerms is the loan board arrangement of a staff member. Rate is a fraction.
type HELSBTerms struct {
	HasHELSB bool
	Rate     decimal.Decimal
}

// Compute derives a slip's snapshots. Every figure is quantised to 2dp, half away from zero:
//
//	taxable_gross = basic + special
//	gross         = taxable_gross + allowance
//	net           = taxable_gross − (nssf + wcf + paye + helsb) − Σ deductions + allowance
func Compute(in Inputs, helsb HELSBTerms, deductions []Deduction, rates Rates) Snapshots {
	taxable := in.BasicSalary.Add(in.SpecialAllowance).R2()

	var s Snapshots
	s.TaxableGross = taxable
	s.NSSF = taxable.MulRate(rates.NSSF).R2()
	s.WCF = taxable.MulRate(rates.WCF).R2()
	s.HELSB = core.M(0)
	if helsb.HasHELSB {
		s.HELSB = taxable.MulRate(helsb.Rate).R2()
	}

	extra := core.M(0)
	for _, d := range deductions {
		extra = extra.Add(d.Amount)
	}
	s.ExtraDeductions = extra.R2()

	s.GrossSalary = taxable.Add(in.Allowance).R2()
	statutory := core.SumMoney(s.NSSF, s.WCF, in.PAYE, s.HELSB)
	s.NetSalary = taxable.Sub(statutory).Sub(s.ExtraDeductions).Add(in.Allowance).R2()
	s.TotalGiven = s.NetSalary
	return s
}
