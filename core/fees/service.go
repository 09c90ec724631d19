package fees

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	Repository interface {
		CreateTier(ctx context.Context, t Tier) (Tier, error)
		UpdateTier(ctx context.Context, t Tier) (Tier, error)
		// DeleteTier returns ErrTierInUse while an invoice references the tier.
		DeleteTier(ctx context.Context, id int64) error
		GetTier(ctx context.Context, id int64) (Tier, error)
		ListTiers(ctx context.Context, sessionID int64) ([]Tier, error)

		CreateUniformType(ctx context.Context, ut UniformType) (UniformType, error)
		UpdateUniformType(ctx context.Context, ut UniformType) (UniformType, error)
		DeleteUniformType(ctx context.Context, id int64) error
		GetUniformType(ctx context.Context, id int64) (UniformType, error)
		ListUniformTypes(ctx context.Context) ([]UniformType, error)

		CreateUniform(ctx context.Context, u Uniform) (Uniform, error)
		DeleteUniform(ctx context.Context, id int64) error
		ListUniforms(ctx context.Context, filter UniformFilter) ([]Uniform, error)

		// UpsertStudentUniform inserts or replaces the row keyed on (student, session, term, class).
		UpsertStudentUniform(ctx context.Context, su StudentUniform) (StudentUniform, error)
		ListStudentUniforms(ctx context.Context, filter UniformFilter) ([]StudentUniform, error)
	}

	// Calendar resolves the reference data the catalog depends on.
	Calendar interface {
		GetPeriodOf(ctx context.Context, kind school.PeriodKind, id int64) (school.Period, error)
		CountPeriods(ctx context.Context, kind school.PeriodKind) (int, error)
		GetStudent(ctx context.Context, id int64) (school.Student, error)
		GetClass(ctx context.Context, id int64) (school.Class, error)
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		calendar Calendar
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, calendar Calendar, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, tx: tx, calendar: calendar, validate: validate, logger: logger}
}

func (svc *Service) CreateTier(ctx context.Context, in TierInput) (Tier, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Tier{}, err
	}
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindSession, in.SessionID); err != nil {
		return Tier{}, err
	}
	return svc.repo.CreateTier(ctx, Tier{
		SessionID:    in.SessionID,
		Category:     in.Category,
		AnnualAmount: in.AnnualAmount,
		CreatedAt:    core.NowFunc().UTC(),
	})
}

func (svc *Service) UpdateTier(ctx context.Context, id int64, in TierInput) (Tier, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Tier{}, err
	}
	var tier Tier
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if tier, err = svc.repo.GetTier(ctx, id); err != nil {
			return err
		}
		if _, err = svc.calendar.GetPeriodOf(ctx, school.KindSession, in.SessionID); err != nil {
			return err
		}
		tier.SessionID = in.SessionID
		tier.Category = in.Category
		tier.AnnualAmount = in.AnnualAmount
		tier, err = svc.repo.UpdateTier(ctx, tier)
		return err
	})
	return tier, err
}

func (svc *Service) DeleteTier(ctx context.Context, id int64) error {
	return svc.repo.DeleteTier(ctx, id)
}

func (svc *Service) GetTier(ctx context.Context, id int64) (Tier, error) {
	return svc.repo.GetTier(ctx, id)
}

func (svc *Service) ListTiers(ctx context.Context, sessionID int64) ([]Tier, error) {
	return svc.repo.ListTiers(ctx, sessionID)
}

// InstallmentAmount returns the tier's share per installment: annual // count(installments).
func (svc *Service) InstallmentAmount(ctx context.Context, tier Tier) (int64, error) {
	n, err := svc.calendar.CountPeriods(ctx, school.KindInstallment)
	if err != nil {
		return 0, err
	}
	return tier.InstallmentAmount(n), nil
}

// Uniforms

func (svc *Service) CreateUniformType(ctx context.Context, in UniformTypeInput) (UniformType, error) {
	if err := in.Validate(svc.validate); err != nil {
		return UniformType{}, err
	}
	return svc.repo.CreateUniformType(ctx, UniformType{Name: in.Name, Price: in.Price.R2()})
}

// UpdateUniformType changes the type; uniforms already issued keep their price snapshot.
func (svc *Service) UpdateUniformType(ctx context.Context, id int64, in UniformTypeInput) (UniformType, error) {
	if err := in.Validate(svc.validate); err != nil {
		return UniformType{}, err
	}
	return svc.repo.UpdateUniformType(ctx, UniformType{ID: id, Name: in.Name, Price: in.Price.R2()})
}

func (svc *Service) DeleteUniformType(ctx context.Context, id int64) error {
	return svc.repo.DeleteUniformType(ctx, id)
}

func (svc *Service) ListUniformTypes(ctx context.Context) ([]UniformType, error) {
	return svc.repo.ListUniformTypes(ctx)
}

func (svc *Service) checkStudentTerm(ctx context.Context, studentID, sessionID, termID, classID int64) error {
	if _, err := svc.calendar.GetStudent(ctx, studentID); err != nil {
		return err
	}
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindSession, sessionID); err != nil {
		return err
	}
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindTerm, termID); err != nil {
		return err
	}
	_, err := svc.calendar.GetClass(ctx, classID)
	return err
}

// IssueUniform hands uniforms to a student, snapshotting price = r2(type price × quantity).
func (svc *Service) IssueUniform(ctx context.Context, in IssueInput) (Uniform, error) {
	if err := svc.validate.Struct(in); err != nil {
		return Uniform{}, err
	}
	var u Uniform
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkStudentTerm(ctx, in.StudentID, in.SessionID, in.TermID, in.ClassID); err != nil {
			return err
		}
		typ, err := svc.repo.GetUniformType(ctx, in.TypeID)
		if err != nil {
			return err
		}
		u, err = svc.repo.CreateUniform(ctx, Uniform{
			StudentID: in.StudentID,
			SessionID: in.SessionID,
			TermID:    in.TermID,
			ClassID:   in.ClassID,
			TypeID:    typ.ID,
			Quantity:  in.Quantity,
			Price:     typ.Price.Mul(core.Q(in.Quantity)).R2(),
			IssuedAt:  core.NowFunc().UTC(),
		})
		return err
	})
	return u, err
}

func (svc *Service) DeleteUniform(ctx context.Context, id int64) error {
	return svc.repo.DeleteUniform(ctx, id)
}

func (svc *Service) ListUniforms(ctx context.Context, filter UniformFilter) ([]Uniform, error) {
	return svc.repo.ListUniforms(ctx, filter)
}

// RecordUniformPayment sets the amount paid for the (student, session, term, class) quadruple.
func (svc *Service) RecordUniformPayment(ctx context.Context, in PaymentInput) (StudentUniform, error) {
	if err := svc.validate.Struct(in); err != nil {
		return StudentUniform{}, err
	}
	var su StudentUniform
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkStudentTerm(ctx, in.StudentID, in.SessionID, in.TermID, in.ClassID); err != nil {
			return err
		}
		var err error
		su, err = svc.repo.UpsertStudentUniform(ctx, StudentUniform{
			StudentID: in.StudentID,
			SessionID: in.SessionID,
			TermID:    in.TermID,
			ClassID:   in.ClassID,
			Amount:    in.Amount.R2(),
			UpdatedAt: core.NowFunc().UTC(),
		})
		return err
	})
	return su, err
}

// UniformBalance returns Σ issued − Σ paid for the student. Zero session / term ids mean all.
func (svc *Service) UniformBalance(ctx context.Context, studentID, sessionID, termID int64) (UniformBalance, error) {
	filter := UniformFilter{StudentID: studentID, SessionID: sessionID, TermID: termID}
	issued, err := svc.repo.ListUniforms(ctx, filter)
	if err != nil {
		return UniformBalance{}, err
	}
	paid, err := svc.repo.ListStudentUniforms(ctx, filter)
	if err != nil {
		return UniformBalance{}, err
	}
	bal := UniformBalance{StudentID: studentID, Issued: core.M(0), Paid: core.M(0)}
	for _, u := range issued {
		bal.Issued = bal.Issued.Add(u.Price)
	}
	for _, p := range paid {
		bal.Paid = bal.Paid.Add(p.Amount)
	}
	bal.Balance = bal.Issued.Sub(bal.Paid).R2()
	return bal, nil
}
