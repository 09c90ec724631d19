package inmemdb

import (
	"context"
	"sort"

	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
)

type feesRepository struct {
	db *DB
}

var _ fees.Repository = (*feesRepository)(nil) // interface compliance check

func NewFeesRepository(db *DB) *feesRepository {
	return &feesRepository{db: db}
}

func (t *tables) tierTaken(tr fees.Tier) bool {
	return t.tiers.exists(func(o fees.Tier) bool {
		return o.ID != tr.ID && o.SessionID == tr.SessionID && o.Category == tr.Category
	})
}

func (repo feesRepository) CreateTier(ctx context.Context, tr fees.Tier) (fees.Tier, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.tierTaken(tr) {
		return fees.Tier{}, fees.ErrTierExists
	}
	tr.ID = t.tiers.nextID()
	t.tiers.put(tr.ID, tr)
	return tr, nil
}

func (repo feesRepository) UpdateTier(ctx context.Context, tr fees.Tier) (fees.Tier, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.tiers.has(tr.ID) {
		return fees.Tier{}, fees.ErrTierNotFound
	}
	if t.tierTaken(tr) {
		return fees.Tier{}, fees.ErrTierExists
	}
	t.tiers.put(tr.ID, tr)
	return tr, nil
}

func (repo feesRepository) DeleteTier(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.tiers.has(id) {
		return fees.ErrTierNotFound
	}
	if t.invoices.exists(func(inv ledger.Invoice) bool { return inv.TierID == id }) {
		return fees.ErrTierInUse
	}
	t.tiers.remove(id)
	return nil
}

func (repo feesRepository) GetTier(ctx context.Context, id int64) (fees.Tier, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if tr, ok := t.tiers.get(id); ok {
		return tr, nil
	}
	return fees.Tier{}, fees.ErrTierNotFound
}

func (repo feesRepository) ListTiers(ctx context.Context, sessionID int64) ([]fees.Tier, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	tiers := t.tiers.filter(func(tr fees.Tier) bool { return sessionID == 0 || tr.SessionID == sessionID })
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].SessionID != tiers[j].SessionID {
			return tiers[i].SessionID < tiers[j].SessionID
		}
		return tiers[i].Category < tiers[j].Category
	})
	return tiers, nil
}

// Uniforms

func (t *tables) uniformTypeTaken(ut fees.UniformType) bool {
	return t.uniformTypes.exists(func(o fees.UniformType) bool { return o.ID != ut.ID && o.Name == ut.Name })
}

func (repo feesRepository) CreateUniformType(ctx context.Context, ut fees.UniformType) (fees.UniformType, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.uniformTypeTaken(ut) {
		return fees.UniformType{}, fees.ErrUniformTypeExists
	}
	ut.ID = t.uniformTypes.nextID()
	t.uniformTypes.put(ut.ID, ut)
	return ut, nil
}

func (repo feesRepository) UpdateUniformType(ctx context.Context, ut fees.UniformType) (fees.UniformType, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.uniformTypes.has(ut.ID) {
		return fees.UniformType{}, fees.ErrUniformTypeNotFound
	}
	if t.uniformTypeTaken(ut) {
		return fees.UniformType{}, fees.ErrUniformTypeExists
	}
	t.uniformTypes.put(ut.ID, ut)
	return ut, nil
}

func (repo feesRepository) DeleteUniformType(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.uniformTypes.has(id) {
		return fees.ErrUniformTypeNotFound
	}
	if t.uniforms.exists(func(u fees.Uniform) bool { return u.TypeID == id }) {
		return fees.ErrUniformTypeInUse
	}
	t.uniformTypes.remove(id)
	return nil
}

func (repo feesRepository) GetUniformType(ctx context.Context, id int64) (fees.UniformType, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if ut, ok := t.uniformTypes.get(id); ok {
		return ut, nil
	}
	return fees.UniformType{}, fees.ErrUniformTypeNotFound
}

func (repo feesRepository) ListUniformTypes(ctx context.Context) ([]fees.UniformType, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	types := t.uniformTypes.filter(nil)
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (repo feesRepository) CreateUniform(ctx context.Context, u fees.Uniform) (fees.Uniform, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	u.ID = t.uniforms.nextID()
	t.uniforms.put(u.ID, u)
	return u, nil
}

func (repo feesRepository) DeleteUniform(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.uniforms.has(id) {
		return fees.ErrUniformNotFound
	}
	t.uniforms.remove(id)
	return nil
}

func matchUniform(filter fees.UniformFilter, studentID, sessionID, termID int64) bool {
	return (filter.StudentID == 0 || filter.StudentID == studentID) &&
		(filter.SessionID == 0 || filter.SessionID == sessionID) &&
		(filter.TermID == 0 || filter.TermID == termID)
}

func (repo feesRepository) ListUniforms(ctx context.Context, filter fees.UniformFilter) ([]fees.Uniform, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.uniforms.filter(func(u fees.Uniform) bool {
		return matchUniform(filter, u.StudentID, u.SessionID, u.TermID)
	}), nil
}

func (repo feesRepository) UpsertStudentUniform(ctx context.Context, su fees.StudentUniform) (fees.StudentUniform, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	existing := t.studentUniforms.filter(func(o fees.StudentUniform) bool {
		return o.StudentID == su.StudentID && o.SessionID == su.SessionID && o.TermID == su.TermID && o.ClassID == su.ClassID
	})
	if len(existing) > 0 {
		su.ID = existing[0].ID
	} else {
		su.ID = t.studentUniforms.nextID()
	}
	t.studentUniforms.put(su.ID, su)
	return su, nil
}

func (repo feesRepository) ListStudentUniforms(ctx context.Context, filter fees.UniformFilter) ([]fees.StudentUniform, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.studentUniforms.filter(func(u fees.StudentUniform) bool {
		return matchUniform(filter, u.StudentID, u.SessionID, u.TermID)
	}), nil
}
