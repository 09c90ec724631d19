package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core/fees"
)

type feesRepository struct {
	repository
}

var _ fees.Repository = (*feesRepository)(nil) // interface compliance check

func NewFeesRepository(db *sqlx.DB) *feesRepository {
	return &feesRepository{repository{db: db}}
}

func (repo feesRepository) CreateTier(ctx context.Context, t fees.Tier) (fees.Tier, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO fee_tier (session_id, category, annual_amount, created_at)
		VALUES (:session_id, :category, :annual_amount, :created_at) RETURNING id`, t, fees.ErrTierExists)
	if err != nil {
		return fees.Tier{}, err
	}
	t.ID = id
	return t, nil
}

func (repo feesRepository) UpdateTier(ctx context.Context, t fees.Tier) (fees.Tier, error) {
	err := repo.update(ctx, `
		UPDATE fee_tier SET session_id = :session_id, category = :category, annual_amount = :annual_amount
		WHERE id = :id`, t, fees.ErrTierNotFound, fees.ErrTierExists)
	return t, err
}

func (repo feesRepository) DeleteTier(ctx context.Context, id int64) error {
	return repo.delete(ctx, "fee_tier", id, fees.ErrTierNotFound, fees.ErrTierInUse)
}

func (repo feesRepository) GetTier(ctx context.Context, id int64) (fees.Tier, error) {
	var t fees.Tier
	err := repo.get(ctx, &t, fees.ErrTierNotFound, `SELECT * FROM fee_tier WHERE id = $1`, id)
	return t, err
}

func (repo feesRepository) ListTiers(ctx context.Context, sessionID int64) ([]fees.Tier, error) {
	w := &where{}
	if sessionID != 0 {
		w.add("session_id = ?", sessionID)
	}
	tiers := []fees.Tier{}
	err := repo.list(ctx, &tiers, `SELECT * FROM fee_tier`+w.String()+` ORDER BY session_id, category`, w.args...)
	return tiers, err
}

func (repo feesRepository) CreateUniformType(ctx context.Context, ut fees.UniformType) (fees.UniformType, error) {
	id, err := repo.insert(ctx, `INSERT INTO uniform_type (name, price) VALUES (:name, :price) RETURNING id`, ut, fees.ErrUniformTypeExists)
	if err != nil {
		return fees.UniformType{}, err
	}
	ut.ID = id
	return ut, nil
}

func (repo feesRepository) UpdateUniformType(ctx context.Context, ut fees.UniformType) (fees.UniformType, error) {
	err := repo.update(ctx, `UPDATE uniform_type SET name = :name, price = :price WHERE id = :id`, ut, fees.ErrUniformTypeNotFound, fees.ErrUniformTypeExists)
	return ut, err
}

func (repo feesRepository) DeleteUniformType(ctx context.Context, id int64) error {
	return repo.delete(ctx, "uniform_type", id, fees.ErrUniformTypeNotFound, fees.ErrUniformTypeInUse)
}

func (repo feesRepository) GetUniformType(ctx context.Context, id int64) (fees.UniformType, error) {
	var ut fees.UniformType
	err := repo.get(ctx, &ut, fees.ErrUniformTypeNotFound, `SELECT * FROM uniform_type WHERE id = $1`, id)
	return ut, err
}

func (repo feesRepository) ListUniformTypes(ctx context.Context) ([]fees.UniformType, error) {
	types := []fees.UniformType{}
	err := repo.list(ctx, &types, `SELECT * FROM uniform_type ORDER BY name`)
	return types, err
}

func (repo feesRepository) CreateUniform(ctx context.Context, u fees.Uniform) (fees.Uniform, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO uniform (student_id, session_id, term_id, class_id, uniform_type_id, quantity, price, issued_at)
		VALUES (:student_id, :session_id, :term_id, :class_id, :uniform_type_id, :quantity, :price, :issued_at)
		RETURNING id`, u, nil)
	if err != nil {
		return fees.Uniform{}, err
	}
	u.ID = id
	return u, nil
}

func (repo feesRepository) DeleteUniform(ctx context.Context, id int64) error {
	return repo.delete(ctx, "uniform", id, fees.ErrUniformNotFound, nil)
}

func uniformWhere(filter fees.UniformFilter) *where {
	w := &where{}
	if filter.StudentID != 0 {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.SessionID != 0 {
		w.add("session_id = ?", filter.SessionID)
	}
	if filter.TermID != 0 {
		w.add("term_id = ?", filter.TermID)
	}
	return w
}

func (repo feesRepository) ListUniforms(ctx context.Context, filter fees.UniformFilter) ([]fees.Uniform, error) {
	w := uniformWhere(filter)
	uniforms := []fees.Uniform{}
	err := repo.list(ctx, &uniforms, `SELECT * FROM uniform`+w.String()+` ORDER BY id`, w.args...)
	return uniforms, err
}

func (repo feesRepository) UpsertStudentUniform(ctx context.Context, su fees.StudentUniform) (fees.StudentUniform, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO student_uniform (student_id, session_id, term_id, class_id, amount, updated_at)
		VALUES (:student_id, :session_id, :term_id, :class_id, :amount, :updated_at)
		ON CONFLICT (student_id, session_id, term_id, class_id)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
		RETURNING id`, su, nil)
	if err != nil {
		return fees.StudentUniform{}, err
	}
	su.ID = id
	return su, nil
}

func (repo feesRepository) ListStudentUniforms(ctx context.Context, filter fees.UniformFilter) ([]fees.StudentUniform, error) {
	w := uniformWhere(filter)
	rows := []fees.StudentUniform{}
	err := repo.list(ctx, &rows, `SELECT * FROM student_uniform`+w.String()+` ORDER BY id`, w.args...)
	return rows, err
}
