package inmemdb

import (
	"context"
	"sort"

	"github.com/kizito-simon15/montessori-sub000/core/results"
)

type resultsRepository struct {
	db *DB
}

var _ results.Repository = (*resultsRepository)(nil) // interface compliance check

func NewResultsRepository(db *DB) *resultsRepository {
	return &resultsRepository{db: db}
}

func (repo resultsRepository) UpsertResult(ctx context.Context, r results.Result) (results.Result, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	existing := t.results.filter(func(o results.Result) bool {
		return o.StudentID == r.StudentID && o.SessionID == r.SessionID && o.TermID == r.TermID &&
			o.ExamID == r.ExamID && o.SubjectID == r.SubjectID
	})
	if len(existing) > 0 {
		r.ID = existing[0].ID
	} else {
		r.ID = t.results.nextID()
	}
	t.results.put(r.ID, r)
	return r, nil
}

func (repo resultsRepository) DeleteResult(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.results.has(id) {
		return results.ErrResultNotFound
	}
	t.results.remove(id)
	return nil
}

func (repo resultsRepository) GetResult(ctx context.Context, id int64) (results.Result, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if r, ok := t.results.get(id); ok {
		return r, nil
	}
	return results.Result{}, results.ErrResultNotFound
}

func (repo resultsRepository) ListResults(ctx context.Context, filter results.Filter) ([]results.Result, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.results.filter(func(r results.Result) bool {
		switch {
		case filter.StudentID != 0 && r.StudentID != filter.StudentID:
			return false
		case filter.SessionID != 0 && r.SessionID != filter.SessionID:
			return false
		case filter.TermID != 0 && r.TermID != filter.TermID:
			return false
		case filter.ExamID != 0 && r.ExamID != filter.ExamID:
			return false
		case filter.ClassID != 0 && r.ClassID != filter.ClassID:
			return false
		case filter.SubjectID != 0 && r.SubjectID != filter.SubjectID:
			return false
		}
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StudentID != rows[j].StudentID {
			return rows[i].StudentID < rows[j].StudentID
		}
		return rows[i].SubjectID < rows[j].SubjectID
	})
	return rows, nil
}

func (repo resultsRepository) UpsertInfos(ctx context.Context, in results.Infos) (results.Infos, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	existing := t.infos.filter(func(o results.Infos) bool {
		return o.StudentID == in.StudentID && o.SessionID == in.SessionID && o.TermID == in.TermID && o.ExamID == in.ExamID
	})
	if len(existing) > 0 {
		in.ID = existing[0].ID
	} else {
		in.ID = t.infos.nextID()
	}
	t.infos.put(in.ID, in)
	return in, nil
}

func (repo resultsRepository) GetInfos(ctx context.Context, studentID, sessionID, termID, examID int64) (results.Infos, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	found := t.infos.filter(func(o results.Infos) bool {
		return o.StudentID == studentID && o.SessionID == sessionID && o.TermID == termID && o.ExamID == examID
	})
	if len(found) == 0 {
		return results.Infos{}, results.ErrInfosNotFound
	}
	return found[0], nil
}
