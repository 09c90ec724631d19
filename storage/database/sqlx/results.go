package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core/results"
)

type resultsRepository struct {
	repository
}

var _ results.Repository = (*resultsRepository)(nil) // interface compliance check

func NewResultsRepository(db *sqlx.DB) *resultsRepository {
	return &resultsRepository{repository{db: db}}
}

func (repo resultsRepository) UpsertResult(ctx context.Context, r results.Result) (results.Result, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO result (
			student_id, session_id, term_id, exam_id, class_id, subject_id, test_score, exam_score, average, total,
			grade, status, gpa, updated_at
		) VALUES (
			:student_id, :session_id, :term_id, :exam_id, :class_id, :subject_id, :test_score, :exam_score,
			:average, :total, :grade, :status, :gpa, :updated_at
		)
		ON CONFLICT (student_id, session_id, term_id, exam_id, subject_id) DO UPDATE SET
			class_id = EXCLUDED.class_id, test_score = EXCLUDED.test_score, exam_score = EXCLUDED.exam_score,
			average = EXCLUDED.average, total = EXCLUDED.total, grade = EXCLUDED.grade, status = EXCLUDED.status,
			gpa = EXCLUDED.gpa, updated_at = EXCLUDED.updated_at
		RETURNING id`, r, nil)
	if err != nil {
		return results.Result{}, err
	}
	r.ID = id
	return r, nil
}

func (repo resultsRepository) DeleteResult(ctx context.Context, id int64) error {
	return repo.delete(ctx, "result", id, results.ErrResultNotFound, nil)
}

func (repo resultsRepository) GetResult(ctx context.Context, id int64) (results.Result, error) {
	var r results.Result
	err := repo.get(ctx, &r, results.ErrResultNotFound, `SELECT * FROM result WHERE id = $1`, id)
	return r, err
}

func (repo resultsRepository) ListResults(ctx context.Context, filter results.Filter) ([]results.Result, error) {
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
	if filter.ExamID != 0 {
		w.add("exam_id = ?", filter.ExamID)
	}
	if filter.ClassID != 0 {
		w.add("class_id = ?", filter.ClassID)
	}
	if filter.SubjectID != 0 {
		w.add("subject_id = ?", filter.SubjectID)
	}
	rows := []results.Result{}
	err := repo.list(ctx, &rows, `SELECT * FROM result`+w.String()+` ORDER BY student_id, subject_id`, w.args...)
	return rows, err
}

func (repo resultsRepository) UpsertInfos(ctx context.Context, in results.Infos) (results.Infos, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO student_infos (
			student_id, session_id, term_id, exam_id, cooperation_with_peers, honesty, hygiene,
			willingness_to_work, respect, collaboration_in_work, love_for_work, behavior_improvement, effort,
			date_of_opening, date_of_closing, head_comments, updated_at
		) VALUES (
			:student_id, :session_id, :term_id, :exam_id, :cooperation_with_peers, :honesty, :hygiene,
			:willingness_to_work, :respect, :collaboration_in_work, :love_for_work, :behavior_improvement, :effort,
			:date_of_opening, :date_of_closing, :head_comments, :updated_at
		)
		ON CONFLICT (student_id, session_id, term_id, exam_id) DO UPDATE SET
			cooperation_with_peers = EXCLUDED.cooperation_with_peers, honesty = EXCLUDED.honesty,
			hygiene = EXCLUDED.hygiene, willingness_to_work = EXCLUDED.willingness_to_work,
			respect = EXCLUDED.respect, collaboration_in_work = EXCLUDED.collaboration_in_work,
			love_for_work = EXCLUDED.love_for_work, behavior_improvement = EXCLUDED.behavior_improvement,
			effort = EXCLUDED.effort, date_of_opening = EXCLUDED.date_of_opening,
			date_of_closing = EXCLUDED.date_of_closing, head_comments = EXCLUDED.head_comments,
			updated_at = EXCLUDED.updated_at
		RETURNING id`, in, nil)
	if err != nil {
		return results.Infos{}, err
	}
	in.ID = id
	return in, nil
}

func (repo resultsRepository) GetInfos(ctx context.Context, studentID, sessionID, termID, examID int64) (results.Infos, error) {
	var in results.Infos
	err := repo.get(ctx, &in, results.ErrInfosNotFound, `
		SELECT * FROM student_infos WHERE student_id = $1 AND session_id = $2 AND term_id = $3 AND exam_id = $4`,
		studentID, sessionID, termID, examID)
	return in, err
}
