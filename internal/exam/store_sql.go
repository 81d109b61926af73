package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// SQLStore persists the bank and results through database/sql. Queries use $n
// placeholders, which both the sqlite and pgx drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *SQLStore) PutQuestions(ctx context.Context, qs ...Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := time.Now().Unix()
	for _, q := range qs {
		if err := Validate(q); err != nil {
			return err
		}
		buf, err := json.Marshal(q)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions (id,subject,chapter,difficulty,question_number,data_json,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET subject=EXCLUDED.subject, chapter=EXCLUDED.chapter, difficulty=EXCLUDED.difficulty,
				question_number=EXCLUDED.question_number, data_json=EXCLUDED.data_json, updated_at=EXCLUDED.updated_at`,
			q.ID, q.Subject, q.Chapter, string(q.Difficulty), q.QuestionNumber, string(buf), now)
		if err != nil {
			return fmt.Errorf("put question %s: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data_json FROM questions WHERE id=$1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) Query(ctx context.Context, f Filter) ([]Question, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	in := func(col string, vals []string) {
		ph := make([]string, len(vals))
		for i, v := range vals {
			ph[i] = arg(v)
		}
		where = append(where, col+" IN ("+strings.Join(ph, ",")+")")
	}
	if len(f.IDs) > 0 {
		in("id", f.IDs)
	} else {
		if f.Subject != "" {
			where = append(where, "subject="+arg(f.Subject))
		}
		if f.Difficulty != "" {
			where = append(where, "difficulty="+arg(string(f.Difficulty)))
		}
		if len(f.Chapters) > 0 {
			in("chapter", f.Chapters)
		}
	}
	q := `SELECT data_json FROM questions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY subject, question_number, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Question, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var qq Question
		if err := json.Unmarshal([]byte(data), &qq); err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(f.IDs) > 0 {
		out = inIDOrder(out, f.IDs)
	}
	if f.Shuffle {
		s.mu.Lock()
		s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		s.mu.Unlock()
	}
	return page(out, 0, f.Limit), nil
}

// inIDOrder reorders qs to follow ids, the order a retry request asked for.
func inIDOrder(qs []Question, ids []string) []Question {
	byID := make(map[string]Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]Question, 0, len(qs))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
			delete(byID, id)
		}
	}
	return out
}

func (s *SQLStore) AppendResult(ctx context.Context, r Result) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(r.Scored)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results (id,user_id,subject,answers_json,result_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.UserID, r.Subject, string(aj), string(rj), r.SubmittedAt.UnixMilli())
	return err
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]Result, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.Subject != "" {
		args = append(args, opts.Subject)
		where = append(where, fmt.Sprintf("subject=$%d", len(args)))
	}
	q := `SELECT id,user_id,subject,answers_json,result_json,submitted_at FROM results`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY submitted_at DESC, id DESC"
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			q += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	} else if opts.Offset > 0 {
		// sqlite requires LIMIT before OFFSET; -1 is unbounded there, ALL in postgres
		if s.driver == "postgres" {
			q += fmt.Sprintf(" LIMIT ALL OFFSET %d", opts.Offset)
		} else {
			q += fmt.Sprintf(" LIMIT -1 OFFSET %d", opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Result, 0)
	for rows.Next() {
		var (
			r      Result
			aj, rj string
			at     int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Subject, &aj, &rj, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rj), &r.Scored); err != nil {
			return nil, err
		}
		r.SubmittedAt = time.UnixMilli(at).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
