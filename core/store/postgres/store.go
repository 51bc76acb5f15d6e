// Package postgres is the document store behind the dashboard and
// feedback surfaces: users, prepared interviews, and feedback documents.
//
// The call-session core never touches this store; it is read by the
// listing/feedback collaborators and written by the feedback service. The
// schema holds exactly the fields those surfaces pass through.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/voxprep/interview-core/core/feedback"
	"github.com/voxprep/interview-core/core/identity"
	"github.com/voxprep/interview-core/core/interviews"
	"github.com/voxprep/interview-core/core/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned for unknown interview or feedback ids. User
// lookups return identity.ErrUserNotFound so the identity service can
// treat its store opaquely.
var ErrNotFound = errors.New("document not found")

// Store bundles the per-document repositories over one connection pool.
type Store struct {
	pool *pgxpool.Pool

	Users      *UsersRepo
	Interviews *InterviewsRepo
	Feedback   *FeedbackRepo
}

// Open connects, runs pending migrations, and returns the store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := migrate(dsn); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{
		pool:       pool,
		Users:      &UsersRepo{pool: pool},
		Interviews: &InterviewsRepo{pool: pool},
		Feedback:   &FeedbackRepo{pool: pool},
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// UsersRepo stores account records; it satisfies identity.Users.
type UsersRepo struct {
	pool *pgxpool.Pool
}

var _ identity.Users = (*UsersRepo)(nil)

func (r *UsersRepo) Create(ctx context.Context, user identity.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, image_url) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Name, user.Email, user.ImageURL)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UsersRepo) Get(ctx context.Context, id string) (identity.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, name, email, image_url FROM users WHERE id = $1`, id))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (identity.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT id, name, email, image_url FROM users WHERE email = $1`, email))
}

func (r *UsersRepo) scanUser(row pgx.Row) (identity.User, error) {
	var user identity.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.ImageURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.User{}, identity.ErrUserNotFound
		}
		return identity.User{}, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

// InterviewsRepo stores prepared interviews.
type InterviewsRepo struct {
	pool *pgxpool.Pool
}

var _ store.Interviews = (*InterviewsRepo)(nil)

func (r *InterviewsRepo) Create(ctx context.Context, interview interviews.Interview) (string, error) {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interviews (id, user_id, role, type, level, techstack, questions, finalized, cover_image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		interview.ID, interview.UserID, interview.Role, interview.Type, interview.Level,
		interview.Techstack, interview.Questions, interview.Finalized, interview.CoverImage)
	if err != nil {
		return "", fmt.Errorf("inserting interview: %w", err)
	}
	return interview.ID, nil
}

func (r *InterviewsRepo) Get(ctx context.Context, id string) (interviews.Interview, error) {
	rows, err := r.pool.Query(ctx, interviewSelect+` WHERE id = $1`, id)
	if err != nil {
		return interviews.Interview{}, fmt.Errorf("querying interview: %w", err)
	}
	found, err := scanInterviews(rows)
	if err != nil {
		return interviews.Interview{}, err
	}
	if len(found) == 0 {
		return interviews.Interview{}, ErrNotFound
	}
	return found[0], nil
}

// ListByUser returns the user's own interviews, newest first.
func (r *InterviewsRepo) ListByUser(ctx context.Context, userID string) ([]interviews.Interview, error) {
	rows, err := r.pool.Query(ctx,
		interviewSelect+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying interviews: %w", err)
	}
	return scanInterviews(rows)
}

// ListLatest returns finalized interviews prepared by other users, newest
// first, for the "take an interview" surface.
func (r *InterviewsRepo) ListLatest(ctx context.Context, excludeUserID string, limit int) ([]interviews.Interview, error) {
	rows, err := r.pool.Query(ctx,
		interviewSelect+` WHERE finalized AND user_id <> $1 ORDER BY created_at DESC LIMIT $2`,
		excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interviews: %w", err)
	}
	return scanInterviews(rows)
}

const interviewSelect = `SELECT id, user_id, role, type, level, techstack, questions, finalized, cover_image, created_at FROM interviews`

func scanInterviews(rows pgx.Rows) ([]interviews.Interview, error) {
	defer rows.Close()

	var found []interviews.Interview
	for rows.Next() {
		var interview interviews.Interview
		if err := rows.Scan(
			&interview.ID, &interview.UserID, &interview.Role, &interview.Type, &interview.Level,
			&interview.Techstack, &interview.Questions, &interview.Finalized, &interview.CoverImage,
			&interview.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning interview: %w", err)
		}
		found = append(found, interview)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading interviews: %w", err)
	}
	return found, nil
}

// FeedbackRepo stores feedback documents, one per (interview, user) pair.
type FeedbackRepo struct {
	pool *pgxpool.Pool
}

var _ store.Feedback = (*FeedbackRepo)(nil)

// Upsert writes the feedback document. Re-taking an interview overwrites
// the existing document for the pair instead of duplicating it; the stored
// document id is returned either way.
func (r *FeedbackRepo) Upsert(ctx context.Context, doc feedback.Feedback) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	categoryScores, err := json.Marshal(doc.CategoryScores)
	if err != nil {
		return "", fmt.Errorf("marshalling category scores: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx,
		`INSERT INTO feedback (id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (interview_id, user_id) DO UPDATE SET
		   total_score = EXCLUDED.total_score,
		   category_scores = EXCLUDED.category_scores,
		   strengths = EXCLUDED.strengths,
		   areas_for_improvement = EXCLUDED.areas_for_improvement,
		   final_assessment = EXCLUDED.final_assessment,
		   created_at = now()
		 RETURNING id`,
		doc.ID, doc.InterviewID, doc.UserID, doc.TotalScore, categoryScores,
		doc.Strengths, doc.AreasForImprovement, doc.FinalAssessment,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting feedback: %w", err)
	}
	return id, nil
}

// GetByInterview returns the feedback one user received for one interview.
func (r *FeedbackRepo) GetByInterview(ctx context.Context, interviewID, userID string) (feedback.Feedback, error) {
	var (
		doc            feedback.Feedback
		categoryScores []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at
		 FROM feedback WHERE interview_id = $1 AND user_id = $2`,
		interviewID, userID,
	).Scan(
		&doc.ID, &doc.InterviewID, &doc.UserID, &doc.TotalScore, &categoryScores,
		&doc.Strengths, &doc.AreasForImprovement, &doc.FinalAssessment, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return feedback.Feedback{}, ErrNotFound
		}
		return feedback.Feedback{}, fmt.Errorf("querying feedback: %w", err)
	}

	if err := json.Unmarshal(categoryScores, &doc.CategoryScores); err != nil {
		return feedback.Feedback{}, fmt.Errorf("unmarshalling category scores: %w", err)
	}
	return doc, nil
}
