package database

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Post is a generated blog post.
type Post struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	Template  string    `json:"template,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StyleReferenceLimit is how many recent posts make up a user's style reference.
const StyleReferenceLimit = 30

const postColumns = `id, user_id, title, content, language, template, provider, fallback, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Language, &p.Template,
		&p.Provider, &p.Fallback, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPost stores a post and fills in its ID and timestamps.
func (db *DB) InsertPost(ctx context.Context, p *Post) error {
	return db.Pool.QueryRow(ctx, `
		INSERT INTO posts (user_id, title, content, language, template, provider, fallback)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.UserID, p.Title, p.Content, p.Language, p.Template, p.Provider, p.Fallback,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetPost returns one post owned by userID. Returns pgx.ErrNoRows if the post
// does not exist or belongs to someone else.
func (db *DB) GetPost(ctx context.Context, userID string, id int64) (*Post, error) {
	return scanPost(db.Pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 AND user_id = $2`, id, userID))
}

// ListPostsByUser returns a page of the user's posts, newest first, and the total count.
func (db *DB) ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]Post, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM posts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

// RecentPostContent joins the content of the user's most recent posts with
// blank lines, newest first. Returns "" for users without posts.
func (db *DB) RecentPostContent(ctx context.Context, userID string, limit int) (string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT content FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return "", err
	}
	contents, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", err
	}
	return strings.Join(contents, "\n\n"), nil
}
