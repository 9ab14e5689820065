// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"
)

// Repository handles persistence of the social graph in DuckDB.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repository over an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// DB returns the underlying database connection.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// CreateSchema creates the tables if they do not exist.
func (r *Repository) CreateSchema(ctx context.Context) error {
	// DuckDB has no ON DELETE CASCADE; deletes cascade in deletePost/DeleteComment.
	_, err := r.db.ExecContext(ctx, `
		CREATE SEQUENCE IF NOT EXISTS users_seq START 1;
		CREATE SEQUENCE IF NOT EXISTS posts_seq START 1;
		CREATE SEQUENCE IF NOT EXISTS comments_seq START 1;

		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_seq'),
			username VARCHAR NOT NULL UNIQUE,
			email VARCHAR NOT NULL UNIQUE,
			password_hash VARCHAR NOT NULL,
			residence_prefecture VARCHAR NOT NULL,
			residence_city VARCHAR NOT NULL,
			date_joined TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS posts (
			id BIGINT PRIMARY KEY DEFAULT nextval('posts_seq'),
			user_id BIGINT NOT NULL,
			title VARCHAR NOT NULL,
			body TEXT NOT NULL,
			image_url VARCHAR NOT NULL DEFAULT '',
			city VARCHAR NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			h3_cell BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS comments (
			id BIGINT PRIMARY KEY DEFAULT nextval('comments_seq'),
			post_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS post_likes (
			post_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (post_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS comment_likes (
			comment_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (comment_id, user_id)
		);
	`)

	return err
}

// Ping checks that the database answers a trivial query.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}

	if one != 1 {
		return fmt.Errorf("unexpected ping result %d", one)
	}

	return nil
}

// Users

// InsertUser stores u and assigns its ID.
func (r *Repository) InsertUser(ctx context.Context, u *User) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = r.now().UTC()
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, residence_prefecture, residence_city, date_joined)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.ResidencePrefecture, u.ResidenceCity, u.DateJoined).Scan(&u.ID)
}

// UsernameExists reports whether a user already has username.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT count(*) FROM users WHERE username = ?", username)
}

// EmailExists reports whether a user already has email. Comparison is case-insensitive.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT count(*) FROM users WHERE lower(email) = lower(?)", email)
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

const userSelect = `
	SELECT id, username, email, password_hash, residence_prefecture, residence_city, date_joined
	FROM users
`

// UserByID returns the user with id.
func (r *Repository) UserByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, userSelect+" WHERE id = ?", id))
}

// UserByLogin returns the user whose username or email equals login.
func (r *Repository) UserByLogin(ctx context.Context, login string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		userSelect+" WHERE username = ? OR lower(email) = lower(?) ORDER BY id LIMIT 1", login, login))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	u := &User{}

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.ResidencePrefecture, &u.ResidenceCity, &u.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return u, nil
}

// Posts

// InsertPost stores p and assigns its ID and timestamps.
func (r *Repository) InsertPost(ctx context.Context, p *Post) error {
	p.CreatedAt = r.now().UTC()
	p.UpdatedAt = p.CreatedAt

	return r.db.QueryRowContext(ctx, `
		INSERT INTO posts (user_id, title, body, image_url, city, latitude, longitude, h3_cell, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		p.Author.ID,
		p.Title,
		p.Body,
		p.ImageURL,
		p.City,
		p.Latitude,
		p.Longitude,
		p.Cell,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
}

// PostFilter narrows ListPosts. Zero values mean no filter.
type PostFilter struct {
	AuthorID int64
	Cells    []int64
}

// The first placeholder is always the viewer ID used for is_liked.
const postSelect = `
	SELECT p.id, p.title, p.body, p.image_url, p.city,
	       u.id, u.username, u.residence_prefecture, u.residence_city,
	       p.latitude, p.longitude, p.h3_cell, p.created_at, p.updated_at,
	       (SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
	       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = ?)
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

// PostByID returns the post with id as seen by viewerID (0 for anonymous).
func (r *Repository) PostByID(ctx context.Context, id, viewerID int64) (*Post, error) {
	posts, err := r.listPosts(ctx, postSelect+" WHERE p.id = ?", []any{viewerID, id})
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, ErrNotFound
	}

	return posts[0], nil
}

// ListPosts returns posts newest first.
func (r *Repository) ListPosts(ctx context.Context, filter PostFilter, viewerID int64) ([]*Post, error) {
	query := postSelect

	args := []any{viewerID}

	var where []string

	if filter.AuthorID != 0 {
		where = append(where, "p.user_id = ?")
		args = append(args, filter.AuthorID)
	}

	if len(filter.Cells) > 0 {
		where = append(where, "p.h3_cell IN ("+placeholders(len(filter.Cells))+")")
		for _, c := range filter.Cells {
			args = append(args, c)
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY p.created_at DESC, p.id DESC"

	return r.listPosts(ctx, query, args)
}

func (r *Repository) listPosts(ctx context.Context, query string, args []any) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post

	for rows.Next() {
		p := &Post{}

		err := rows.Scan(
			&p.ID, &p.Title, &p.Body, &p.ImageURL, &p.City,
			&p.Author.ID, &p.Author.Username, &p.Author.ResidencePrefecture, &p.Author.ResidenceCity,
			&p.Latitude, &p.Longitude, &p.Cell, &p.CreatedAt, &p.UpdatedAt,
			&p.LikeCount, &p.IsLiked,
		)
		if err != nil {
			return nil, err
		}

		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// UpdatePost writes the editable fields of p. City and coordinates are never rewritten.
func (r *Repository) UpdatePost(ctx context.Context, p *Post) error {
	p.UpdatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE posts SET title = ?, body = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Body, p.ImageURL, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}

	return expectRow(res)
}

// DeletePost removes a post with its comments and likes.
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)",
			"DELETE FROM comments WHERE post_id = ?",
			"DELETE FROM post_likes WHERE post_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
		if err != nil {
			return err
		}

		return expectRow(res)
	})
}

// Comments

// InsertComment stores c and assigns its ID and timestamps.
func (r *Repository) InsertComment(ctx context.Context, c *Comment) error {
	c.CreatedAt = r.now().UTC()
	c.UpdatedAt = c.CreatedAt

	return r.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, user_id, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, c.PostID, c.UserID, c.Text, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
}

const commentSelect = `
	SELECT c.id, c.post_id, u.id, u.username, c.text, c.created_at, c.updated_at,
	       (SELECT count(*) FROM comment_likes l WHERE l.comment_id = c.id),
	       EXISTS (SELECT 1 FROM comment_likes l WHERE l.comment_id = c.id AND l.user_id = ?)
	FROM comments c
	JOIN users u ON u.id = c.user_id
`

// CommentByID returns the comment with id as seen by viewerID.
func (r *Repository) CommentByID(ctx context.Context, id, viewerID int64) (*Comment, error) {
	comments, err := r.listComments(ctx, commentSelect+" WHERE c.id = ?", viewerID, id)
	if err != nil {
		return nil, err
	}

	if len(comments) == 0 {
		return nil, ErrNotFound
	}

	return comments[0], nil
}

// ListComments returns the comments of a post, newest first.
func (r *Repository) ListComments(ctx context.Context, postID, viewerID int64) ([]*Comment, error) {
	return r.listComments(ctx,
		commentSelect+" WHERE c.post_id = ? ORDER BY c.created_at DESC, c.id DESC", viewerID, postID)
}

func (r *Repository) listComments(ctx context.Context, query string, args ...any) ([]*Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment

	for rows.Next() {
		c := &Comment{}

		err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Text,
			&c.CreatedAt, &c.UpdatedAt, &c.LikeCount, &c.IsLiked)
		if err != nil {
			return nil, err
		}

		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// UpdateComment writes the text of c.
func (r *Repository) UpdateComment(ctx context.Context, c *Comment) error {
	c.UpdatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET text = ?, updated_at = ? WHERE id = ?", c.Text, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}

	return expectRow(res)
}

// DeleteComment removes a comment with its likes.
func (r *Repository) DeleteComment(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM comment_likes WHERE comment_id = ?", id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
		if err != nil {
			return err
		}

		return expectRow(res)
	})
}

// Likes

// TogglePostLike adds or removes userID's like on a post.
func (r *Repository) TogglePostLike(ctx context.Context, userID, postID int64) (LikeStatus, error) {
	return r.toggleLike(ctx, "post_likes", "post_id", userID, postID)
}

// ToggleCommentLike adds or removes userID's like on a comment.
func (r *Repository) ToggleCommentLike(ctx context.Context, userID, commentID int64) (LikeStatus, error) {
	return r.toggleLike(ctx, "comment_likes", "comment_id", userID, commentID)
}

// table and column are package constants, never user input.
func (r *Repository) toggleLike(ctx context.Context, table, column string, userID, targetID int64) (LikeStatus, error) {
	var (
		status    LikeStatus
		inserting bool
	)

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND user_id = ?", table, column), targetID, userID)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n > 0 {
			status = Unliked

			return nil
		}

		inserting = true

		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (%s, user_id, created_at) VALUES (?, ?, ?)", table, column),
			targetID, userID, r.now().UTC())
		if err != nil {
			return err
		}

		status = Liked

		return nil
	})
	if isConflict(err) {
		// A concurrent toggle by the same user got there first and left the
		// like in the state this one was heading for.
		if inserting {
			return Liked, nil
		}

		return Unliked, nil
	}

	return status, err
}

// isConflict reports whether err is a key violation or a write-write conflict
// between transactions.
func isConflict(err error) bool {
	var dbErr *duckdb.Error
	if !errors.As(err, &dbErr) {
		return false
	}

	return dbErr.Type == duckdb.ErrorTypeConstraint || dbErr.Type == duckdb.ErrorTypeTransaction
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rErr)
		}

		return err
	}

	return tx.Commit()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
