// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jcodagnone/jimoto/auth"
	"github.com/jcodagnone/jimoto/residence"
	"github.com/jcodagnone/jimoto/spatial"
	"github.com/jcodagnone/jimoto/utils/textutils"
)

// Service applies the business rules on top of the repository.
type Service struct {
	repo      *Repository
	validator *residence.Validator
	mode      residence.Mode
}

// NewService wires the repository with the residence validator running in mode.
func NewService(repo *Repository, validator *residence.Validator, mode residence.Mode) *Service {
	return &Service{repo: repo, validator: validator, mode: mode}
}

// Mode returns the residence validation mode.
func (s *Service) Mode() residence.Mode {
	return s.mode
}

// Repository returns the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Register creates an account after checking the declared residence exists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ResidencePrefecture = strings.TrimSpace(in.ResidencePrefecture)
	in.ResidenceCity = strings.TrimSpace(in.ResidenceCity)

	switch {
	case in.Username == "":
		return nil, invalid("username is required")
	case in.Email == "":
		return nil, invalid("email is required")
	case in.Password == "":
		return nil, invalid("password is required")
	case in.ResidencePrefecture == "":
		return nil, invalid("residence_prefecture is required")
	case in.ResidenceCity == "":
		return nil, invalid("residence_city is required")
	}

	taken, err := s.repo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	if taken {
		return nil, ErrEmailTaken
	}

	if err := s.validator.ValidateRegistration(ctx, in.ResidencePrefecture, in.ResidenceCity, s.mode); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:            in.Username,
		Email:               in.Email,
		ResidencePrefecture: in.ResidencePrefecture,
		ResidenceCity:       in.ResidenceCity,
		PasswordHash:        hash,
	}

	if err := s.repo.InsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return u, nil
}

// Authenticate checks a username or email against the stored password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, invalid("username or email and password are required")
	}

	u, err := s.repo.UserByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}

	return u, nil
}

// User returns the account with id.
func (s *Service) User(ctx context.Context, id int64) (*User, error) {
	return s.repo.UserByID(ctx, id)
}

// CreatePost stores a post after checking its location is inside the
// author's residence city.
func (s *Service) CreatePost(ctx context.Context, userID int64, in PostInput) (*Post, error) {
	title := textutils.StripHTML(in.Title)
	body := textutils.StripHTML(in.Body)

	if title == "" {
		return nil, invalid("title is required")
	}

	if body == "" {
		return nil, invalid("body is required")
	}

	author, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Latitude != nil && in.Longitude != nil {
		if err := (spatial.Point{Lat: *in.Latitude, Lng: *in.Longitude}).Validate(); err != nil {
			return nil, invalid("%v", err)
		}
	}

	city, err := s.validator.ValidatePostLocation(ctx, in.Latitude, in.Longitude, author.ResidenceCity, s.mode)
	if err != nil {
		return nil, err
	}

	point := spatial.Point{Lat: *in.Latitude, Lng: *in.Longitude}

	cell, err := point.Cell()
	if err != nil {
		return nil, invalid("%v", err)
	}

	p := &Post{
		Title:    title,
		Body:     body,
		ImageURL: strings.TrimSpace(in.ImageURL),
		City:     city,
		Author: Author{
			ID:                  author.ID,
			Username:            author.Username,
			ResidencePrefecture: author.ResidencePrefecture,
			ResidenceCity:       author.ResidenceCity,
		},
		Latitude:  point.Lat,
		Longitude: point.Lng,
		Cell:      cell,
	}

	if err := s.repo.InsertPost(ctx, p); err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}

	return p, nil
}

// ListPosts returns all posts newest first. A non-empty query keeps posts
// whose title, body or city contain it, ignoring case, accents and width.
func (s *Service) ListPosts(ctx context.Context, query string, viewerID int64) ([]*Post, error) {
	posts, err := s.repo.ListPosts(ctx, PostFilter{}, viewerID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return posts, nil
	}

	filtered := posts[:0]

	for _, p := range posts {
		if textutils.ContainsFolded(p.Title, query) ||
			textutils.ContainsFolded(p.Body, query) ||
			textutils.ContainsFolded(p.City, query) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

// MyPosts returns the posts of userID newest first.
func (s *Service) MyPosts(ctx context.Context, userID int64) ([]*Post, error) {
	return s.repo.ListPosts(ctx, PostFilter{AuthorID: userID}, userID)
}

// NearbyPosts returns posts in the H3 cell of (lat, lng) and its direct
// neighbours, closest first.
func (s *Service) NearbyPosts(ctx context.Context, lat, lng float64, viewerID int64) ([]*Post, error) {
	origin := spatial.Point{Lat: lat, Lng: lng}
	if err := origin.Validate(); err != nil {
		return nil, invalid("%v", err)
	}

	cells, err := origin.Neighborhood(1)
	if err != nil {
		return nil, invalid("%v", err)
	}

	posts, err := s.repo.ListPosts(ctx, PostFilter{Cells: cells}, viewerID)
	if err != nil {
		return nil, err
	}

	distance := func(p *Post) float64 {
		return origin.HaversineDistance(&spatial.Point{Lat: p.Latitude, Lng: p.Longitude})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return distance(posts[i]) < distance(posts[j])
	})

	return posts, nil
}

// Post returns a single post.
func (s *Service) Post(ctx context.Context, id, viewerID int64) (*Post, error) {
	return s.repo.PostByID(ctx, id, viewerID)
}

// UpdatePost edits title, body or image of a post owned by userID.
func (s *Service) UpdatePost(ctx context.Context, userID, postID int64, upd PostUpdate) (*Post, error) {
	p, err := s.repo.PostByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if p.Author.ID != userID {
		return nil, ErrForbidden
	}

	if upd.Title != nil {
		if p.Title = textutils.StripHTML(*upd.Title); p.Title == "" {
			return nil, invalid("title must not be empty")
		}
	}

	if upd.Body != nil {
		if p.Body = textutils.StripHTML(*upd.Body); p.Body == "" {
			return nil, invalid("body must not be empty")
		}
	}

	if upd.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*upd.ImageURL)
	}

	if err := s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// DeletePost removes a post owned by userID.
func (s *Service) DeletePost(ctx context.Context, userID, postID int64) error {
	p, err := s.repo.PostByID(ctx, postID, userID)
	if err != nil {
		return err
	}

	if p.Author.ID != userID {
		return ErrForbidden
	}

	return s.repo.DeletePost(ctx, postID)
}

// Comments returns the comments of an existing post.
func (s *Service) Comments(ctx context.Context, postID, viewerID int64) ([]*Comment, error) {
	if _, err := s.repo.PostByID(ctx, postID, viewerID); err != nil {
		return nil, err
	}

	return s.repo.ListComments(ctx, postID, viewerID)
}

// AddComment adds a comment by userID to a post.
func (s *Service) AddComment(ctx context.Context, userID, postID int64, text string) (*Comment, error) {
	text = textutils.StripHTML(text)
	if text == "" {
		return nil, invalid("text is required")
	}

	if _, err := s.repo.PostByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	c := &Comment{PostID: postID, UserID: userID, Username: u.Username, Text: text}
	if err := s.repo.InsertComment(ctx, c); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	return c, nil
}

// Comment returns a single comment.
func (s *Service) Comment(ctx context.Context, id, viewerID int64) (*Comment, error) {
	return s.repo.CommentByID(ctx, id, viewerID)
}

// UpdateComment edits a comment owned by userID.
func (s *Service) UpdateComment(ctx context.Context, userID, commentID int64, text string) (*Comment, error) {
	c, err := s.repo.CommentByID(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}

	if c.UserID != userID {
		return nil, ErrForbidden
	}

	if c.Text = textutils.StripHTML(text); c.Text == "" {
		return nil, invalid("text is required")
	}

	if err := s.repo.UpdateComment(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// DeleteComment removes a comment owned by userID.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID int64) error {
	c, err := s.repo.CommentByID(ctx, commentID, userID)
	if err != nil {
		return err
	}

	if c.UserID != userID {
		return ErrForbidden
	}

	return s.repo.DeleteComment(ctx, commentID)
}

// TogglePostLike likes or unlikes an existing post.
func (s *Service) TogglePostLike(ctx context.Context, userID, postID int64) (LikeStatus, error) {
	if _, err := s.repo.PostByID(ctx, postID, userID); err != nil {
		return "", err
	}

	status, err := s.repo.TogglePostLike(ctx, userID, postID)
	if err != nil {
		return "", fmt.Errorf("toggling post like: %w", err)
	}

	return status, nil
}

// ToggleCommentLike likes or unlikes an existing comment.
func (s *Service) ToggleCommentLike(ctx context.Context, userID, commentID int64) (LikeStatus, error) {
	if _, err := s.repo.CommentByID(ctx, commentID, userID); err != nil {
		return "", err
	}

	status, err := s.repo.ToggleCommentLike(ctx, userID, commentID)
	if err != nil {
		return "", fmt.Errorf("toggling comment like: %w", err)
	}

	return status, nil
}

// Finding is an audit result for a stored post.
type Finding struct {
	Post *Post
	Err  error
}

// Audit re-runs the locality check of every stored post against its
// author's current residence and returns the posts that no longer pass.
// progress, if not nil, is called after each post.
func (s *Service) Audit(ctx context.Context, progress func(done, total int)) ([]Finding, error) {
	if s.mode == residence.ModeBypass {
		log.Printf("⚠️ Geocoding is bypassed, audit would accept every post")
	}

	if err := s.validator.Ready(s.mode); err != nil {
		return nil, err
	}

	posts, err := s.repo.ListPosts(ctx, PostFilter{}, 0)
	if err != nil {
		return nil, err
	}

	var findings []Finding

	for i, p := range posts {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		lat, lng := p.Latitude, p.Longitude

		_, err := s.validator.ValidatePostLocation(ctx, &lat, &lng, p.Author.ResidenceCity, s.mode)
		if err != nil {
			findings = append(findings, Finding{Post: p, Err: err})
		}

		if progress != nil {
			progress(i+1, len(posts))
		}
	}

	return findings, nil
}
