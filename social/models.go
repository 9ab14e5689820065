// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

// Package social stores users, posts, comments and likes, and applies the
// residence rules on registration and posting.
package social

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user, post or comment does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a user modifies content they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUsernameTaken is returned on registration with an existing username.
	ErrUsernameTaken = errors.New("a user with that username already exists")
	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("a user with that email already exists")
	// ErrInvalidInput wraps field-level input problems.
	ErrInvalidInput = errors.New("invalid input")
)

// User is a registered account with its declared residence.
type User struct {
	ID                  int64     `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	ResidencePrefecture string    `json:"residence_prefecture"`
	ResidenceCity       string    `json:"residence_city"`
	DateJoined          time.Time `json:"date_joined"`
	PasswordHash        string    `json:"-"`
}

// Author is the public view of a post's owner.
type Author struct {
	ID                  int64  `json:"id"`
	Username            string `json:"username"`
	ResidencePrefecture string `json:"residence_prefecture"`
	ResidenceCity       string `json:"residence_city"`
}

// Post is a location-bound post. City is derived once at creation time.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ImageURL  string    `json:"image,omitempty"`
	City      string    `json:"city"`
	Author    Author    `json:"user"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Cell      int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LikeCount int       `json:"like_count"`
	IsLiked   bool      `json:"is_liked"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post"`
	UserID    int64     `json:"-"`
	Username  string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LikeCount int       `json:"like_count"`
	IsLiked   bool      `json:"is_liked"`
}

// LikeStatus is the result of a like toggle.
type LikeStatus string

const (
	Liked   LikeStatus = "liked"
	Unliked LikeStatus = "unliked"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username            string
	Email               string
	Password            string
	ResidencePrefecture string
	ResidenceCity       string
}

// PostInput carries the fields of a new post. Coordinates are pointers so
// that a missing value is distinguishable from zero.
type PostInput struct {
	Title     string
	Body      string
	ImageURL  string
	Latitude  *float64
	Longitude *float64
}

// PostUpdate carries the editable fields of a post. Nil fields are left as is.
type PostUpdate struct {
	Title    *string
	Body     *string
	ImageURL *string
}
