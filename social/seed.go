// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version string      `json:"version"`
	Users   []*SeedUser `json:"users"`
	Posts   []*SeedPost `json:"posts"`
}

// SeedUser is a demo account.
type SeedUser struct {
	Username            string `json:"username"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	ResidencePrefecture string `json:"residence_prefecture"`
	ResidenceCity       string `json:"residence_city"`
}

// SeedPost is a demo post, owned by the seed user named Author.
type SeedPost struct {
	Author    string   `json:"author"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	ImageURL  string   `json:"image,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Comments  []string `json:"comments,omitempty"`
}

// ImportFromJSON loads users and posts through svc, so every record passes
// the same checks as the API.
func ImportFromJSON(ctx context.Context, svc *Service, filepath string) (users, posts int, err error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, 0, fmt.Errorf("parsing JSON: %w", err)
	}

	ids := make(map[string]int64, len(seed.Users))

	for _, su := range seed.Users {
		u, err := svc.Register(ctx, RegisterInput{
			Username:            su.Username,
			Email:               su.Email,
			Password:            su.Password,
			ResidencePrefecture: su.ResidencePrefecture,
			ResidenceCity:       su.ResidenceCity,
		})
		if err != nil {
			return users, posts, fmt.Errorf("registering %s: %w", su.Username, err)
		}

		ids[su.Username] = u.ID
		users++
	}

	for _, sp := range seed.Posts {
		authorID, ok := ids[sp.Author]
		if !ok {
			return users, posts, fmt.Errorf("post %q: unknown author %q", sp.Title, sp.Author)
		}

		lat, lng := sp.Latitude, sp.Longitude

		p, err := svc.CreatePost(ctx, authorID, PostInput{
			Title:     sp.Title,
			Body:      sp.Body,
			ImageURL:  sp.ImageURL,
			Latitude:  &lat,
			Longitude: &lng,
		})
		if err != nil {
			return users, posts, fmt.Errorf("creating post %q: %w", sp.Title, err)
		}

		for _, text := range sp.Comments {
			if _, err := svc.AddComment(ctx, authorID, p.ID, text); err != nil {
				return users, posts, fmt.Errorf("commenting on %q: %w", sp.Title, err)
			}
		}

		posts++
	}

	return users, posts, nil
}

// SeedIfEmpty seeds the database from a JSON file if no users exist.
func SeedIfEmpty(ctx context.Context, svc *Service, filepath string) (bool, error) {
	var count int
	if err := svc.repo.DB().QueryRowContext(ctx, "SELECT count(*) FROM users").Scan(&count); err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return false, nil
	}

	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return false, nil
	}

	if _, _, err := ImportFromJSON(ctx, svc, filepath); err != nil {
		return false, err
	}

	return true, nil
}
