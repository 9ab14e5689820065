// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package social

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcodagnone/jimoto/auth"
	"github.com/jcodagnone/jimoto/geocode"
	"github.com/jcodagnone/jimoto/residence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shibuyaLat  = 35.6595
	shibuyaLng  = 139.7005
	shinjukuLat = 35.6938
	shinjukuLng = 139.7034
)

func ptr(f float64) *float64 { return &f }

func newTestProvider() *geocode.FakeProvider {
	return geocode.NewFakeProvider().
		SetAddress("東京都渋谷区", geocode.Ok([]geocode.Result{geocode.LocalityResult("渋谷区")})).
		SetCoordinates(shibuyaLat, shibuyaLng, geocode.Ok([]geocode.Result{geocode.LocalityResult("渋谷区")})).
		SetCoordinates(shinjukuLat, shinjukuLng, geocode.Ok([]geocode.Result{geocode.LocalityResult("新宿区")}))
}

func setupTestService(t *testing.T, provider geocode.Provider, mode residence.Mode) *Service {
	t.Helper()

	return NewService(setupTestDB(t), residence.NewValidator(provider), mode)
}

func registerTestUser(t *testing.T, svc *Service, username string) *User {
	t.Helper()

	u, err := svc.Register(context.Background(), RegisterInput{
		Username:            username,
		Email:               username + "@example.com",
		Password:            "password123",
		ResidencePrefecture: "東京都",
		ResidenceCity:       "渋谷区",
	})
	require.NoError(t, err)

	return u
}

func TestRegister(t *testing.T) {
	provider := newTestProvider()
	svc := setupTestService(t, provider, residence.ModeEnforce)
	ctx := context.Background()

	u := registerTestUser(t, svc, "taro")
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.Equal(t, []string{"address=東京都渋谷区"}, provider.Calls())

	_, err := svc.Register(ctx, RegisterInput{
		Username: "taro", Email: "other@example.com", Password: "p",
		ResidencePrefecture: "東京都", ResidenceCity: "渋谷区",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "jiro", Email: "TARO@example.com", Password: "p",
		ResidencePrefecture: "東京都", ResidenceCity: "渋谷区",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "jiro", Email: "jiro@example.com", Password: "p",
		ResidencePrefecture: "東京都", ResidenceCity: "架空市",
	})
	assert.True(t, residence.IsKind(err, residence.AddressNotFound), "error: %v", err)

	_, err = svc.Register(ctx, RegisterInput{Username: "jiro", Email: "jiro@example.com", Password: "p"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	exists, err := svc.Repository().UsernameExists(ctx, "jiro")
	require.NoError(t, err)
	assert.False(t, exists, "failed registrations must not create users")
}

func TestRegisterBypass(t *testing.T) {
	provider := newTestProvider()
	svc := setupTestService(t, provider, residence.ModeBypass)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "jiro", Email: "jiro@example.com", Password: "p",
		ResidencePrefecture: "どこか県", ResidenceCity: "架空市",
	})
	require.NoError(t, err)
	assert.Empty(t, provider.Calls())
}

func TestAuthenticate(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()
	u := registerTestUser(t, svc, "taro")

	for _, login := range []string{"taro", "taro@example.com"} {
		got, err := svc.Authenticate(ctx, login, "password123")
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, got.ID)
	}

	_, err := svc.Authenticate(ctx, "taro", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreatePost(t *testing.T) {
	provider := newTestProvider()
	svc := setupTestService(t, provider, residence.ModeEnforce)
	ctx := context.Background()
	u := registerTestUser(t, svc, "taro")

	p, err := svc.CreatePost(ctx, u.ID, PostInput{
		Title:     "<b>Ramen</b> near the station",
		Body:      "Great <i>tonkotsu</i>",
		Latitude:  ptr(shibuyaLat),
		Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)
	assert.Equal(t, "渋谷区", p.City)
	assert.Equal(t, "Ramen near the station", p.Title)
	assert.Equal(t, "Great tonkotsu", p.Body)
	assert.NotZero(t, p.Cell)

	_, err = svc.CreatePost(ctx, u.ID, PostInput{
		Title: "Shinjuku", Body: "b", Latitude: ptr(shinjukuLat), Longitude: ptr(shinjukuLng),
	})

	var ve *residence.ValidationError
	require.True(t, errors.As(err, &ve), "error: %v", err)
	assert.Equal(t, residence.ResidenceMismatch, ve.Kind)
	assert.Contains(t, ve.Message, "渋谷区")
	assert.Contains(t, ve.Message, "新宿区")

	_, err = svc.CreatePost(ctx, u.ID, PostInput{Title: "t", Body: "b", Latitude: ptr(shibuyaLat)})
	assert.True(t, residence.IsKind(err, residence.MissingCoordinates))

	_, err = svc.CreatePost(ctx, u.ID, PostInput{Title: "t", Body: "b", Latitude: ptr(1), Longitude: ptr(1)})
	assert.True(t, residence.IsKind(err, residence.GeocodeUnavailable))

	_, err = svc.CreatePost(ctx, u.ID, PostInput{Title: "t", Body: "b", Latitude: ptr(95), Longitude: ptr(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreatePost(ctx, u.ID, PostInput{Title: "  ", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	posts, err := svc.MyPosts(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1, "rejected posts must not be stored")
}

func TestCreatePostBypassUsesResidenceCity(t *testing.T) {
	provider := newTestProvider()
	svc := setupTestService(t, provider, residence.ModeBypass)
	u := registerTestUser(t, svc, "taro")

	p, err := svc.CreatePost(context.Background(), u.ID, PostInput{
		Title: "t", Body: "b", Latitude: ptr(shinjukuLat), Longitude: ptr(shinjukuLng),
	})
	require.NoError(t, err)
	assert.Equal(t, "渋谷区", p.City)
	assert.Empty(t, provider.Calls())
}

func TestListPostsSearch(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()
	u := registerTestUser(t, svc, "taro")

	for _, title := range []string{"Café opening", "Ramen festival"} {
		_, err := svc.CreatePost(ctx, u.ID, PostInput{
			Title: title, Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng),
		})
		require.NoError(t, err)
	}

	posts, err := svc.ListPosts(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = svc.ListPosts(ctx, "CAFE", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Café opening", posts[0].Title)

	posts, err = svc.ListPosts(ctx, "ｒａｍｅｎ", 0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = svc.ListPosts(ctx, "渋谷", 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2, "city matches")
}

func TestNearbyPosts(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()
	u := registerTestUser(t, svc, "taro")

	_, err := svc.CreatePost(ctx, u.ID, PostInput{
		Title: "t", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)

	posts, err := svc.NearbyPosts(ctx, shibuyaLat+0.001, shibuyaLng, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = svc.NearbyPosts(ctx, 34.6937, 135.5023, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestNearbyPostsClosestFirst(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeBypass)
	ctx := context.Background()
	u := registerTestUser(t, svc, "taro")

	near, err := svc.CreatePost(ctx, u.ID, PostInput{
		Title: "near", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)

	// Created last, so it would come first in a newest-first listing.
	_, err = svc.CreatePost(ctx, u.ID, PostInput{
		Title: "farther", Body: "b", Latitude: ptr(shibuyaLat + 0.002), Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)

	posts, err := svc.NearbyPosts(ctx, shibuyaLat, shibuyaLng, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, near.ID, posts[0].ID)

	_, err = svc.NearbyPosts(ctx, 120, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostOwnership(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()
	taro := registerTestUser(t, svc, "taro")
	hanako := registerTestUser(t, svc, "hanako")

	p, err := svc.CreatePost(ctx, taro.ID, PostInput{
		Title: "t", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)

	title := "new title"

	_, err = svc.UpdatePost(ctx, hanako.ID, p.ID, PostUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdatePost(ctx, taro.ID, p.ID, PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "b", updated.Body)
	assert.Equal(t, "渋谷区", updated.City)

	empty := " "
	_, err = svc.UpdatePost(ctx, taro.ID, p.ID, PostUpdate{Body: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, svc.DeletePost(ctx, hanako.ID, p.ID), ErrForbidden)
	require.NoError(t, svc.DeletePost(ctx, taro.ID, p.ID))

	_, err = svc.Post(ctx, p.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentsAndLikes(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()
	taro := registerTestUser(t, svc, "taro")
	hanako := registerTestUser(t, svc, "hanako")

	p, err := svc.CreatePost(ctx, taro.ID, PostInput{
		Title: "t", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng),
	})
	require.NoError(t, err)

	c, err := svc.AddComment(ctx, hanako.ID, p.ID, "nice!")
	require.NoError(t, err)
	assert.Equal(t, "hanako", c.Username)

	_, err = svc.AddComment(ctx, hanako.ID, p.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddComment(ctx, hanako.ID, 999, "lost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateComment(ctx, taro.ID, c.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	edited, err := svc.UpdateComment(ctx, hanako.ID, c.ID, "very nice!")
	require.NoError(t, err)
	assert.Equal(t, "very nice!", edited.Text)

	status, err := svc.ToggleCommentLike(ctx, taro.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, Liked, status)

	status, err = svc.TogglePostLike(ctx, hanako.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Liked, status)

	_, err = svc.TogglePostLike(ctx, hanako.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := svc.Comments(ctx, p.ID, taro.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].IsLiked)

	_, err = svc.Comments(ctx, 999, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteComment(ctx, taro.ID, c.ID), ErrForbidden)
	require.NoError(t, svc.DeleteComment(ctx, hanako.ID, c.ID))
}

func TestAudit(t *testing.T) {
	provider := newTestProvider()
	bypass := setupTestService(t, provider, residence.ModeBypass)
	ctx := context.Background()
	u := registerTestUser(t, bypass, "taro")

	// Stored while bypassed, so the mismatch went unnoticed.
	for _, c := range [][2]float64{{shibuyaLat, shibuyaLng}, {shinjukuLat, shinjukuLng}} {
		_, err := bypass.CreatePost(ctx, u.ID, PostInput{Title: "t", Body: "b", Latitude: ptr(c[0]), Longitude: ptr(c[1])})
		require.NoError(t, err)
	}

	enforce := NewService(bypass.Repository(), residence.NewValidator(provider), residence.ModeEnforce)

	var calls int

	findings, err := enforce.Audit(ctx, func(done, total int) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, findings, 1)
	assert.InDelta(t, shinjukuLat, findings[0].Post.Latitude, 1e-9)
	assert.True(t, residence.IsKind(findings[0].Err, residence.ResidenceMismatch))
}

func TestAuditWithoutProvider(t *testing.T) {
	bypass := setupTestService(t, newTestProvider(), residence.ModeBypass)
	ctx := context.Background()
	u := registerTestUser(t, bypass, "taro")

	_, err := bypass.CreatePost(ctx, u.ID, PostInput{Title: "t", Body: "b", Latitude: ptr(shibuyaLat), Longitude: ptr(shibuyaLng)})
	require.NoError(t, err)

	unconfigured := NewService(bypass.Repository(), residence.NewValidator(nil), residence.ModeEnforce)

	var calls int

	findings, err := unconfigured.Audit(ctx, func(int, int) { calls++ })
	require.Error(t, err)
	assert.True(t, residence.IsKind(err, residence.MissingCredential), "error: %v", err)
	assert.Empty(t, findings)
	assert.Zero(t, calls)
}

func TestImportFromJSON(t *testing.T) {
	svc := setupTestService(t, newTestProvider(), residence.ModeEnforce)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0",
		"users": [{"username": "taro", "email": "taro@example.com", "password": "pw",
		           "residence_prefecture": "東京都", "residence_city": "渋谷区"}],
		"posts": [{"author": "taro", "title": "hello", "body": "world",
		           "latitude": 35.6595, "longitude": 139.7005, "comments": ["first!"]}]
	}`), 0o600))

	seeded, err := SeedIfEmpty(ctx, svc, path)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = SeedIfEmpty(ctx, svc, path)
	require.NoError(t, err)
	assert.False(t, seeded, "second run is a no-op")

	posts, err := svc.ListPosts(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	comments, err := svc.Comments(ctx, posts[0].ID, 0)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, _, err = ImportFromJSON(ctx, svc, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
