// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jcodagnone/jimoto/social"
)

// CreatePostRequest is the JSON body of a new post. Coordinates are pointers
// so an omitted or null value reaches the validator as missing.
type CreatePostRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Image     string   `json:"image"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// createPostForm is the form (urlencoded or multipart) rendition of
// CreatePostRequest. Coordinates stay strings so a blank field is missing
// rather than zero.
type createPostForm struct {
	Title     string `form:"title"`
	Body      string `form:"body"`
	Image     string `form:"image"`
	Latitude  string `form:"latitude"`
	Longitude string `form:"longitude"`
}

type UpdatePostRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	Image *string `json:"image"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) createPost(ctx *gin.Context) {
	req, err := bindCreatePost(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	post, err := s.svc.CreatePost(ctx.Request.Context(), viewerID(ctx), social.PostInput{
		Title:     req.Title,
		Body:      req.Body,
		ImageURL:  req.Image,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, post)
}

func bindCreatePost(ctx *gin.Context) (CreatePostRequest, error) {
	var req CreatePostRequest

	if ctx.ContentType() == binding.MIMEJSON {
		err := ctx.ShouldBindJSON(&req)

		return req, err
	}

	var form createPostForm
	if err := ctx.ShouldBind(&form); err != nil {
		return req, err
	}

	lat, err := parseCoordinate("latitude", form.Latitude)
	if err != nil {
		return req, err
	}

	lng, err := parseCoordinate("longitude", form.Longitude)
	if err != nil {
		return req, err
	}

	return CreatePostRequest{
		Title:     form.Title,
		Body:      form.Body,
		Image:     form.Image,
		Latitude:  lat,
		Longitude: lng,
	}, nil
}

// parseCoordinate returns nil for an absent or blank form value.
func parseCoordinate(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}

	return &v, nil
}

func (s *Server) listPosts(ctx *gin.Context) {
	posts, err := s.svc.ListPosts(ctx.Request.Context(), ctx.Query("q"), viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, nonNil(posts))
}

func (s *Server) myPosts(ctx *gin.Context) {
	posts, err := s.svc.MyPosts(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, nonNil(posts))
}

func (s *Server) nearbyPosts(ctx *gin.Context) {
	lat, errLat := strconv.ParseFloat(ctx.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(ctx.Query("lng"), 64)

	if errLat != nil || errLng != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})

		return
	}

	posts, err := s.svc.NearbyPosts(ctx.Request.Context(), lat, lng, viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, nonNil(posts))
}

func (s *Server) getPost(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	post, err := s.svc.Post(ctx.Request.Context(), id, viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, post)
}

func (s *Server) updatePost(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	post, err := s.svc.UpdatePost(ctx.Request.Context(), viewerID(ctx), id, social.PostUpdate{
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.Image,
	})
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, post)
}

func (s *Server) deletePost(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	if err := s.svc.DeletePost(ctx.Request.Context(), viewerID(ctx), id); err != nil {
		renderError(ctx, err)

		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) togglePostLike(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	status, err := s.svc.TogglePostLike(ctx.Request.Context(), viewerID(ctx), id)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) listComments(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	comments, err := s.svc.Comments(ctx.Request.Context(), id, viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, nonNil(comments))
}

func (s *Server) addComment(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	comment, err := s.svc.AddComment(ctx.Request.Context(), viewerID(ctx), id, req.Text)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

func (s *Server) getComment(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	comment, err := s.svc.Comment(ctx.Request.Context(), id, viewerID(ctx))
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, comment)
}

func (s *Server) updateComment(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	var req CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	comment, err := s.svc.UpdateComment(ctx.Request.Context(), viewerID(ctx), id, req.Text)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	if err := s.svc.DeleteComment(ctx.Request.Context(), viewerID(ctx), id); err != nil {
		renderError(ctx, err)

		return
	}

	ctx.Status(http.StatusNoContent)
}

func (s *Server) toggleCommentLike(ctx *gin.Context) {
	id, ok := paramID(ctx)
	if !ok {
		return
	}

	status, err := s.svc.ToggleCommentLike(ctx.Request.Context(), viewerID(ctx), id)
	if err != nil {
		renderError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": status})
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
