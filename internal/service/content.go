package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"premium-blog-api/internal/dto"
	"premium-blog-api/internal/entitlement"
	"premium-blog-api/internal/model"
	"premium-blog-api/internal/repository"

	"gorm.io/gorm"
)

type ContentService interface {
	CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	ListPosts(ctx context.Context, callerID string) ([]*dto.PostResponse, error)
	GetPost(ctx context.Context, callerID string, postID uint) (*dto.PostResponse, error)
	UpdatePost(ctx context.Context, callerID string, postID uint, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, callerID string, postID uint) error
}

type contentServiceImpl struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewContentService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) ContentService {
	return &contentServiceImpl{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

func (s *contentServiceImpl) CreatePost(ctx context.Context, authorID string, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("post title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("post content is required")
	}

	post := &model.Post{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		IsPremium:   req.IsPremium,
		AuthorID:    authorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("store post: %w", err)
	}

	return toPostResponse(post, false), nil
}

// ListPosts returns every post, with premium bodies withheld for callers
// who are not entitled to them. Header fields stay visible so the UI can
// mark locked items.
func (s *contentServiceImpl) ListPosts(ctx context.Context, callerID string) ([]*dto.PostResponse, error) {
	callerPremium, err := s.resolveEntitlement(ctx, callerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	out := make([]*dto.PostResponse, len(posts))
	for i, post := range posts {
		locked := !entitlement.Check(post.IsPremium, callerPremium).Allowed()
		out[i] = toPostResponse(post, locked)
	}

	return out, nil
}

// GetPost fetches a single post through the gate. A missing post is
// ErrPostNotFound; an existing premium post read by a non-entitled caller
// comes back locked, with the payload withheld. The two are never conflated.
func (s *contentServiceImpl) GetPost(ctx context.Context, callerID string, postID uint) (*dto.PostResponse, error) {
	callerPremium, err := s.resolveEntitlement(ctx, callerID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	locked := !entitlement.Check(post.IsPremium, callerPremium).Allowed()
	return toPostResponse(post, locked), nil
}

// UpdatePost replaces a post's editable fields. Only the author may edit.
func (s *contentServiceImpl) UpdatePost(ctx context.Context, callerID string, postID uint, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("post title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("post content is required")
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	if post.AuthorID != callerID {
		return nil, ErrPostForbidden
	}

	post.Title = req.Title
	post.Description = req.Description
	post.Content = req.Content
	post.ImageURL = req.ImageURL
	post.IsPremium = req.IsPremium

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return toPostResponse(post, false), nil
}

func (s *contentServiceImpl) DeletePost(ctx context.Context, callerID string, postID uint) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("get post: %w", err)
	}

	if post.AuthorID != callerID {
		return ErrPostForbidden
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// resolveEntitlement reads the premium flag fresh on every request so that
// an upgrade takes effect without re-authentication. Anonymous callers are
// never entitled.
func (s *contentServiceImpl) resolveEntitlement(ctx context.Context, callerID string) (bool, error) {
	if callerID == "" {
		return false, nil
	}

	premium, err := s.userRepo.IsPremium(ctx, callerID)
	if err != nil {
		return false, fmt.Errorf("resolve caller entitlement: %w", err)
	}

	return premium, nil
}

func toPostResponse(post *model.Post, locked bool) *dto.PostResponse {
	resp := &dto.PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Content:     post.Content,
		ImageURL:    post.ImageURL,
		IsPremium:   post.IsPremium,
		Locked:      locked,
		AuthorID:    post.AuthorID,
		CreatedAt:   post.CreatedAt,
	}
	if locked {
		resp.Content = ""
	}
	return resp
}
