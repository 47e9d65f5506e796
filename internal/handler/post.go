package handler

import (
	"errors"
	"net/http"
	"strconv"

	"premium-blog-api/internal/dto"
	"premium-blog-api/internal/middleware"
	"premium-blog-api/internal/service"

	"github.com/labstack/echo/v4"
)

type PostHandler struct {
	contentService service.ContentService
}

func NewPostHandler(contentService service.ContentService) *PostHandler {
	return &PostHandler{
		contentService: contentService,
	}
}

func (h *PostHandler) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	post, err := h.contentService.CreatePost(ctx, middleware.UserID(c), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) ListPosts(c echo.Context) error {
	ctx := c.Request().Context()

	posts, err := h.contentService.ListPosts(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	var req dto.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	post, err := h.contentService.UpdatePost(ctx, middleware.UserID(c), uint(postID), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		case errors.Is(err, service.ErrPostForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "only the author can edit this post")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	if err := h.contentService.DeletePost(ctx, middleware.UserID(c), uint(postID)); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		case errors.Is(err, service.ErrPostForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "only the author can delete this post")
		default:
			return err
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// GetPost serves one post through the entitlement gate. A post that does
// not exist is a 404; one the caller is not entitled to is a 402 with the
// public header fields so the UI can render an upgrade prompt.
func (h *PostHandler) GetPost(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}

	post, err := h.contentService.GetPost(ctx, middleware.UserID(c), uint(postID))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return err
	}

	if post.Locked {
		return c.JSON(http.StatusPaymentRequired, map[string]interface{}{
			"error": "this is premium content, upgrade your account to view it",
			"code":  "upgrade_required",
			"post":  post,
		})
	}

	return c.JSON(http.StatusOK, post)
}
