package handler

import (
	"net/http"

	"anoa.com/yamdb/internal/modules/comment/dto"
	comment "anoa.com/yamdb/internal/modules/comment/service"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service comment.CommentService
}

func NewCommentHandler(service comment.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var page commonDto.PaginationQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BindError(c, err)
		return
	}

	comments, err := h.service.ListComments(c.Request.Context(), titleID, reviewID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateComment(c.Request.Context(), response.GetUser(c), titleID, reviewID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CommentHandler) GetComment(c *gin.Context) {
	titleID, reviewID, id, ok := commentPath(c)
	if !ok {
		return
	}

	resp, err := h.service.GetComment(c.Request.Context(), titleID, reviewID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	titleID, reviewID, id, ok := commentPath(c)
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateComment(c.Request.Context(), response.GetUser(c), titleID, reviewID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	titleID, reviewID, id, ok := commentPath(c)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), response.GetUser(c), titleID, reviewID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func reviewPath(c *gin.Context) (titleID, reviewID uint, ok bool) {
	if titleID, ok = response.PathID(c, "title_id"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = response.PathID(c, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func commentPath(c *gin.Context) (titleID, reviewID, id uint, ok bool) {
	if titleID, reviewID, ok = reviewPath(c); !ok {
		return 0, 0, 0, false
	}
	if id, ok = response.PathID(c, "comment_id"); !ok {
		return 0, 0, 0, false
	}
	return titleID, reviewID, id, true
}
