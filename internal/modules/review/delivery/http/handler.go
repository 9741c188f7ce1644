package handler

import (
	"net/http"

	"anoa.com/yamdb/internal/modules/review/dto"
	review "anoa.com/yamdb/internal/modules/review/service"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service review.ReviewService
}

func NewReviewHandler(service review.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	titleID, ok := response.PathID(c, "title_id")
	if !ok {
		return
	}

	var page commonDto.PaginationQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BindError(c, err)
		return
	}

	reviews, err := h.service.ListReviews(c.Request.Context(), titleID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	titleID, ok := response.PathID(c, "title_id")
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateReview(c.Request.Context(), response.GetUser(c), titleID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	titleID, id, ok := reviewPath(c)
	if !ok {
		return
	}

	resp, err := h.service.GetReview(c.Request.Context(), titleID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	titleID, id, ok := reviewPath(c)
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateReview(c.Request.Context(), response.GetUser(c), titleID, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	titleID, id, ok := reviewPath(c)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), response.GetUser(c), titleID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func reviewPath(c *gin.Context) (titleID, id uint, ok bool) {
	if titleID, ok = response.PathID(c, "title_id"); !ok {
		return 0, 0, false
	}
	if id, ok = response.PathID(c, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, id, true
}
