package handler

import (
	"net/http"

	"anoa.com/yamdb/internal/modules/category/dto"
	category "anoa.com/yamdb/internal/modules/category/service"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/response"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	service category.CategoryService
}

func NewCategoryHandler(service category.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateCategory(c.Request.Context(), response.GetUser(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CategoryHandler) GetAllCategories(c *gin.Context) {
	var filter commonDto.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	categories, err := h.service.GetAllCategories(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), response.GetUser(c), c.Param("slug")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
