package handler

import (
	"net/http"

	"anoa.com/yamdb/internal/modules/title/dto"
	title "anoa.com/yamdb/internal/modules/title/service"
	"anoa.com/yamdb/pkg/response"
	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	service title.TitleService
}

func NewTitleHandler(service title.TitleService) *TitleHandler {
	return &TitleHandler{service: service}
}

func (h *TitleHandler) CreateTitle(c *gin.Context) {
	var req dto.CreateTitleRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateTitle(c.Request.Context(), response.GetUser(c), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *TitleHandler) GetAllTitles(c *gin.Context) {
	var filter dto.TitleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	titles, err := h.service.GetAllTitles(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, titles)
}

func (h *TitleHandler) SearchTitles(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	titles, err := h.service.SearchTitles(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, titles)
}

func (h *TitleHandler) GetTitle(c *gin.Context) {
	id, ok := response.PathID(c, "title_id")
	if !ok {
		return
	}

	resp, err := h.service.GetTitle(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) UpdateTitle(c *gin.Context) {
	id, ok := response.PathID(c, "title_id")
	if !ok {
		return
	}

	var req dto.UpdateTitleRequest
	if !response.DecodeJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateTitle(c.Request.Context(), response.GetUser(c), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) DeleteTitle(c *gin.Context) {
	id, ok := response.PathID(c, "title_id")
	if !ok {
		return
	}

	if err := h.service.DeleteTitle(c.Request.Context(), response.GetUser(c), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
