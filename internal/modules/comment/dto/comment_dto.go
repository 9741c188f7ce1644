package dto

import (
	"time"

	"anoa.com/yamdb/internal/entity"
)

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type UpdateCommentRequest struct {
	Text *string `json:"text" binding:"omitempty,min=1"`
}

type CommentResponse struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  *string   `json:"author"`
	PubDate time.Time `json:"pub_date"`
	Review  uint      `json:"review"`
}

func NewCommentResponse(c *entity.Comment) CommentResponse {
	resp := CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		PubDate: c.PubDate,
		Review:  c.ReviewID,
	}
	if c.Author != nil {
		resp.Author = &c.Author.Username
	}
	return resp
}
