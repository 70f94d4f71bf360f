package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /posts/:idP/comments.
func (h *Handler) AddComment(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "You need to provide the body with the request."})
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), actor(c), postID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"msg":     "Comment created successfully.",
		"data":    comment,
	})
}

// EditComment handles PUT /posts/:idP/comments/:idC.
func (h *Handler) EditComment(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "idC")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "You need to provide the body with the request."})
		return
	}

	comment, err := h.content.EditComment(c.Request.Context(), actor(c), postID, commentID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comment})
}

// DeleteComment handles DELETE /posts/:idP/comments/:idC.
func (h *Handler) DeleteComment(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "idC")
	if !ok {
		return
	}
	if err := h.content.DeleteComment(c.Request.Context(), actor(c), postID, commentID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Comment deleted successfully."})
}
