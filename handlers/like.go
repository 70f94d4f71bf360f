package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Like handles POST /posts/:idP/likes.
func (h *Handler) Like(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	like, err := h.content.Like(c.Request.Context(), actor(c), postID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"msg":     "Like created successfully.",
		"data":    like,
	})
}

// Unlike handles DELETE /posts/:idP/likes/:idL.
func (h *Handler) Unlike(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	likeID, ok := pathID(c, "idL")
	if !ok {
		return
	}
	if err := h.content.Unlike(c.Request.Context(), actor(c), postID, likeID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Like deleted successfully."})
}
