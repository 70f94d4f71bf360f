package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ripple/content"
)

// ListPosts handles GET /posts. Reads are public by design.
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": posts})
}

// GetPost handles GET /posts/:idP.
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	post, err := h.content.GetPost(c.Request.Context(), postID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

// ListUserPosts handles GET /users/:idU/posts.
func (h *Handler) ListUserPosts(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	posts, err := h.content.ListUserPosts(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": posts})
}

// CreatePost handles POST /posts: multipart form with a content field and
// an optional inputPostImage file.
func (h *Handler) CreatePost(c *gin.Context) {
	image, err := formImage(c, "inputPostImage")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Could not read the uploaded file."})
		return
	}

	post, err := h.content.CreatePost(c.Request.Context(), actor(c), c.PostForm("content"), image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"msg":     "Post created successfully.",
		"data":    post,
	})
}

// EditPost handles PATCH /posts/:idP.
func (h *Handler) EditPost(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	var edit content.PostEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "You need to provide the body with the request."})
		return
	}

	post, err := h.content.EditPost(c.Request.Context(), actor(c), postID, edit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": post})
}

// DeletePost handles DELETE /posts/:idP, cascading to comments and likes.
func (h *Handler) DeletePost(c *gin.Context) {
	postID, ok := pathID(c, "idP")
	if !ok {
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), actor(c), postID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Post deleted successfully."})
}
