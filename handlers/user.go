package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ripple/identity"
	"ripple/store"
)

// List handles GET /users with page/limit/sort query parameters.
func (h *Handler) List(c *gin.Context) {
	opts := store.ListOptions{Sort: c.Query("sort")}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		opts.Page = page
	} else {
		opts.Page = 1
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}

	users, err := h.identity.List(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pagination": []gin.H{{
			"total":   strconv.Itoa(len(users)),
			"current": strconv.Itoa(opts.Page),
			"limit":   strconv.Itoa(opts.Limit),
		}},
		"data":  users,
		"links": []gin.H{{"rel": "add-user", "href": "/users", "method": "POST"}},
	})
}

// GetUser handles GET /users/:idU with followers, following and posts.
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	view, err := h.identity.Get(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// EditUser handles PATCH /users/:idU.
func (h *Handler) EditUser(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	var edit identity.UserEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "You need to provide the body with the request."})
		return
	}

	user, err := h.identity.Edit(c.Request.Context(), actor(c), userID, edit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// DeleteUser handles DELETE /users/:idU, cascading to everything the user
// owns.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	if err := h.identity.Delete(c.Request.Context(), actor(c), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "User deleted successfully."})
}

// ToggleBlock handles PATCH /users/:idU/block (admin only).
func (h *Handler) ToggleBlock(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	blocked, err := h.identity.ToggleBlock(c.Request.Context(), actor(c), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	msg := "User was unblocked."
	if blocked {
		msg = "User was blocked."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": msg})
}

// ChangeProfilePicture handles PATCH /users/:idU/change-profile-picture.
func (h *Handler) ChangeProfilePicture(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	image, err := formImage(c, "inputProfilePicture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Could not read the uploaded file."})
		return
	}
	if image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "You need to provide the profile picture file."})
		return
	}

	user, err := h.identity.ChangeProfileImage(c.Request.Context(), actor(c), userID, *image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"profile_image": user.ProfileImage,
		"msg":           "Profile picture updated successfully!",
	})
}

// Follow handles POST /users/:idU/follow.
func (h *Handler) Follow(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	// Target must exist before the edge is considered.
	target, err := h.identity.Find(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	edge, err := h.rel.Follow(c.Request.Context(), actor(c), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"msg":     "User " + target.Username + " followed successfully.",
		"data":    edge,
	})
}

// Unfollow handles DELETE /users/:idU/unfollow.
func (h *Handler) Unfollow(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	target, err := h.identity.Find(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.rel.Unfollow(c.Request.Context(), actor(c), userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"msg":     "User " + target.Username + " unfollowed successfully.",
	})
}

// Followers handles GET /users/:idU/followers.
func (h *Handler) Followers(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	followers, err := h.rel.Followers(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": followers})
}

// Following handles GET /users/:idU/following.
func (h *Handler) Following(c *gin.Context) {
	userID, ok := pathID(c, "idU")
	if !ok {
		return
	}
	following, err := h.rel.Following(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": following})
}
