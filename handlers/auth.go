package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ripple/errs"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /users.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Username, email and password are mandatory."})
		return
	}

	user, err := h.identity.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"msg":     "User created successfully.",
		"links": []gin.H{
			{"rel": "self", "href": "/users/" + user.ID.Hex(), "method": "GET"},
			{"rel": "login-user", "href": "/users/login", "method": "POST"},
		},
	})
}

// Login handles POST /users/login. Unknown user and wrong password are
// logged distinctly but answered with one message, so the surface does not
// disclose which part of the credentials failed.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "Must provide username and password."})
		return
	}

	signed, user, err := h.identity.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch errs.KindOf(err) {
		case errs.KindNotFound, errs.KindUnauthorized:
			h.logger.Printf("login rejected for %q: %v", req.Username, err)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "accessToken": nil, "msg": "Invalid credentials!"})
		default:
			h.fail(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "accessToken": signed, "id": user.ID.Hex()})
}
