// Package handlers is the thin HTTP surface: it parses requests, calls the
// services and maps taxonomy kinds to statuses and the {success, data|msg}
// response shape. No policy lives here.
package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/content"
	"ripple/errs"
	"ripple/identity"
	"ripple/middleware"
	"ripple/relationship"
)

type Handler struct {
	identity *identity.Service
	content  *content.Service
	rel      *relationship.Engine
	logger   *log.Logger
}

func New(id *identity.Service, cs *content.Service, rel *relationship.Engine, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{identity: id, content: cs, rel: rel, logger: logger}
}

var statusByKind = map[errs.Kind]int{
	errs.KindValidation:   http.StatusBadRequest,
	errs.KindNotFound:     http.StatusNotFound,
	errs.KindUnauthorized: http.StatusUnauthorized,
	errs.KindForbidden:    http.StatusForbidden,
	errs.KindConflict:     http.StatusConflict,
	errs.KindInvalidState: http.StatusBadRequest,
	errs.KindNoChange:     http.StatusBadRequest,
	errs.KindUpstream:     http.StatusBadGateway,
}

// fail writes the structured failure for err. Upstream causes are logged
// and never exposed to the caller.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := "Some error occurred."
	if kind != "" && kind != errs.KindUpstream {
		msg = err.Error()
	}
	if kind == errs.KindUpstream || kind == "" {
		h.logger.Printf("request %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"success": false, "msg": msg})
}

// actor returns the id resolved by the auth middleware.
func actor(c *gin.Context) primitive.ObjectID {
	id, _ := c.Get(middleware.ActorKey)
	actorID, _ := id.(primitive.ObjectID)
	return actorID
}

// pathID parses an ObjectID path parameter, answering 400 itself on bad
// input.
func pathID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"msg":     "Invalid id '" + c.Param(param) + "'.",
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

// formImage reads an optional multipart file field into an upload payload.
// A missing file is not an error; a broken one is.
func formImage(c *gin.Context, field string) (*content.Image, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil // no file attached
	}
	return readImage(fileHeader)
}

func readImage(fileHeader *multipart.FileHeader) (*content.Image, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &content.Image{Data: data, MimeType: fileHeader.Header.Get("Content-Type")}, nil
}
