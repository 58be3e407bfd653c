package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-service/internal/service"
	"travel-service/internal/util"
)

var registerOnce sync.Once

// registerJSONFieldNames makes validator report json field names, so
// binding failures name the same fields clients send.
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bind decodes the JSON body into dst, writing a 400 on failure.
func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeBindError(c, err)
		return false
	}
	return true
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string][]string{}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": map[string][]string{typeErr.Field: {"incorrect type, expected " + typeErr.Type.String()}},
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "min":
		return "ensure this field has at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed on the '" + fe.Tag() + "' rule"
}

// pathID parses the :id path parameter. A malformed id cannot name any
// record, so it answers 404.
func (h *Handler) pathID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps a service error onto a status code and body.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := h.errorResponse(c, err)
	c.JSON(status, body)
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, body := h.errorResponse(c, err)
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) errorResponse(c *gin.Context, err error) (int, gin.H) {
	var (
		verr    *service.ValidationError
		nf      *service.NotFoundError
		failure *service.ProviderFailure
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields}
	case errors.Is(err, service.ErrUnauthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="api"`)
		return http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()}
	case errors.As(err, &nf):
		return http.StatusNotFound, gin.H{"error": nf.Error()}
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, gin.H{"error": "conflict", "details": err.Error()}
	case errors.As(err, &failure):
		return http.StatusBadRequest, gin.H{"error": failure.Error(), "details": failure.Payload}
	case errors.Is(err, service.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": service.ErrProviderUnavailable.Error()}
	case errors.Is(err, service.ErrProviderProtocol):
		return http.StatusBadGateway, gin.H{"error": service.ErrProviderProtocol.Error()}
	}

	util.LoggerFromContext(c.Request.Context()).Error("Unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}
