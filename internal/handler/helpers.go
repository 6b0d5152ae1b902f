package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/apierror"
	"github.com/lbc354/sgp/internal/middleware"
	"github.com/lbc354/sgp/internal/service"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// failure translates a service error into the right status code and
// envelope.
func failure(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusUnprocessableEntity,
			apierror.NewValidation(map[string]string{fieldErr.Field: fieldErr.Message}))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("record not found"))
	case errors.Is(err, service.ErrDemandCompleted):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case isDuplicateKey(err):
		c.JSON(http.StatusConflict, apierror.New("a record with these values already exists"))
	default:
		// Unexpected failures (DB down, driver errors) must not leak
		// internals: hand them to the error-collector middleware, which
		// logs them and answers with the generic 500 envelope.
		_ = c.Error(err)
		c.Abort()
	}
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

// uuidParam parses a path parameter as a UUID; on failure it writes the
// 404 response and returns false.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("record not found"))
		return uuid.Nil, false
	}
	return id, true
}

// queryPage reads the 1-based "page" query parameter, defaulting to 1.
func queryPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// viewerFrom builds the service-level identity from the JWT claims set by
// the auth middleware.
func viewerFrom(c *gin.Context) service.Viewer {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return service.Viewer{ID: id, Role: claims.Role}
}
