package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"route-optimization-api/clients"
	"route-optimization-api/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// All error responses use the flat {"detail": ...} envelope, where
// detail is a string or, for validation failures, a list of
// {field, message} objects.

func bindJSON(c *gin.Context, dest interface{}) bool {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{
				"field":   fe.Field(),
				"message": fmt.Sprintf("failed %q validation", fe.Tag()),
			})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fields})
		return false
	}

	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
	return false
}

// translateError is the single place adapter and store errors become
// HTTP status codes. Unexpected errors are logged and return a bare 500.
func translateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "resource not found"})
	case errors.Is(err, clients.ErrNoRouteFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, clients.ErrInvalidCoordinates),
		errors.Is(err, clients.ErrInvalidFeatures),
		errors.Is(err, store.ErrInvalidPrediction):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"detail": "record already exists"})
	case errors.Is(err, clients.ErrRoutingUnavailable),
		errors.Is(err, clients.ErrModelUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// retryOnce re-runs an idempotent read-only call at most one time when
// the first attempt failed transiently. Writes never go through here.
func retryOnce[T any](call func() (T, error), transient func(error) bool) (T, error) {
	out, err := call()
	if err != nil && transient(err) {
		return call()
	}
	return out, err
}
