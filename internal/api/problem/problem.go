// Package problem renders errors as RFC 7807 problem documents.
package problem

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moogar0880/problems"
	"github.com/sirupsen/logrus"

	"store_rating/internal/domain"
)

// Response is a problem document with the failing fields of a validation error.
type Response struct {
	*problems.Problem
	Errors []domain.FieldError `json:"errors,omitempty"`
}

// Status maps an error onto its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// New builds the problem document for err. Internal errors get a generic detail.
func New(err error) *Response {
	status := Status(err)
	var resp Response
	switch status {
	case http.StatusInternalServerError:
		resp.Problem = problems.NewDetailedProblem(status, "an unexpected error occurred")
	case http.StatusUnauthorized:
		resp.Problem = problems.NewDetailedProblem(status, "missing, invalid or expired credentials")
	default:
		resp.Problem = problems.NewDetailedProblem(status, err.Error())
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Detail = "request validation failed"
		resp.Errors = verr.Fields
	}
	return &resp
}

// Abort writes err as a problem document and stops the handler chain.
// Internal errors are logged with the request id, their text never reaches the client.
func Abort(c *gin.Context, err error) {
	resp := New(err)
	resp.Instance = c.Request.URL.Path
	if resp.Status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("requestID"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error("request failed")
	}
	_ = c.Error(err)
	c.Header("Content-Type", problems.ProblemMediaType)
	c.AbortWithStatusJSON(resp.Status, resp)
}
