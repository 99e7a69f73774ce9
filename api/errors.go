package api

import (
	"net/http"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error       string   `json:"error"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// StatusFor maps a booking error to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindStorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := errorResponse{Error: err.Error(), Unavailable: domain.ConflictTickets(err)}
	// storage details stay in the logs
	if status >= http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}
