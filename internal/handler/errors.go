package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
	"github.com/stemsi/minilms-backend/internal/response"
)

// respondError maps service and repository errors onto the response envelope.
// Unknown errors are logged and reported as a generic 500.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		ve *model.ValidationError
		nf *repository.NotFoundError
	)

	switch {
	case errors.As(err, &ve):
		fields := map[string]string{}
		if ve.Field != "" {
			fields[ve.Field] = ve.Message
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Message, fields)
	case errors.As(err, &nf):
		response.FailWithDetail(c, http.StatusNotFound, response.ErrNotFound, nf.Detail())
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicatePhone):
		response.Fail(c, http.StatusConflict, response.ErrDuplicatePhone)
	case errors.Is(err, repository.ErrCapacityExceeded):
		response.FailWithDetail(c, http.StatusConflict, response.ErrCapacityExceeded, err.Error())
	case errors.Is(err, repository.ErrDuplicateRegistration):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateRegistration)
	case errors.Is(err, repository.ErrScheduleConflict):
		response.FailWithDetail(c, http.StatusConflict, response.ErrScheduleConflict, err.Error())
	case errors.Is(err, repository.ErrInactiveSubscription):
		response.Fail(c, http.StatusBadRequest, response.ErrInactiveSubscription)
	case errors.Is(err, repository.ErrSessionsExhausted):
		response.Fail(c, http.StatusBadRequest, response.ErrSessionsExhausted)
	case isTimeout(err):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Request timed out")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrTimeout)
	default:
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}
