package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/response"
	"github.com/stemsi/minilms-backend/internal/validator"
)

// pathID parses a positive integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// listParams parses skip and limit, writing a 400 on failure.
func listParams(c *gin.Context) (model.ListParams, bool) {
	params := model.DefaultListParams()
	fields := map[string]string{}

	if raw := c.Query("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["skip"] = "skip must be a non-negative integer"
		}
		params.Skip = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > model.MaxListLimit {
			fields["limit"] = fmt.Sprintf("limit must be between 1 and %d", model.MaxListLimit)
		}
		params.Limit = n
	}

	if len(fields) > 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.Summary(fields), fields)
		return model.ListParams{}, false
	}
	return params, true
}

// bindJSON binds and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.Summary(fields), fields)
		return false
	}
	return true
}

func pagination(params model.ListParams, count int) *response.Pagination {
	return &response.Pagination{Skip: params.Skip, Limit: params.Limit, Count: count}
}
