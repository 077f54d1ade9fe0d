package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseExerciseFilters reads the list query. Type and part are passed through
// as given; the service rejects unknown values.
func parseExerciseFilters(c *gin.Context) (repositories.ExerciseFilters, error) {
	filters := repositories.ExerciseFilters{
		Query:     strings.TrimSpace(c.Query("q")),
		Limit:     defaultListLimit,
		SortBy:    c.DefaultQuery("sort_by", "id"),
		SortOrder: c.DefaultQuery("sort_order", "asc"),
	}

	if v := c.Query("type"); v != "" {
		t := models.ExerciseType(strings.ToLower(v))
		filters.Type = &t
	}
	if v := c.Query("part"); v != "" {
		p := models.ExercisePart(strings.ToLower(v))
		filters.Part = &p
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filters, fmt.Errorf("invalid limit %q", v)
		}
		filters.Limit = min(limit, maxListLimit)
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filters, fmt.Errorf("invalid offset %q", v)
		}
		filters.Offset = offset
	}
	return filters, nil
}
