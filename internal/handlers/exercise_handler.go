package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

type ExerciseHandler struct {
	BaseHandler
	exerciseService services.ExerciseService
	validator       *validator.Validator
}

func NewExerciseHandler(
	exerciseService services.ExerciseService,
	validator *validator.Validator,
	logger utils.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(logger),
		exerciseService: exerciseService,
		validator:       validator,
	}
}

// ListExercises lists exercises
// @Summary List exercises
// @Description Lists exercises filtered by type, part and a title query
// @Tags exercises
// @Produce json
// @Param type query string false "Exercise type"
// @Param part query string false "Exercise part"
// @Param q query string false "Title search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.ExerciseListResponse
// @Failure 400 {object} ErrorResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	h.LogRequest(c, "Listing exercises")

	filters, err := parseExerciseFilters(c)
	if err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return
	}

	list, err := h.exerciseService.List(c.Request.Context(), sessionFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetExercise retrieves one exercise
// @Summary Get exercise
// @Tags exercises
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} services.ExerciseResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting exercise", "exercise_id", id)

	exercise, err := h.exerciseService.Get(c.Request.Context(), sessionFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}

// PutExercise creates or replaces an exercise
// @Summary Store exercise
// @Description Creates or replaces the exercise with the given ID. Moderators and admins only.
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param exercise body models.Exercise true "Exercise"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) PutExercise(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Storing exercise", "exercise_id", id)

	var exercise models.Exercise
	if err := c.ShouldBindJSON(&exercise); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	if exercise.ID == "" {
		exercise.ID = id
	}
	if exercise.ID != id {
		h.handleServiceError(c, services.ErrExerciseIDMismatch)
		return
	}

	if err := h.exerciseService.Put(c.Request.Context(), sessionFromContext(c), &exercise); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exercise stored",
		Data:    exercise.Summary(),
	})
}

// DeleteExercise removes an exercise
// @Summary Delete exercise
// @Tags exercises
// @Param id path string true "Exercise ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting exercise", "exercise_id", id)

	if err := h.exerciseService.Delete(c.Request.Context(), sessionFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ScoreExercise scores a practice attempt
// @Summary Score practice attempt
// @Description Scores answers for a single exercise outside a test; the result includes the answer keys
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path string true "Exercise ID"
// @Param answers body services.ScoreRequest true "Answers"
// @Success 200 {object} scoring.Result
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id}/score [post]
func (h *ExerciseHandler) ScoreExercise(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Scoring practice attempt", "exercise_id", id)

	var req services.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	result, err := h.exerciseService.ScorePractice(c.Request.Context(), sessionFromContext(c), id, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
