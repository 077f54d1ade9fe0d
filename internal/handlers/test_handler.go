package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TestHandler struct {
	BaseHandler
	testService   services.TestService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewTestHandler(
	testService services.TestService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *TestHandler {
	return &TestHandler{
		BaseHandler:   NewBaseHandler(logger),
		testService:   testService,
		exportService: exportService,
		validator:     validator,
	}
}

type testAction func(h *TestHandler, c *gin.Context, session *models.Session) (interface{}, error)

// run logs the request, calls the service and writes the JSON result
func (h *TestHandler) run(c *gin.Context, message string, action testAction) {
	h.LogRequest(c, message)

	resp, err := action(h, c, sessionFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateTest assembles a new test
// @Summary Generate test
// @Description Draws one exercise per part from the exercise bank. Allowed only before the test has started.
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tests/generate [post]
func (h *TestHandler) GenerateTest(c *gin.Context) {
	h.run(c, "Generating test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Generate(c.Request.Context(), s)
	})
}

// StartTest starts the generated test
// @Summary Start test
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Failure 409 {object} ErrorResponse "Some parts have no exercise"
// @Router /tests/start [post]
func (h *TestHandler) StartTest(c *gin.Context) {
	h.run(c, "Starting test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Start(c.Request.Context(), s)
	})
}

// AdvanceTest moves to the next part
// @Summary Next part
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Router /tests/advance [post]
func (h *TestHandler) AdvanceTest(c *gin.Context) {
	h.run(c, "Advancing test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Advance(c.Request.Context(), s)
	})
}

// RetreatTest moves to the previous part
// @Summary Previous part
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Router /tests/retreat [post]
func (h *TestHandler) RetreatTest(c *gin.Context) {
	h.run(c, "Retreating test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Retreat(c.Request.Context(), s)
	})
}

// JumpTest moves to the given part
// @Summary Jump to part
// @Tags tests
// @Accept json
// @Produce json
// @Param cursor body services.JumpRequest true "Target position"
// @Success 200 {object} services.TestResponse
// @Failure 400 {object} ErrorResponse
// @Router /tests/jump [post]
func (h *TestHandler) JumpTest(c *gin.Context) {
	h.run(c, "Jumping in test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		var req services.JumpRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return h.testService.JumpTo(c.Request.Context(), s, models.Cursor{Section: *req.Section, Part: *req.Part})
	})
}

// FinishTest completes the test and returns the results
// @Summary Finish test
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResults
// @Failure 409 {object} ErrorResponse "Not at the last part"
// @Router /tests/finish [post]
func (h *TestHandler) FinishTest(c *gin.Context) {
	h.run(c, "Finishing test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Finish(c.Request.Context(), s)
	})
}

// ResetTest discards progress
// @Summary Reset test
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Router /tests/reset [post]
func (h *TestHandler) ResetTest(c *gin.Context) {
	h.run(c, "Resetting test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Reset(c.Request.Context(), s)
	})
}

// GetCurrentTest returns the test state
// @Summary Current test
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResponse
// @Router /tests/current [get]
func (h *TestHandler) GetCurrentTest(c *gin.Context) {
	h.run(c, "Getting current test", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Current(c.Request.Context(), s)
	})
}

// GetCurrentExercise opens the exercise at the cursor
// @Summary Current exercise
// @Description Opens the exercise of the current part. The countdown starts on first open.
// @Tags tests
// @Produce json
// @Success 200 {object} services.AttemptResponse
// @Router /tests/current/exercise [get]
func (h *TestHandler) GetCurrentExercise(c *gin.Context) {
	h.run(c, "Getting current exercise", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.CurrentExercise(c.Request.Context(), s)
	})
}

// SubmitAnswers records answers for the current exercise
// @Summary Answer current exercise
// @Tags tests
// @Accept json
// @Produce json
// @Param answers body services.AnswersRequest true "Answers"
// @Success 200 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already submitted or time expired"
// @Router /tests/current/answers [post]
func (h *TestHandler) SubmitAnswers(c *gin.Context) {
	h.run(c, "Submitting answers", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		var req services.AnswersRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return h.testService.SubmitAnswers(c.Request.Context(), s, &req)
	})
}

// SetWritingChoice picks which writing task the learner answers
// @Summary Choose writing task
// @Tags tests
// @Accept json
// @Produce json
// @Param choice body services.WritingChoiceRequest true "Choice (1 or 2)"
// @Success 200 {object} services.TestResponse
// @Failure 400 {object} ErrorResponse
// @Router /tests/current/writing-choice [put]
func (h *TestHandler) SetWritingChoice(c *gin.Context) {
	h.run(c, "Setting writing choice", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		var req services.WritingChoiceRequest
		if err := h.bind(c, &req); err != nil {
			return nil, err
		}
		return h.testService.SetWritingChoice(c.Request.Context(), s, req.Choice)
	})
}

// GetResults returns the results of a completed test
// @Summary Test results
// @Tags tests
// @Produce json
// @Success 200 {object} services.TestResults
// @Failure 409 {object} ErrorResponse "Test not completed"
// @Router /tests/current/results [get]
func (h *TestHandler) GetResults(c *gin.Context) {
	h.run(c, "Getting test results", func(h *TestHandler, c *gin.Context, s *models.Session) (interface{}, error) {
		return h.testService.Results(c.Request.Context(), s)
	})
}

// ExportResults downloads the results as a spreadsheet
// @Summary Export test results
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 409 {object} ErrorResponse "Test not completed"
// @Router /tests/current/results/export [get]
func (h *TestHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "Exporting test results")

	session := sessionFromContext(c)
	results, err := h.testService.Results(c.Request.Context(), session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	data, err := h.exportService.ExportResults(c.Request.Context(), results)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("results-%s.xlsx", results.CompletedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// bind decodes the JSON body and checks its validate tags
func (h *TestHandler) bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("%w: %v", services.ErrBadRequest, err)
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		if verrs := validator.ToValidationErrors(err); len(verrs) > 0 {
			return verrs
		}
		return fmt.Errorf("%w: %v", services.ErrBadRequest, err)
	}
	return nil
}
