package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

type HandlerManager struct {
	exerciseHandler *ExerciseHandler
	testHandler     *TestHandler
}

func NewHandlerManager(
	exerciseService services.ExerciseService,
	testService services.TestService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		exerciseHandler: NewExerciseHandler(exerciseService, validator, logger),
		testHandler:     NewTestHandler(testService, exportService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-prep-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(SessionMiddleware())
	{
		exercises := v1.Group("/exercises")
		{
			exercises.GET("", hm.exerciseHandler.ListExercises)
			exercises.GET("/:id", hm.exerciseHandler.GetExercise)
			exercises.PUT("/:id", hm.exerciseHandler.PutExercise)
			exercises.DELETE("/:id", hm.exerciseHandler.DeleteExercise)

			// Practice mode
			exercises.POST("/:id/score", hm.exerciseHandler.ScoreExercise)
		}

		tests := v1.Group("/tests")
		tests.Use(RequireSession())
		{
			tests.POST("/generate", hm.testHandler.GenerateTest)
			tests.POST("/start", hm.testHandler.StartTest)
			tests.POST("/advance", hm.testHandler.AdvanceTest)
			tests.POST("/retreat", hm.testHandler.RetreatTest)
			tests.POST("/jump", hm.testHandler.JumpTest)
			tests.POST("/finish", hm.testHandler.FinishTest)
			tests.POST("/reset", hm.testHandler.ResetTest)

			// Current test
			tests.GET("/current", hm.testHandler.GetCurrentTest)
			tests.GET("/current/exercise", hm.testHandler.GetCurrentExercise)
			tests.POST("/current/answers", hm.testHandler.SubmitAnswers)
			tests.PUT("/current/writing-choice", hm.testHandler.SetWritingChoice)
			tests.GET("/current/results", hm.testHandler.GetResults)
			tests.GET("/current/results/export", hm.testHandler.ExportResults)
		}
	}
}

// NewRouter builds the gin engine with the shared middleware and all routes
func NewRouter(hm *HandlerManager, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestID())
	router.Use(utils.LoggerMiddleware(logger))

	hm.SetupRoutes(router)
	return router
}
