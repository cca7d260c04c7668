package learningRoutes

import (
	learningController "lms/controllers/learning"
	"lms/middleware"
	"lms/services/progression"
	"lms/services/quizengine"
	learningValidator "lms/validators/learning"

	"github.com/gofiber/fiber/v2"
)

// SetupLearningRoutes sets up the progression and quiz routes
func SetupLearningRoutes(app *fiber.App, gate *progression.Service, engine *quizengine.Service) {
	learningGroup := app.Group("/learning")

	// Module list with unlock state
	learningGroup.Get("/course/:course_id/modules", middleware.JWTMiddleware, learningValidator.CourseModules(), learningController.GetModuleList(gate))

	// Content consumption tracking
	learningGroup.Post("/module/:module_id/track", middleware.JWTMiddleware, learningValidator.TrackProgress(), learningController.TrackContentProgress(gate))

	// Quiz generation and submission
	learningGroup.Get("/module/:module_id/quiz", middleware.JWTMiddleware, learningValidator.QuizRequest(), learningController.GetQuiz(gate, engine))
	learningGroup.Post("/module/:module_id/quiz/submit", middleware.JWTMiddleware, learningValidator.SubmitQuiz(), learningController.SubmitQuiz(gate, engine))
}
