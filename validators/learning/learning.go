package learningValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// parseIDParam validates a positive integer route parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// CourseModules validates the course id for the module list
func CourseModules() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parseIDParam(c, "course_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// TrackProgress validates the module id and the reported percent
func TrackProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		moduleID, ok := parseIDParam(c, "module_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}

		reqData := new(struct {
			Percent *float64 `json:"percent"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Percent == nil {
			errors["percent"] = "Percent is required!"
		} else if *reqData.Percent < 0 || *reqData.Percent > 100 {
			errors["percent"] = "Percent must be between 0 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("moduleID", moduleID)
		c.Locals("validatedTrackProgress", reqData)
		return c.Next()
	}
}

// QuizRequest validates the module id for quiz generation
func QuizRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		moduleID, ok := parseIDParam(c, "module_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}

		c.Locals("moduleID", moduleID)
		return c.Next()
	}
}

// SubmitQuiz validates a quiz submission body
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		moduleID, ok := parseIDParam(c, "module_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}

		reqData := new(struct {
			Answers          map[uint]uint `json:"answers"`
			TimeTakenSeconds *int          `json:"time_taken_seconds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.TimeTakenSeconds == nil {
			errors["time_taken_seconds"] = "Time taken is required!"
		} else if *reqData.TimeTakenSeconds < 0 {
			errors["time_taken_seconds"] = "Time taken must not be negative!"
		}

		// An empty answer map is a valid (scored as zero) submission
		if reqData.Answers == nil {
			reqData.Answers = map[uint]uint{}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("moduleID", moduleID)
		c.Locals("validatedQuizSubmission", reqData)
		return c.Next()
	}
}
