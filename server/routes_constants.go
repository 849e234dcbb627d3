package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteLogin   = "/login"
	RouteRefresh = "/refresh"
	RouteSignup  = "/signup"

	// Exam Routes
	RouteQuestions = "/question/{year}/{month}"
	RouteSubmit    = "/api/auth/test/submit"

	// Operational Routes
	RouteHealth = "/healthz"
)
