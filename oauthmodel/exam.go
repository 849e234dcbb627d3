package oauthmodel

// Question is a single exam question as served by GET /question/{year}/{month}
type Question struct {
	Number      int    `json:"number"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

// Submission carries a completed answer sheet to the submit endpoint
type Submission struct {
	UserID      string   `json:"userId"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	UserAnswers []string `json:"userAnswers"`
	Time        int      `json:"time"` // seconds spent on the set
}

// SubmissionResult is the server's acknowledgement of a submission
type SubmissionResult struct {
	Score   *int   `json:"score,omitempty"`
	Message string `json:"message,omitempty"`
}
