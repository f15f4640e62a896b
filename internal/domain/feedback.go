package domain

// FeedbackType classifies a user report.
type FeedbackType string

const (
	FeedbackComment FeedbackType = "comentario"
	FeedbackProblem FeedbackType = "problema"
)

// Valid reports whether t is a known feedback type.
func (t FeedbackType) Valid() bool {
	return t == FeedbackComment || t == FeedbackProblem
}

// Feedback is a comment or problem report sent from the app.
type Feedback struct {
	Record
	UserID  string       `json:"-"`
	Type    FeedbackType `json:"type"`
	Message string       `json:"message"`
}

// FeedbackWithUser is the admin view of a report.
type FeedbackWithUser struct {
	Feedback
	User UserContact `json:"user"`
}
