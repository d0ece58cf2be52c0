package domain

// QuestionKind discriminates the three canonical question variants.
type QuestionKind string

const (
	// KindChoice is a multiple-choice question with one correct option.
	KindChoice QuestionKind = "choice"
	// KindBoolean is a true/false assertion about the question text.
	KindBoolean QuestionKind = "boolean"
	// KindReflection is a free-response prompt with no right answer.
	KindReflection QuestionKind = "reflection"
)

// QuestionKey identifies a question across the whole catalog. Bare question
// ids collide across chapters and books, so every seen-set and progress
// record keys by this composite.
type QuestionKey struct {
	BookID    string `json:"bookId"`
	ChapterID string `json:"chapterId"`
	ID        string `json:"id"`
}

// Option is a single answer choice. IDs are single letters and the slice
// order is the display order.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is the canonical form produced by the normalizer. Only the fields
// matching Kind are meaningful: Options/CorrectIndex for choice questions,
// CorrectBool for boolean ones. Hint and BookQuote are empty when the source
// record had none; downstream code treats empty and absent identically.
type Question struct {
	Key          QuestionKey  `json:"key"`
	Kind         QuestionKind `json:"kind"`
	Text         string       `json:"question"`
	Options      []Option     `json:"options,omitempty"`
	CorrectIndex int          `json:"-"`
	CorrectBool  bool         `json:"-"`
	Difficulty   string       `json:"difficulty"`
	Tier         int          `json:"tier"`
	Explanation  string       `json:"explanation,omitempty"`
	Hint         string       `json:"hint,omitempty"`
	BookQuote    string       `json:"bookQuote,omitempty"`
}

// Scored reports whether the question participates in accuracy math.
// Reflection prompts never do.
func (q Question) Scored() bool {
	return q.Kind == KindChoice || q.Kind == KindBoolean
}

// CorrectOptionID returns the id of the correct option for choice questions.
func (q Question) CorrectOptionID() string {
	if q.Kind != KindChoice || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex].ID
}

// Submission carries one user answer. A zero-value Submission means the user
// skipped the question. For choice questions OptionID is set; for boolean
// questions Truth is set; for reflection prompts any non-empty field counts
// as engagement.
type Submission struct {
	OptionID string `json:"optionId,omitempty"`
	Truth    *bool  `json:"truth,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Answered reports whether the submission carries any answer at all.
func (s Submission) Answered() bool {
	return s.OptionID != "" || s.Truth != nil || s.Text != ""
}

// Feedback is what the UI shows right after an answer: the verdict plus the
// explanation and citation withheld while the question was open. For
// reflection prompts only Engaged is meaningful.
type Feedback struct {
	Key             QuestionKey  `json:"key"`
	Kind            QuestionKind `json:"kind"`
	Correct         bool         `json:"correct"`
	Skipped         bool         `json:"skipped"`
	Engaged         bool         `json:"engaged"`
	CorrectOptionID string       `json:"correctOptionId,omitempty"`
	CorrectBool     *bool        `json:"correctAnswer,omitempty"`
	Explanation     string       `json:"explanation,omitempty"`
	BookQuote       string       `json:"bookQuote,omitempty"`
}
