// Package catalog is the typed repository layer over the document store:
// one entity type per collection, timestamps normalized to RFC 3339
// strings, plus analytics logging and data seeding.
package catalog

// Collection names backing each entity type.
const (
	ColSubjects    = "subjects"
	ColTopics      = "topics"
	ColQuestions   = "questions"
	ColPredictions = "predictions"
	ColUsers       = "users"
	ColAnalytics   = "analytics"
)

// Difficulty grades a topic or question.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// QuestionType is the answer format of a question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionEssay          QuestionType = "essay"
)

// SolutionAccess controls when a student may see the worked solution.
type SolutionAccess string

const (
	SolutionImmediate    SolutionAccess = "immediate"
	SolutionAfterAttempt SolutionAccess = "after-attempt"
	SolutionNever        SolutionAccess = "never"
)

// Priority ranks a prediction.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Role is a user's role on the platform.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Subject is an examinable subject (e.g. Mathematics).
type Subject struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Color       string `json:"color" yaml:"color"`
	Active      bool   `json:"active" yaml:"active"`
	CreatedAt   string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Topic is a study topic within a subject. SubjectID is a soft reference:
// the store does not enforce it, so deleting a subject can orphan topics.
type Topic struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	SubjectID         string     `json:"subjectId" yaml:"subjectId"`
	Description       string     `json:"description" yaml:"description"`
	Difficulty        Difficulty `json:"difficulty" yaml:"difficulty"`
	EstimatedHours    float64    `json:"estimatedHours" yaml:"estimatedHours"`
	Active            bool       `json:"active" yaml:"active"`
	IsPredictionTopic bool       `json:"isPredictionTopic" yaml:"isPredictionTopic"`
	CreatedAt         string     `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt         string     `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Question is a single exam question.
type Question struct {
	ID             string         `json:"id" yaml:"id"`
	TopicID        string         `json:"topicId" yaml:"topicId"`
	SubjectID      string         `json:"subjectId" yaml:"subjectId"`
	Type           QuestionType   `json:"type" yaml:"type"`
	Difficulty     Difficulty     `json:"difficulty" yaml:"difficulty"`
	Prompt         string         `json:"prompt" yaml:"prompt"`
	Options        []string       `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer  string         `json:"correctAnswer" yaml:"correctAnswer"`
	Explanation    string         `json:"explanation" yaml:"explanation"`
	TimeSeconds    int            `json:"timeSeconds" yaml:"timeSeconds"`
	Points         int            `json:"points" yaml:"points"`
	Published      bool           `json:"published" yaml:"published"`
	Active         bool           `json:"active" yaml:"active"`
	SolutionAccess SolutionAccess `json:"solutionAccess" yaml:"solutionAccess"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	CreatedAt      string         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt      string         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Prediction is a forecast that given topics will appear on the exam.
// TopicIDs is the authoritative topic association; TopicID is kept equal to
// its first element for older clients and is rewritten on every write.
type Prediction struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description" yaml:"description"`
	SubjectID          string     `json:"subjectId" yaml:"subjectId"`
	TopicID            string     `json:"topicId" yaml:"topicId"`
	TopicIDs           []string   `json:"topicIds,omitempty" yaml:"topicIds,omitempty"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	EstimatedScore     float64    `json:"estimatedScore" yaml:"estimatedScore"`
	Confidence         int        `json:"confidence" yaml:"confidence"`
	Probability        int        `json:"probability" yaml:"probability"`
	Priority           Priority   `json:"priority" yaml:"priority"`
	EstimatedQuestions int        `json:"estimatedQuestions" yaml:"estimatedQuestions"`
	QuestionIDs        []string   `json:"questionIds,omitempty" yaml:"questionIds,omitempty"`
	Active             bool       `json:"active" yaml:"active"`
	CreatedAt          string     `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt          string     `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Preferences is a user's preference bag.
type Preferences struct {
	Theme         string `json:"theme" yaml:"theme"`
	Notifications bool   `json:"notifications" yaml:"notifications"`
	Language      string `json:"language" yaml:"language"`
}

// User is a platform user profile. Exactly one document exists per
// authenticated identity; its id equals the identity id.
type User struct {
	ID          string      `json:"id" yaml:"id"`
	Email       string      `json:"email" yaml:"email"`
	DisplayName string      `json:"displayName" yaml:"displayName"`
	Role        Role        `json:"role" yaml:"role"`
	School      string      `json:"school,omitempty" yaml:"school,omitempty"`
	Grade       string      `json:"grade,omitempty" yaml:"grade,omitempty"`
	Subjects    []string    `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	LastLoginAt string      `json:"lastLoginAt,omitempty" yaml:"lastLoginAt,omitempty"`
	Preferences Preferences `json:"preferences" yaml:"preferences"`
	CreatedAt   string      `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// DefaultPreferences are applied to lazily created profiles.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         "light",
		Notifications: true,
		Language:      "en",
	}
}
