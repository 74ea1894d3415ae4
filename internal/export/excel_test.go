package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bece-prep/platform/internal/catalog"
	"github.com/xuri/excelize/v2"
)

func testData() ([]catalog.Subject, []catalog.Topic, []catalog.Question) {
	subjects := []catalog.Subject{
		{ID: "s1", Name: "Mathematics"},
		{ID: "s2", Name: "Integrated Science"},
	}
	topics := []catalog.Topic{
		{ID: "t1", SubjectID: "s1", Name: "Algebra"},
	}
	questions := []catalog.Question{
		{
			ID:            "q1",
			SubjectID:     "s1",
			TopicID:       "t1",
			Type:          catalog.QuestionMultipleChoice,
			Difficulty:    catalog.DifficultyBeginner,
			Prompt:        "Solve 2x + 3 = 11",
			Options:       []string{"x = 3", "x = 4", "x = 5"},
			CorrectAnswer: "x = 4",
			Points:        2,
			Published:     true,
		},
		{
			ID:        "q2",
			SubjectID: "s1",
			TopicID:   "t1",
			Type:      catalog.QuestionShortAnswer,
			Prompt:    "Factorize x^2 - 9",
		},
	}
	return subjects, topics, questions
}

func TestWorkbookSheetPerSubject(t *testing.T) {
	subjects, topics, questions := testData()

	f, err := Workbook(subjects, topics, questions)
	if err != nil {
		t.Fatalf("Workbook() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("sheet count = %d, want 2", len(sheets))
	}
	if sheets[0] != "Mathematics" || sheets[1] != "Integrated Science" {
		t.Errorf("sheets = %v, want [Mathematics, Integrated Science]", sheets)
	}

	rows, err := f.GetRows("Mathematics")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want header plus 2 questions", len(rows))
	}
	if rows[0][0] != "Question ID" {
		t.Errorf("header cell = %q, want %q", rows[0][0], "Question ID")
	}
	if got, want := rows[1][1], "Algebra"; got != want {
		t.Errorf("topic cell = %q, want %q", got, want)
	}
	if got, want := rows[1][6], "x = 4"; got != want {
		t.Errorf("answer cell = %q, want %q", got, want)
	}

	// The subject with no questions still gets a header.
	empty, err := f.GetRows("Integrated Science")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(empty) != 1 {
		t.Errorf("empty subject rows = %d, want 1", len(empty))
	}
}

func TestWriteRoundTrips(t *testing.T) {
	subjects, topics, questions := testData()

	var buf bytes.Buffer
	if err := Write(&buf, subjects, topics, questions); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Mathematics")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("row count after round trip = %d, want 3", len(rows))
	}
}

func TestSheetNameRules(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Mathematics", "Mathematics"},
		{"forbidden characters", "Maths: Paper [1] / 2", "Maths- Paper -1- - 2"},
		{"truncated", "A Subject With A Very Long Name Indeed", "A Subject With A Very Long Name"},
		{"multibyte truncated on rune boundary", strings.Repeat("é", 35), strings.Repeat("é", 31)},
		{"blank", "   ", "Subject 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sheetName(tt.in, 2); got != tt.want {
				t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
