// Package export renders the question bank as an Excel workbook for
// offline review, one sheet per subject.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/bece-prep/platform/internal/catalog"
	"github.com/xuri/excelize/v2"
)

var questionHeader = []string{
	"Question ID", "Topic", "Type", "Difficulty", "Prompt",
	"Options", "Correct Answer", "Points", "Published",
}

// Workbook builds an xlsx file with one sheet per subject listing that
// subject's questions. Subjects without questions still get a sheet
// with just the header row.
func Workbook(subjects []catalog.Subject, topics []catalog.Topic, questions []catalog.Question) (*excelize.File, error) {
	f := excelize.NewFile()

	topicNames := make(map[string]string, len(topics))
	for _, topic := range topics {
		topicNames[topic.ID] = topic.Name
	}
	bySubject := make(map[string][]catalog.Question)
	for _, q := range questions {
		bySubject[q.SubjectID] = append(bySubject[q.SubjectID], q)
	}

	for i, subject := range subjects {
		sheet := sheetName(subject.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &questionHeader); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		for row, q := range bySubject[subject.ID] {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return nil, err
			}
			values := []any{
				q.ID,
				topicNames[q.TopicID],
				string(q.Type),
				string(q.Difficulty),
				q.Prompt,
				strings.Join(q.Options, " | "),
				q.CorrectAnswer,
				q.Points,
				q.Published,
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write question row: %w", err)
			}
		}
	}

	return f, nil
}

// Write renders the workbook for the given catalog data to w.
func Write(w io.Writer, subjects []catalog.Subject, topics []catalog.Topic, questions []catalog.Question) error {
	f, err := Workbook(subjects, topics, questions)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetName fits a subject name into Excel's sheet naming rules: at
// most 31 characters, none of []:*?/\.
func sheetName(name string, index int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = fmt.Sprintf("Subject %d", index+1)
	}
	if runes := []rune(cleaned); len(runes) > 31 {
		cleaned = string(runes[:31])
	}
	return cleaned
}
