package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// CSV renders a structured view as comma-separated values. List fields are
// joined with newlines inside the cell; the writer takes care of quoting.
// Prose views have no tabular form and are rejected.
func CSV(docs domain.DocumentSet, view View) ([]byte, error) {
	var records [][]string

	switch view {
	case ViewTestCases:
		records = testCaseRecords(docs.TestCases)
	case ViewUserStories:
		records = userStoryRecords(docs.UserStories)
	case ViewAccessibilityChecklist:
		records = accessibilityRecords(docs.AccessibilityChecklist)
	default:
		return nil, fmt.Errorf("view %q has no tabular form", view)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}

	return buf.Bytes(), nil
}

func testCaseRecords(cases []domain.TestCase) [][]string {
	records := [][]string{{"ID", "Priority", "Description", "Pre-conditions", "Steps", "Expected Result"}}
	for _, tc := range cases {
		records = append(records, []string{
			tc.ID,
			string(tc.Priority),
			tc.Description,
			strings.Join(tc.PreConditions, "\n"),
			strings.Join(tc.Steps, "\n"),
			tc.ExpectedResult,
		})
	}
	return records
}

func userStoryRecords(stories []domain.UserStory) [][]string {
	records := [][]string{{"Story", "Priority", "Acceptance Criteria", "Estimation Points"}}
	for _, story := range stories {
		records = append(records, []string{
			story.Story,
			string(story.Priority),
			strings.Join(story.AcceptanceCriteria, "\n"),
			strconv.Itoa(story.EstimationPoints),
		})
	}
	return records
}

func accessibilityRecords(checks []domain.AccessibilityCheck) [][]string {
	records := [][]string{{"WCAG Guideline", "Description", "Test Suggestion"}}
	for _, check := range checks {
		records = append(records, []string{
			check.WCAGGuideline,
			check.Description,
			check.TestSuggestion,
		})
	}
	return records
}
