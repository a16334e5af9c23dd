package export

import (
	"fmt"
	"strings"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// Markdown renders one view of the document set as markdown. The prose views
// come back verbatim since the generator already produces markdown for them;
// the structured views are laid out section by section.
func Markdown(docs domain.DocumentSet, view View) (string, error) {
	switch view {
	case ViewTestPlan, ViewQADocument, ViewFeatureManual, ViewSmokeTestSuite, ViewRegressionTestPlan:
		return prose(docs, view), nil
	case ViewTestCases:
		return testCasesMarkdown(docs.TestCases), nil
	case ViewUserStories:
		return userStoriesMarkdown(docs.UserStories), nil
	case ViewAccessibilityChecklist:
		return accessibilityMarkdown(docs.AccessibilityChecklist), nil
	}
	return "", fmt.Errorf("unknown view %q", view)
}

func testCasesMarkdown(cases []domain.TestCase) string {
	var b strings.Builder
	b.WriteString("# Test Cases\n")

	for _, tc := range cases {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", tc.ID, tc.Priority)
		fmt.Fprintf(&b, "**Description:** %s\n", tc.Description)

		if len(tc.PreConditions) > 0 {
			b.WriteString("\n**Pre-conditions:**\n")
			for _, pre := range tc.PreConditions {
				fmt.Fprintf(&b, "- %s\n", pre)
			}
		}

		if len(tc.Steps) > 0 {
			b.WriteString("\n**Steps:**\n")
			for i, step := range tc.Steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, step)
			}
		}

		fmt.Fprintf(&b, "\n**Expected Result:** %s\n", tc.ExpectedResult)
	}

	return b.String()
}

func userStoriesMarkdown(stories []domain.UserStory) string {
	var b strings.Builder
	b.WriteString("# User Stories\n")

	for i, story := range stories {
		fmt.Fprintf(&b, "\n## User Story %d (%s, %d points)\n\n", i+1, story.Priority, story.EstimationPoints)
		fmt.Fprintf(&b, "> %s\n", story.Story)

		if len(story.AcceptanceCriteria) > 0 {
			b.WriteString("\n**Acceptance Criteria:**\n")
			for _, criterion := range story.AcceptanceCriteria {
				fmt.Fprintf(&b, "- %s\n", criterion)
			}
		}
	}

	return b.String()
}

func accessibilityMarkdown(checks []domain.AccessibilityCheck) string {
	var b strings.Builder
	b.WriteString("# Accessibility Checklist\n")

	for _, check := range checks {
		fmt.Fprintf(&b, "\n## %s\n\n", check.WCAGGuideline)
		fmt.Fprintf(&b, "%s\n", check.Description)
		fmt.Fprintf(&b, "\n**How to test:** %s\n", check.TestSuggestion)
	}

	return b.String()
}
