package domain

import "fmt"

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DocumentSet is the complete structured output of one generation run. Every
// field is required in anything the generation service returns; a missing
// field is a contract violation, not a network problem.
type DocumentSet struct {
	TestPlan               string               `json:"testPlan"`
	QADocument             string               `json:"qaDocument"`
	FeatureManual          string               `json:"featureManual"`
	SmokeTestSuite         string               `json:"smokeTestSuite"`
	RegressionTestPlan     string               `json:"regressionTestPlan"`
	TestCases              []TestCase           `json:"testCases"`
	UserStories            []UserStory          `json:"userStories"`
	AccessibilityChecklist []AccessibilityCheck `json:"accessibilityChecklist"`
}

type TestCase struct {
	ID             string   `json:"id"`
	Priority       string   `json:"priority"`
	PreConditions  []string `json:"preConditions"`
	Description    string   `json:"description"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
}

type UserStory struct {
	Story              string   `json:"story"`
	Priority           string   `json:"priority"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	EstimationPoints   int      `json:"estimationPoints"`
}

type AccessibilityCheck struct {
	WCAGGuideline  string `json:"wcagGuideline"`
	Description    string `json:"description"`
	TestSuggestion string `json:"testSuggestion"`
}

// Validate checks the document-level contract. It reports the first violation
// with the path of the offending field.
func (d *DocumentSet) Validate() error {
	prose := []struct {
		path  string
		value string
	}{
		{"testPlan", d.TestPlan},
		{"qaDocument", d.QADocument},
		{"featureManual", d.FeatureManual},
		{"smokeTestSuite", d.SmokeTestSuite},
		{"regressionTestPlan", d.RegressionTestPlan},
	}
	for _, f := range prose {
		if f.value == "" {
			return fmt.Errorf("missing required field %q", f.path)
		}
	}

	if d.TestCases == nil {
		return fmt.Errorf("missing required field %q", "testCases")
	}
	for i, tc := range d.TestCases {
		if tc.ID == "" {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("testCases[%d].id", i))
		}
		if !validPriority(tc.Priority) {
			return fmt.Errorf("invalid priority %q at %q", tc.Priority, fmt.Sprintf("testCases[%d].priority", i))
		}
		if tc.Description == "" {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("testCases[%d].description", i))
		}
		if len(tc.Steps) == 0 {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("testCases[%d].steps", i))
		}
		if tc.ExpectedResult == "" {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("testCases[%d].expectedResult", i))
		}
	}

	if d.UserStories == nil {
		return fmt.Errorf("missing required field %q", "userStories")
	}
	for i, us := range d.UserStories {
		if us.Story == "" {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("userStories[%d].story", i))
		}
		if len(us.AcceptanceCriteria) == 0 {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("userStories[%d].acceptanceCriteria", i))
		}
	}

	if d.AccessibilityChecklist == nil {
		return fmt.Errorf("missing required field %q", "accessibilityChecklist")
	}
	for i, check := range d.AccessibilityChecklist {
		if check.WCAGGuideline == "" {
			return fmt.Errorf("missing required field %q", fmt.Sprintf("accessibilityChecklist[%d].wcagGuideline", i))
		}
	}

	return nil
}

func validPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}
