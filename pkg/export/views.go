package export

import "github.com/akovalev/qa-docgen/pkg/domain"

// View identifies one document of a generated set, using the same keys the
// documents are serialized with.
type View string

const (
	ViewTestPlan               View = "testPlan"
	ViewQADocument             View = "qaDocument"
	ViewFeatureManual          View = "featureManual"
	ViewSmokeTestSuite         View = "smokeTestSuite"
	ViewRegressionTestPlan     View = "regressionTestPlan"
	ViewTestCases              View = "testCases"
	ViewUserStories            View = "userStories"
	ViewAccessibilityChecklist View = "accessibilityChecklist"
)

// Views lists every exportable view in presentation order.
func Views() []View {
	return []View{
		ViewTestPlan,
		ViewQADocument,
		ViewFeatureManual,
		ViewSmokeTestSuite,
		ViewRegressionTestPlan,
		ViewTestCases,
		ViewUserStories,
		ViewAccessibilityChecklist,
	}
}

func (v View) Valid() bool {
	for _, known := range Views() {
		if v == known {
			return true
		}
	}
	return false
}

func (v View) Title() string {
	switch v {
	case ViewTestPlan:
		return "Test Plan"
	case ViewQADocument:
		return "QA Document"
	case ViewFeatureManual:
		return "Feature Manual"
	case ViewSmokeTestSuite:
		return "Smoke Test Suite"
	case ViewRegressionTestPlan:
		return "Regression Test Plan"
	case ViewTestCases:
		return "Test Cases"
	case ViewUserStories:
		return "User Stories"
	case ViewAccessibilityChecklist:
		return "Accessibility Checklist"
	}
	return string(v)
}

// Tabular reports whether the view is structured data with a CSV form.
// The prose views only exist as markdown.
func (v View) Tabular() bool {
	switch v {
	case ViewTestCases, ViewUserStories, ViewAccessibilityChecklist:
		return true
	}
	return false
}

func prose(docs domain.DocumentSet, view View) string {
	switch view {
	case ViewTestPlan:
		return docs.TestPlan
	case ViewQADocument:
		return docs.QADocument
	case ViewFeatureManual:
		return docs.FeatureManual
	case ViewSmokeTestSuite:
		return docs.SmokeTestSuite
	case ViewRegressionTestPlan:
		return docs.RegressionTestPlan
	}
	return ""
}
