package gemini

import "github.com/sashabaranov/go-openai/jsonschema"

// responseSchema is the structured output contract sent with every
// generation request. Schema enforcement is advisory on the service side;
// required-field presence is still validated locally on receipt.
var responseSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"testPlan": {
			Type: jsonschema.String,
			Description: "A highly detailed and professional test plan in Markdown format, written with the authority of a principal engineer. " +
				"It MUST include, populated only from the provided media: 1. **Introduction**. 2. **Scope** with In-Scope and Out-of-Scope functionality. " +
				"3. **Test Strategy** covering levels (Unit, Integration, System, UAT) and types (Functional, UI/UX, Performance, Security). " +
				"4. **Success Criteria** with quantifiable metrics. 5. **Test Environment**. 6. **Test Deliverables**. 7. **Resources & Responsibilities**. " +
				"8. **Risks & Mitigation** with at least 3 specific risks as a point-based list (never a table), each bullet carrying bold Risk, Probability, Impact and Mitigation Strategy labels. Avoid generic risks.",
		},
		"qaDocument": {
			Type: jsonschema.String,
			Description: "A formal QA Document in Markdown format covering: 1. **Quality Objectives** with measurable goals. " +
				"2. **Key Quality Attributes**: Performance, Security, Usability, Reliability, Maintainability. " +
				"3. **Testing Process** end to end. 4. **Defect Management** with the bug lifecycle and severity/priority definitions.",
		},
		"featureManual": {
			Type: jsonschema.String,
			Description: "A comprehensive, user-friendly feature manual in Markdown format for a non-technical audience: " +
				"1. **Table of Contents**. 2. **Getting Started**. 3. **Core Functionality** with screenshot placeholders like `[Screenshot: The user dashboard after login]` where visual explanation matters. " +
				"4. **Advanced Features**. 5. **Troubleshooting / FAQ**.",
		},
		"testCases": {
			Type: jsonschema.Array,
			Description: "An exhaustive list of 50 - 150 highly detailed test cases covering Positive Scenarios, Negative Scenarios, Edge Cases and UI/UX Tests, " +
				"each with a priority based on its criticality to the feature's core function.",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"id":             {Type: jsonschema.String, Description: "A unique identifier, e.g. 'TC-FUNC-001'."},
					"priority":       {Type: jsonschema.String, Enum: []string{"High", "Medium", "Low"}},
					"preConditions":  {Type: jsonschema.Array, Description: "State required before starting the test.", Items: &jsonschema.Definition{Type: jsonschema.String}},
					"description":    {Type: jsonschema.String, Description: "A brief, clear description of the test objective."},
					"steps":          {Type: jsonschema.Array, Description: "Numbered actions to execute the test.", Items: &jsonschema.Definition{Type: jsonschema.String}},
					"expectedResult": {Type: jsonschema.String, Description: "A clear, specific description of the expected outcome."},
				},
				Required: []string{"id", "priority", "preConditions", "description", "steps", "expectedResult"},
			},
		},
		"userStories": {
			Type:        jsonschema.Array,
			Description: "Well-defined user stories derived from the feature's purpose, each with detailed acceptance criteria.",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"story":              {Type: jsonschema.String, Description: "Format: 'As a [user type], I want [to do something] so that [I can achieve some goal].'"},
					"priority":           {Type: jsonschema.String, Enum: []string{"High", "Medium", "Low"}},
					"acceptanceCriteria": {Type: jsonschema.Array, Description: "Specific, testable criteria, ideally Gherkin (Given/When/Then).", Items: &jsonschema.Definition{Type: jsonschema.String}},
					"estimationPoints":   {Type: jsonschema.Integer, Description: "Story point estimate."},
				},
				Required: []string{"story", "priority", "acceptanceCriteria", "estimationPoints"},
			},
		},
		"smokeTestSuite": {
			Type: jsonschema.String,
			Description: "A smoke test suite document in Markdown format focused on critical path validation and quick build verification: " +
				"1. **Overview**. 2. **Critical Path Scenarios**. 3. **Quick Build Verification Tests** executable in under 30 minutes. " +
				"4. **Pre-deployment Sanity Checks**. 5. **Test Execution Guidelines**. 6. **Automation Priorities**. 7. **Failure Response Protocol**.",
		},
		"regressionTestPlan": {
			Type: jsonschema.String,
			Description: "A detailed regression test plan in Markdown format: 1. **Regression Testing Strategy**. 2. **Impact Analysis Methodology**. " +
				"3. **Test Selection Criteria** for full vs. selective regression. 4. **Test Suite Organization**. 5. **Automation Strategy**. " +
				"6. **Release Validation Strategy** with entry/exit criteria. 7. **Risk Mitigation**.",
		},
		"accessibilityChecklist": {
			Type:        jsonschema.Array,
			Description: "Accessibility checks mapped to WCAG guidelines relevant to the feature.",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"wcagGuideline":  {Type: jsonschema.String, Description: "The WCAG guideline reference, e.g. '1.4.3 Contrast (Minimum)'."},
					"description":    {Type: jsonschema.String},
					"testSuggestion": {Type: jsonschema.String, Description: "How to verify the check."},
				},
				Required: []string{"wcagGuideline", "description", "testSuggestion"},
			},
		},
	},
	Required: []string{
		"testPlan", "qaDocument", "featureManual", "testCases",
		"userStories", "smokeTestSuite", "regressionTestPlan", "accessibilityChecklist",
	},
}
