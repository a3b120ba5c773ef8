package prompt

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	SectionAnalysis string
}{
	SectionAnalysis: "insight.section_analysis",
}
