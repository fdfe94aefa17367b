package standardize

import (
	"strconv"
	"strings"
	"text/template"

	"colstd/internal/knowledge"
)

// PromptInput carries the per-run values substituted into the prompt.
// Nil or empty fields fall back to fixed placeholders.
type PromptInput struct {
	SQLQuery        *string
	CleanedColumns  []string
	MetadataSummary string
	SpecialRules    *string
}

type promptData struct {
	SQLQuery     string
	Columns      string
	Profile      string
	SpecialRules string
	Glossary     string
	UnitRules    string
	DateRules    string
	TargetSchema string
}

var promptTemplate = template.Must(template.New("standardize").Parse(promptText))

// BuildPrompt renders the standardization prompt. It performs no I/O.
func BuildPrompt(in PromptInput) string {
	data := promptData{
		SQLQuery:     orDefault(in.SQLQuery, "Not provided"),
		Columns:      "see dataset profile",
		Profile:      "Not provided",
		SpecialRules: orDefault(in.SpecialRules, "None"),
		Glossary:     knowledge.AbbreviationGlossary,
		UnitRules:    knowledge.UnitRules,
		DateRules:    knowledge.DateRules,
		TargetSchema: knowledge.TargetSchemaBlock,
	}
	if len(in.CleanedColumns) > 0 {
		data.Columns = listLiteral(in.CleanedColumns)
	}
	if strings.TrimSpace(in.MetadataSummary) != "" {
		data.Profile = in.MetadataSummary
	}

	var b strings.Builder
	// The template is static and the data holds only strings.
	_ = promptTemplate.Execute(&b, data)
	return b.String()
}

func orDefault(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

// listLiteral renders names as a bracketed list of quoted strings.
func listLiteral(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

const promptText = "You are a Telecom Data Engineering Agent. Rename DataFrame columns to a clean, standardized format.\n" +
	`
## INPUTS
SQL QUERY: {{.SQLQuery}}
COLUMNS (aliases stripped): {{.Columns}}
DATASET PROFILE: {{.Profile}}
SPECIAL RULES: {{.SpecialRules}}

## NAMING RULES
1. Use UpperCamelCase (PascalCase). Example: revenueLastMonth → RevenueLast30d
2. Use SHORT but READABLE abbreviations — a non-telecom junior data scientist must understand them.
   GOOD: MouMins, ArpuMonthly, DataUsageKb, ChurnFlag, TenureDays
   BAD: MinutesOfUsageInMinutes (too long), MuMn (unreadable)
3. Keep telecom terms that are industry-standard and widely known: Mou, Arpu, Vas, Msisdn
4. Expand abbreviations that only insiders know: aon→AgeOnNetwork, rchg→Recharge, gndr→Gender
5. Always append unit suffix when relevant: Kb, Mb, Mins, Secs, Days, Months
6. Date integers (YYYYMMDD format): rename to clearly show it's a date e.g. ActivationDate

## ABBREVIATION REFERENCE
{{.Glossary}}
## UNIT DETECTION
{{.UnitRules}}
## DATE DETECTION
{{.DateRules}}
## TARGET SCHEMA (match these when possible)
{{.TargetSchema}}
## CONFIDENCE
- CONFIDENT: >85% sure → use the clean name
- AMBIGUOUS: 2+ meanings, unresolvable → prefix new name with ambiguous_
- UNKNOWN: no reasonable interpretation → prefix new name with unknown_

## OUTPUT FORMAT
Return EXACTLY two code blocks, nothing else.

` + "```python" + `
rename_map = {
    "raw_col": "CleanName",
    "raw_col2": "ambiguous_raw_col2",
    "raw_col3": "unknown_raw_col3"
}
df = df.rename(columns=rename_map)
` + "```" + `

` + "```python" + `
ambiguous_fields = [
    {
        "original_column": "raw_col2",
        "candidates": ["OptionA", "OptionB"],
        "reason": "brief reason",
        "sample_values": "actual values from data"
    }
]
` + "```" + `

RULES:
- No comments, no prose, no extra text outside the two blocks
- Keys must exactly match raw column names
- No duplicate values in rename_map
- Never drop columns
`
