package standardize

import (
	"fmt"
	"regexp"
	"strings"

	"colstd/internal/domain"
	"colstd/internal/literal"
)

// Variable names the model is asked to assign in its two code blocks.
const (
	renameMapVar       = "rename_map"
	ambiguousFieldsVar = "ambiguous_fields"
)

// codeBlockPattern matches a fenced block. A language tag on the opening
// fence line (python, py, Python, json, ...) is dropped; a block that starts
// on the fence line itself keeps its content.
var codeBlockPattern = regexp.MustCompile("(?s)```(?:[ \\t]*[A-Za-z0-9_+.-]*[ \\t]*\\r?\\n)?(.*?)```")

// ExtractCodeBlocks returns the trimmed, non-empty contents of every fenced
// code block in text, in order. Prose outside the fences is ignored.
func ExtractCodeBlocks(text string) []string {
	var blocks []string
	for _, m := range codeBlockPattern.FindAllStringSubmatch(text, -1) {
		if b := strings.TrimSpace(m[1]); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// ParseResponse turns a raw model reply into a standardization result.
// It never fails: every degraded path yields empty artifacts plus a diagnostic.
// rawColumns, when non-empty, is used to validate the extracted mapping.
func ParseResponse(raw string, rawColumns []string) *domain.StandardizationResult {
	res := &domain.StandardizationResult{
		AmbiguousFields: []domain.AmbiguousField{},
		ColumnMap:       domain.RenameMap{},
		RawResponse:     raw,
	}

	blocks := ExtractCodeBlocks(raw)
	if len(blocks) == 0 {
		res.Diagnostics = append(res.Diagnostics, "no code blocks found in model response")
		return res
	}

	res.CleaningCode = blocks[0]
	if len(blocks) > 1 {
		fields, diags := extractAmbiguousFields(blocks[1])
		res.AmbiguousFields = fields
		res.Diagnostics = append(res.Diagnostics, diags...)
	}
	if len(blocks) > 2 {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("ignored %d extra code block(s)", len(blocks)-2))
	}

	m, err := literal.StringMap(mappingSource(res.CleaningCode), renameMapVar)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("could not parse %s: %v", renameMapVar, err))
	} else {
		res.ColumnMap = domain.RenameMap(m)
		res.Diagnostics = append(res.Diagnostics, domain.ValidateRenameMap(res.ColumnMap, rawColumns)...)
	}
	return res
}

// mappingSource isolates the mapping assignment that precedes the rename call.
func mappingSource(code string) string {
	if i := strings.Index(code, "df = df.rename"); i >= 0 {
		return code[:i]
	}
	if i := strings.Index(code, ".rename("); i >= 0 {
		if nl := strings.LastIndexByte(code[:i], '\n'); nl >= 0 {
			return code[:nl]
		}
	}
	return code
}

func extractAmbiguousFields(code string) ([]domain.AmbiguousField, []string) {
	records, err := literal.Records(code, ambiguousFieldsVar)
	if err != nil {
		return []domain.AmbiguousField{}, []string{fmt.Sprintf("could not parse %s: %v", ambiguousFieldsVar, err)}
	}

	var diags []string
	fields := make([]domain.AmbiguousField, 0, len(records))
	for i, rec := range records {
		for _, key := range []string{"original_column", "candidates", "reason", "sample_values"} {
			if _, ok := rec[key]; !ok {
				diags = append(diags, fmt.Sprintf("%s[%d] missing %q", ambiguousFieldsVar, i, key))
			}
		}
		fields = append(fields, domain.AmbiguousField{
			OriginalColumn: asString(rec["original_column"]),
			Candidates:     asStrings(rec["candidates"]),
			Reason:         asString(rec["reason"]),
			SampleValues:   joinValues(rec["sample_values"]),
		})
	}
	return fields, diags
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asStrings(v any) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, asString(item))
		}
		return out
	default:
		return []string{asString(x)}
	}
}

// joinValues flattens sample values that the model emitted as a list.
func joinValues(v any) string {
	if items, ok := v.([]any); ok {
		return strings.Join(asStrings(items), ", ")
	}
	return asString(v)
}
