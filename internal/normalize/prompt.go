// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"fmt"
	"text/template"
)

// systemPrompt frames the model as a registry search expert.
const systemPrompt = `You are a ClinicalTrials.gov expert tasked with making a markdown-format dictionary. Correct, expand, and optimise the following disease list for use as search terms on ClinicalTrials.gov.`

// termPromptTmpl asks for a two-column tab-separated table mapping every
// input name to a registry search term. The names follow one per line.
var termPromptTmpl = template.Must(template.New("terms").Parse(`Rules:
- Correct spelling errors and ensure US English.
- Replace abbreviations and shorthand (e.g., "ACS", "NDD") with full clinical terms.
- Expand vague or umbrella terms to include specific, relevant diseases or comorbidities.
- Include comorbidities commonly studied in relation to the disease if relevant (e.g., disrupted sleep, anxiety, cognitive impairment).
- Remove duplicates and synonyms while keeping medically precise, search-friendly terms.
- Return a table with each of the original values from the "input disease list" together with the new term suitable for use with ClinicalTrials.gov
- No explanations, no JSON formatting, just a simple tab-separated list of each old term and the corresponding new terms
- Return quickly.

Input disease list:
{{range .}}{{.}}
{{end}}`))

// buildPrompt renders the user prompt for names.
func buildPrompt(names []string) (string, error) {
	var buf bytes.Buffer
	if err := termPromptTmpl.Execute(&buf, names); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
