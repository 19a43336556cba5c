package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// referenceRanges is the fixed clinical threshold table embedded in every
// analysis prompt. The engine is told to apply it verbatim.
const referenceRanges = `Reference ranges (apply these exactly):
- Systolic BP: below 135 normal; 135-139 stage 1 hypertension; 140 or above high.
- Diastolic BP: below 85 normal; 85-89 stage 1 hypertension; 90 or above high.
- Heart rate: 60-100 bpm normal.
STRICT RULE: if the patient's recent systolic readings are all below 135 AND
diastolic readings are all below 85, riskCategory MUST be "Low". Do not
escalate risk on borderline-normal blood pressure.`

// responseShape pins the engine's output to the contract the validator
// enforces. Anything outside this shape is rejected.
const responseShape = `Respond with ONLY a JSON object, no prose and no markdown, in exactly this shape:
{
  "riskCategory": "Low" | "Medium" | "High" | "Critical",
  "confidenceScore": <number 0-100>,
  "reasoning": "<concise clinical explanation>",
  "keyFactors": ["<factor>", ...],
  "medicationLinks": ["<relevant current medication>", ...],
  "recommendations": {
    "lifestyle": ["<suggestion>", ...],
    "medical": ["<suggestion>", ...]
  }
}`

// analysisPrompt renders the full prompt for one analysis run.
func analysisPrompt(bundle *ContextBundle) (string, error) {
	contextJSON, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode context bundle: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a clinical decision-support assistant reviewing one patient's recent data.\n\n")
	b.WriteString("Patient context (recent vitals newest first, recent visits, current medications):\n")
	b.Write(contextJSON)
	b.WriteString("\n\n")
	b.WriteString(referenceRanges)
	if bundle.SymptomText != "" {
		b.WriteString("\n\nReported symptoms for this run: ")
		b.WriteString(bundle.SymptomText)
	}
	b.WriteString("\n\n")
	b.WriteString(responseShape)
	return b.String(), nil
}

// chatPrompt grounds a follow-up question on a previously stored insight.
// Without one the engine answers in general terms and is told so.
func chatPrompt(ins *Insight, question string) string {
	var b strings.Builder
	b.WriteString("You are a clinical decision-support assistant answering a follow-up question ")
	b.WriteString("about a prior risk assessment for this patient.\n\n")
	if ins == nil {
		b.WriteString("No prior assessment is available for this conversation. ")
		b.WriteString("Answer in general terms, remind the patient that you have not reviewed ")
		b.WriteString("their data, and suggest running an analysis for a personalized assessment. ")
		b.WriteString("Keep the answer short and plain.\n\nQuestion: ")
		b.WriteString(question)
		return b.String()
	}
	fmt.Fprintf(&b, "Prior assessment (generated %s):\n", ins.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Risk category: %s (confidence %.0f)\n", ins.RiskCategory, ins.ConfidenceScore)
	fmt.Fprintf(&b, "- Reasoning: %s\n", ins.Reasoning)
	if len(ins.KeyFactors) > 0 {
		fmt.Fprintf(&b, "- Key factors: %s\n", strings.Join(ins.KeyFactors, "; "))
	}
	if len(ins.MedicationLinks) > 0 {
		fmt.Fprintf(&b, "- Related medications: %s\n", strings.Join(ins.MedicationLinks, "; "))
	}
	if len(ins.Recommendations.Lifestyle) > 0 {
		fmt.Fprintf(&b, "- Lifestyle recommendations: %s\n", strings.Join(ins.Recommendations.Lifestyle, "; "))
	}
	if len(ins.Recommendations.Medical) > 0 {
		fmt.Fprintf(&b, "- Medical recommendations: %s\n", strings.Join(ins.Recommendations.Medical, "; "))
	}
	b.WriteString("\nAnswer the question below using only the assessment above. ")
	b.WriteString("Stay grounded in it; if the assessment does not cover the question, say so. ")
	b.WriteString("Keep the answer short and plain.\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
