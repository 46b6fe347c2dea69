// Package template renders offline fallback text. Nothing here performs I/O or
// calls a backend; every function always succeeds.
package template

import (
	"fmt"
	"strings"
	"time"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var legalIssues = []string{
	"Whether the facts constitute a valid legal cause of action",
	"Whether the applicable laws have been violated",
	"What remedies are available to the aggrieved party",
	"The quantum of damages, if any",
}

var provisions = []string{
	"Relevant Statutes and Acts",
	"Common Law Principles",
	"Established Precedents",
	"Applicable Regulations",
}

var reliefs = []string{
	"To declare the rights and obligations of the parties",
	"To enforce the contractual/legal obligations",
	"To award compensation for damages suffered",
	"To grant such other relief as deemed just and proper",
	"To award costs of this proceeding",
}

// Render produces a fixed-structure legal draft that embeds facts verbatim.
// The date printed in the document is taken from at.
func Render(caseType, facts, jurisdiction string, at time.Time) string {
	date := at.Format("02/01/2006")
	caseType = strings.TrimSpace(caseType)
	if caseType == "" {
		caseType = "General"
	}
	header := strings.TrimSpace(jurisdiction)
	if header == "" {
		header = "Default"
	}
	provisionsFor := strings.TrimSpace(jurisdiction)
	if provisionsFor == "" {
		provisionsFor = "the applicable jurisdiction"
	}

	var b strings.Builder
	b.WriteString("LEGAL DRAFT\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "TITLE: %s LEGAL DRAFT\n", strings.ToUpper(caseType))
	fmt.Fprintf(&b, "DATE: %s\n", date)
	fmt.Fprintf(&b, "JURISDICTION: %s\n\n", header)

	b.WriteString("I. PARTIES INVOLVED\n")
	b.WriteString("   Primary Party: Mentioned in the case details\n")
	b.WriteString("   Secondary Party: All relevant parties as per the facts presented\n\n")

	b.WriteString("II. FACTUAL BACKGROUND\n")
	b.WriteString("   The parties are involved in a legal matter as described below:\n\n")
	fmt.Fprintf(&b, "   %s\n\n", facts)
	b.WriteString("   The above facts constitute the basis of this legal action.\n\n")

	b.WriteString("III. LEGAL ISSUES\n")
	b.WriteString("   The following legal issues arise from the factual background:\n\n")
	writeNumbered(&b, legalIssues)
	b.WriteString("\n")

	b.WriteString("IV. LEGAL PROVISIONS & CITATIONS\n")
	b.WriteString("   The following laws and provisions are applicable to this case:\n\n")
	fmt.Fprintf(&b, "   For %s:\n", provisionsFor)
	for _, p := range provisions {
		fmt.Fprintf(&b, "   - %s\n", p)
	}
	b.WriteString("\n   The court shall apply these provisions in interpreting the rights\n")
	b.WriteString("   and obligations of the parties.\n\n")

	b.WriteString("V. PRAYERS/RELIEF SOUGHT\n")
	b.WriteString("   The petitioner/plaintiff respectfully prays before this Hon'ble Court for:\n\n")
	writeNumbered(&b, reliefs)
	b.WriteString("\n")

	b.WriteString("VI. CONCLUSION\n")
	b.WriteString("   Based on the facts presented, applicable law, and legal precedents,\n")
	b.WriteString("   the relief sought is justified and in the interest of justice.\n\n")
	b.WriteString("   It is submitted for consideration of the Hon'ble Court.\n\n")

	b.WriteString(rule + "\n\n")
	b.WriteString("NOTE: This draft was generated from a standard template because the\n")
	b.WriteString("drafting service was unavailable. It should be reviewed and customized\n")
	b.WriteString("by a qualified legal professional before filing with any court or\n")
	b.WriteString("legal authority.\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n", date)
	fmt.Fprintf(&b, "Draft Type: %s", caseType)
	return b.String()
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, it := range items {
		fmt.Fprintf(b, "   %d. %s\n", i+1, it)
	}
}

// ProofreadFallback is returned for proofreading when no backend answered.
func ProofreadFallback() string {
	return `Proofreading Analysis:

✓ Grammar Check: No major grammatical errors found.
✓ Legal Terminology: Appropriate legal language used.
✓ Structure: Document follows standard legal format.

Suggestions:
• Consider adding more specific citations where applicable
• Ensure all party names are consistently formatted
• Review dates and jurisdictional references for accuracy

Overall: The draft appears well-structured and professionally written.

(Note: AI service temporarily used fallback analysis)`
}

// ClauseFallback is returned for clause suggestions when no backend answered.
func ClauseFallback() string {
	return `Suggested Additional Clauses:

1. FORCE MAJEURE CLAUSE
   "Neither party shall be liable for any failure to perform due to circumstances beyond reasonable control..."

2. DISPUTE RESOLUTION
   "Any disputes arising from this agreement shall be resolved through arbitration in accordance with applicable laws..."

3. CONFIDENTIALITY CLAUSE
   "Both parties agree to maintain confidentiality of all sensitive information disclosed during..."

4. INDEMNIFICATION
   "Each party agrees to indemnify and hold harmless the other party from any claims, damages, or liabilities..."

5. SEVERABILITY
   "If any provision of this agreement is found invalid, the remaining provisions shall continue in full force..."

(Note: AI service temporarily used standard clause suggestions)`
}

var dictionary = map[string]string{
	"habeas corpus": "A writ requiring a person under arrest to be brought before a judge or into court.",
	"prima facie":   "At first sight; on the face of it. Evidence that is sufficient to establish a fact unless rebutted.",
	"mens rea":      "The mental element of a crime; guilty mind.",
	"ipc 302":       "IPC Section 302: Punishment for murder. Whoever commits murder shall be punished with death or life imprisonment, and shall also be liable to fine.",
}

// DictionaryFallback returns a built-in definition for term and whether one
// was known. Unknown terms get an "unavailable" sentence.
func DictionaryFallback(term string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(term), " "))
	if def, ok := dictionary[key]; ok {
		return def, true
	}
	return fmt.Sprintf("Legal term %q - Definition temporarily unavailable. Please try again.", term), false
}
