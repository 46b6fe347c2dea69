package orchestrator

import (
	"fmt"

	"github.com/yangwenmai/lexdraft/internal/engine"
	"github.com/yangwenmai/lexdraft/internal/model"
)

// clauseContextRunes bounds how much of a draft is sent for clause suggestions.
const clauseContextRunes = 2000

func orGeneral(jurisdiction, fallback string) string {
	if jurisdiction == "" {
		return fallback
	}
	return jurisdiction
}

func buildDraftPrompt(caseType, facts, jurisdiction string) string {
	speciality := orGeneral(jurisdiction, "general")
	return fmt.Sprintf(`You are an expert legal assistant specializing in %s law. Generate a comprehensive, professional legal draft document for the following case:

Case Type: %s
Jurisdiction: %s
Case Details: %s

Generate a complete legal draft following this structure:
1. Title and Header (with case type, date, jurisdiction)
2. Parties Involved (identify from case details)
3. Factual Background (detailed summary of the case)
4. Legal Issues (identify key legal questions)
5. Applicable Laws and Legal Provisions (cite relevant statutes, acts, case law)
6. Legal Arguments and Analysis
7. Prayers/Relief Sought (specific remedies requested)
8. Conclusion and Submission

Use formal legal language, proper legal citation format, and professional structure. The draft should be ready for review by a legal professional. Include appropriate legal terminology and formatting for %s jurisdiction.`,
		speciality, caseType, orGeneral(jurisdiction, "General"), facts, speciality)
}

func buildProofreadPrompt(text string) string {
	return fmt.Sprintf(`You are a legal proofreading expert. Analyze the following legal draft and provide:

1. Grammar and Spelling Errors (if any)
2. Legal Terminology Accuracy
3. Document Structure Assessment
4. Specific Improvement Suggestions

Be thorough and professional. Format your response clearly.

Draft to proofread:
%s`, text)
}

func buildClausePrompt(text string) string {
	return fmt.Sprintf(`You are a legal clause expert. Based on the following legal draft, suggest 5-7 additional important clauses that should be considered for inclusion.

For each suggested clause provide:
1. Clause Name
2. Brief description of why it's important
3. Sample text for the clause

Draft:
%s

Provide professional, legally sound suggestions.`, engine.TruncateRunes(text, clauseContextRunes))
}

func buildCaseSearchPrompt(query string) string {
	return fmt.Sprintf(`You are an Indian legal research expert. Search for and provide 5-8 relevant Indian court cases related to: %q

For each case provide in this EXACT format (one case per block):

CASE 1:
Title: [Full case name]
Citation: [AIR/SCC citation]
Year: [Year]
Court: [Supreme Court of India / High Court name]
Summary: [2-3 line summary of the judgment]
Relevance: [Area of law]

Provide real, accurate Indian cases only. If searching for keywords, find the most landmark/important cases.`, query)
}

func buildStatuteSearchPrompt(query string) string {
	return fmt.Sprintf(`You are an Indian legal expert. Provide information about Indian laws/acts related to: %q

If it's a specific section (like "IPC 302", "Section 498A"), provide detailed information about that section.
If it's a general query (like "contract", "criminal"), list 5-8 relevant Indian Acts/Sections.

Provide in this EXACT format (one per block):

ACT 1:
Title: [Full Act name and year]
Sections: [Number of sections or specific section number]
Description: [2-3 line description]
Keywords: [Comma-separated relevant terms]

Provide real, accurate Indian legislation only.`, query)
}

func buildLookupPrompt(term string) string {
	return fmt.Sprintf(`You are an expert in Indian legal terminology. Provide a comprehensive explanation of the legal term or section: %q

If it's an IPC/CrPC/CPC section (like "IPC 302" or "Section 498A"), provide:
1. Full section text/title
2. What it covers (in simple language)
3. Essential elements/ingredients
4. Punishment (if applicable)
5. Bailable/Non-bailable, Cognizable/Non-cognizable (if criminal)

If it's a legal term (like "Habeas Corpus" or "Prima Facie"), provide:
1. Definition in simple language
2. Origin (Latin/English/Indian)
3. How it's used in Indian legal context
4. Example usage in court

Be concise but comprehensive. Use bullet points for clarity.`, term)
}

// buildPrompt maps a request onto its prompt text. It is a pure function of
// the request fields.
func buildPrompt(req model.GenerationRequest) string {
	switch req.Kind {
	case model.KindDraft:
		return buildDraftPrompt(req.CaseType, req.Facts, req.Jurisdiction)
	case model.KindProofread:
		return buildProofreadPrompt(req.Text)
	case model.KindClauseSuggestion:
		return buildClausePrompt(req.Text)
	case model.KindCaseSearch:
		return buildCaseSearchPrompt(req.Query)
	case model.KindStatuteSearch:
		return buildStatuteSearchPrompt(req.Query)
	case model.KindDictionaryLookup:
		return buildLookupPrompt(req.Query)
	}
	return ""
}
