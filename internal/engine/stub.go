package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubClient returns canned legal text (for development without API keys).
type StubClient struct{}

func (m *StubClient) Complete(_ context.Context, model, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "CASE 1:"):
		return `CASE 1:
Title: Kesavananda Bharati v. State of Kerala
Citation: AIR 1973 SC 1461
Year: 1973
Court: Supreme Court of India
Summary: [Stub] Established the basic structure doctrine limiting Parliament's power to amend the Constitution.
Relevance: Constitutional Law

CASE 2:
Title: Maneka Gandhi v. Union of India
Citation: AIR 1978 SC 597
Year: 1978
Court: Supreme Court of India
Summary: [Stub] Expanded the scope of personal liberty under Article 21.
Relevance: Fundamental Rights`, nil

	case strings.Contains(prompt, "ACT 1:"):
		return `ACT 1:
Title: Indian Contract Act, 1872
Sections: 238
Description: [Stub] Governs the formation and enforcement of contracts in India.
Keywords: contract, offer, acceptance, consideration

ACT 2:
Title: Specific Relief Act, 1963
Sections: 44
Description: [Stub] Provides remedies for the enforcement of individual civil rights.
Keywords: specific performance, injunction`, nil

	case strings.Contains(prompt, "explanation of the legal term"):
		return "[Stub] Definition in simple language, origin, usage in Indian legal context and an example.", nil
	}

	return fmt.Sprintf("[Stub %s] Generated on %s.\n\n%s", model, time.Now().UTC().Format(time.RFC3339), firstLine(prompt)), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
