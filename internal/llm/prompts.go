// ABOUTME: Prompt construction for initial analysis, revision, and research calls
// ABOUTME: Templates take the campaign spec plus whatever turn context applies

package llm

import (
	"fmt"
	"strings"

	"github.com/2389/campaign-gateway/internal/store"
)

func initialPrompt(spec store.CampaignSpec) string {
	return fmt.Sprintf(`You are an AI marketing strategist creating a campaign strategy.

Campaign details:
- Product: %s
- Goal: %s
- Budget: %s

Create a marketing campaign proposal that maximizes ROI and conversion rates. Cover:
1. Campaign strategy and messaging
2. Channel allocation and budget distribution
3. Target audience segmentation
4. Timeline and KPIs
5. Creative direction

Format as a business proposal with specific budget allocations and tactics.`,
		spec.ProductName, spec.CampaignGoal, spec.TotalBudget)
}

func revisionPrompt(spec store.CampaignSpec, proposal, guidance string, research []store.ResearchNote) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are revising a marketing campaign proposal based on reviewer feedback.

Product: %s
Goal: %s
Budget: %s

Current proposal:
%s

Reviewer guidance:
%s
`, spec.ProductName, spec.CampaignGoal, spec.TotalBudget, proposal, guidance)

	if len(research) > 0 {
		b.WriteString("\nResearch gathered during review:\n")
		for _, note := range research {
			fmt.Fprintf(&b, "- %s: %s\n", note.Topic, note.Content)
		}
	}

	b.WriteString(`
Produce a complete revised proposal that addresses the guidance while keeping
the campaign effective. Weigh brand safety, cultural sensitivity, regulatory
compliance, and long-term brand value against short-term gains, and explain
the changes made.`)
	return b.String()
}

func researchPrompt(spec store.CampaignSpec, topic string) string {
	return fmt.Sprintf(`You are a marketing research analyst gathering information for a campaign.

Product: %s
Goal: %s

Research request: %s

Provide detailed research and analysis on the requested topic: relevant data,
industry best practices, potential risks, regulatory considerations,
competitor analysis where relevant, and cultural and social considerations.
Be thorough and actionable.`, spec.ProductName, spec.CampaignGoal, topic)
}

func labelPrompt(text string) string {
	return fmt.Sprintf(`Classify the reviewer message below into exactly one of these intents:
approve, reject, request_info, revise, escalate, unrecognized.

Respond with the single intent word and nothing else.

Message:
%s`, text)
}
