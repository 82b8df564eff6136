package classify

import (
	"fmt"
	"strings"

	"github.com/brandpulse/brandpulse/pkg/models"
	"github.com/brandpulse/brandpulse/pkg/utils"
)

// PromptVersion is part of every cache key. Bump it whenever the system
// prompt or the response schema changes so stale classifications are not
// served from cache.
const PromptVersion = "v3"

// SystemPrompt returns the fixed instruction block sent with every batch.
func SystemPrompt(brand string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a brand intelligence analyst monitoring social media mentions of %s, an on-chain analytics company.

Product catalog (use these exact identifiers):
- nansen_mobile: the mobile app
- season2_rewards: the Season 2 points/rewards program
- nansen_trading: the trading/execution product
- ai_insights: AI-generated research and signals
- nansen_points: the loyalty points system

Watch for these concern patterns:
- Scam/fraud/rugpull accusations against the brand (CRITICAL_FUD)
- Affiliates or influencers promising guaranteed returns (AFFILIATE_VIOLATION)
- Outages, failed trades, stuck withdrawals (EXECUTION_ISSUE)
- Pricing or subscription complaints (ROUTINE_NEGATIVE)

For each numbered post, produce one JSON object with fields:
  sentiment: POSITIVE | NEGATIVE | NEUTRAL | MIXED
  intent: PRAISE | FEATURE_REQUEST | COMPLAINT | QUESTION | GENERAL_MENTION | COMPETITIVE_COMPARISON | AIRDROP_FUD | SCAM_ACCUSATION | SUBSCRIPTION_COMPLAINT | EXECUTION_COMPLAINT | AFFILIATE_VIOLATION | SPAM
  strategic_category: STRATEGIC_WIN | ADOPTION_SIGNAL | CRITICAL_FUD | AFFILIATE_VIOLATION | EXECUTION_ISSUE | ROUTINE_NEGATIVE | NEUTRAL_MENTION or "" when none applies
  urgency: LOW | MEDIUM | HIGH
  products: array of catalog identifiers mentioned (may be empty)
  themes: array of short lowercase theme tags (may be empty)
  confidence: integer 0-100
  key_quote: the most representative phrase from the post

Respond with ONLY a JSON array containing exactly one object per post, in
the same order as the posts. No prose, no markdown fences.`, brand)
	return b.String()
}

// BuildUserPrompt numbers the batch's posts. The numbering is the
// correlation mechanism between input posts and response elements.
func BuildUserPrompt(posts []models.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify these %d posts:\n\n", len(posts))
	for i, p := range posts {
		text := utils.TruncateWords(utils.Sanitize(p.Text), 600)
		fmt.Fprintf(&b, "%d. [@%s, %s followers] %s\n",
			i+1, p.AuthorHandle, utils.FormatCount(p.AuthorFollowers), text)
	}
	return b.String()
}
