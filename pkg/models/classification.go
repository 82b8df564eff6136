package models

// Sentiment is the overall tone of a post. Unknown values parse to
// SentimentNeutral so an invalid classifier answer never propagates.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// ParseSentiment maps a raw classifier value onto the fixed set,
// defaulting to NEUTRAL.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

// Intent is the author's purpose behind a mention.
type Intent string

const (
	IntentPraise                Intent = "PRAISE"
	IntentFeatureRequest        Intent = "FEATURE_REQUEST"
	IntentComplaint             Intent = "COMPLAINT"
	IntentQuestion              Intent = "QUESTION"
	IntentGeneralMention        Intent = "GENERAL_MENTION"
	IntentCompetitiveComparison Intent = "COMPETITIVE_COMPARISON"
	IntentAirdropFUD            Intent = "AIRDROP_FUD"
	IntentScamAccusation        Intent = "SCAM_ACCUSATION"
	IntentSubscriptionComplaint Intent = "SUBSCRIPTION_COMPLAINT"
	IntentExecutionComplaint    Intent = "EXECUTION_COMPLAINT"
	IntentAffiliateViolation    Intent = "AFFILIATE_VIOLATION"
	IntentSpam                  Intent = "SPAM"
)

// ParseIntent maps a raw value onto the fixed set, defaulting to
// GENERAL_MENTION.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentPraise, IntentFeatureRequest, IntentComplaint, IntentQuestion,
		IntentGeneralMention, IntentCompetitiveComparison, IntentAirdropFUD,
		IntentScamAccusation, IntentSubscriptionComplaint,
		IntentExecutionComplaint, IntentAffiliateViolation, IntentSpam:
		return Intent(s)
	default:
		return IntentGeneralMention
	}
}

// StrategicCategory marks a post as a notable win, threat, or execution
// problem for the brand. The zero value means "none".
type StrategicCategory string

const (
	CategoryNone               StrategicCategory = ""
	CategoryStrategicWin       StrategicCategory = "STRATEGIC_WIN"
	CategoryAdoptionSignal     StrategicCategory = "ADOPTION_SIGNAL"
	CategoryCriticalFUD        StrategicCategory = "CRITICAL_FUD"
	CategoryAffiliateViolation StrategicCategory = "AFFILIATE_VIOLATION"
	CategoryExecutionIssue     StrategicCategory = "EXECUTION_ISSUE"
	CategoryRoutineNegative    StrategicCategory = "ROUTINE_NEGATIVE"
	CategoryNeutralMention     StrategicCategory = "NEUTRAL_MENTION"
)

// ParseCategory maps a raw value onto the fixed set, defaulting to none.
func ParseCategory(s string) StrategicCategory {
	switch StrategicCategory(s) {
	case CategoryStrategicWin, CategoryAdoptionSignal, CategoryCriticalFUD,
		CategoryAffiliateViolation, CategoryExecutionIssue,
		CategoryRoutineNegative, CategoryNeutralMention:
		return StrategicCategory(s)
	default:
		return CategoryNone
	}
}

// Urgency grades how fast a post needs human attention.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// ParseUrgency maps a raw value onto the fixed set, defaulting to LOW.
func ParseUrgency(s string) Urgency {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s)
	default:
		return UrgencyLow
	}
}

// Product identifies an entry of the fixed product catalog.
type Product string

const (
	ProductMobile   Product = "nansen_mobile"
	ProductRewards  Product = "season2_rewards"
	ProductTrading  Product = "nansen_trading"
	ProductInsights Product = "ai_insights"
	ProductPoints   Product = "nansen_points"
)

// ProductCatalog returns the fixed catalog in display order.
func ProductCatalog() []Product {
	return []Product{
		ProductMobile,
		ProductRewards,
		ProductTrading,
		ProductInsights,
		ProductPoints,
	}
}

// ParseProduct maps a raw value onto the catalog; unknown products are
// dropped (empty return).
func ParseProduct(s string) (Product, bool) {
	switch Product(s) {
	case ProductMobile, ProductRewards, ProductTrading, ProductInsights, ProductPoints:
		return Product(s), true
	default:
		return "", false
	}
}

// Classification is the validated analysis of one post.
type Classification struct {
	Sentiment  Sentiment         `json:"sentiment"`
	Intent     Intent            `json:"intent"`
	Category   StrategicCategory `json:"strategic_category,omitempty"`
	Urgency    Urgency           `json:"urgency"`
	Products   []Product         `json:"products,omitempty"`
	Themes     []string          `json:"themes,omitempty"`
	Confidence int               `json:"confidence"`
	KeyQuote   string            `json:"key_quote,omitempty"`
}

// DefaultClassification is the documented fallback applied when the
// classifier's output for a batch is unusable after retries.
func DefaultClassification() Classification {
	return Classification{
		Sentiment:  SentimentNeutral,
		Intent:     IntentGeneralMention,
		Category:   CategoryNone,
		Urgency:    UrgencyLow,
		Confidence: 0,
	}
}
