package classify

import (
	"regexp"
	"strings"

	"NewsRadar/internal/domain"
)

var macroTerms = []string{
	`\bcpi\b`, `\bpce\b`, `\binflation\b`, `\bdeflation\b`,
	`\bfomc\b`, `rate hike`, `rate cut`, `\bfed\b`, `\becb\b`, `\bboj\b`, `\bpboc\b`,
	`\btreasury\b`, `\byield(s)?\b`, `\bbond(s)?\b`, `\bgdp\b`, `\bpmi\b`,
	`\bunemployment\b`, `\bjobs?\b`, `\bnonfarm\b`, `\bmanufacturing\b`, `\bservices\b`,
	`\bqe\b`, `\bqt\b`, `\brecession\b`, `soft landing`, `stagflation`,
}

var cryptoTerms = []string{
	`\bbitcoin\b`, `\bbtc\b`, `\beth(ereum)?\b`, `\bsol(ana)?\b`,
	`layer ?2`, `\brollup(s)?\b`, `\bdefi\b`, `\bstablecoin(s)?\b`,
	`\betf\b`, `\bsec\b`, `\bregulation\b`, `\bexchange(s)?\b`, `\bcex\b`, `\bdex\b`,
	`\bbinance\b`, `\bcoinbase\b`, `\bstaking\b`, `\brestaking\b`, `\bairdrops?\b`,
	`\bperpetual(s)?\b`, `\bonchain\b`, `\btoken(s)?\b`, `\bnft(s)?\b`,
}

var priorityTerms = []string{
	`\bhyper ?liquid\b`, `\bhl perps?\b`, `hyperliquid exchange`,
}

var (
	macroRegex    = compileFamily(macroTerms)
	cryptoRegex   = compileFamily(cryptoTerms)
	priorityRegex = compileFamily(priorityTerms)
)

func compileFamily(terms []string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + strings.Join(terms, "|"))
}

// Classifier matches item text against the macro, crypto, and priority
// keyword families. Zero value is not usable; construct with New.
type Classifier struct {
	strict bool
}

// New builds a classifier; strict narrows inclusion to strong matches.
func New(strict bool) *Classifier {
	return &Classifier{strict: strict}
}

// Classify runs all three families over the text. A priority hit
// short-circuits to full inclusion and cross-tags both families.
func (c *Classifier) Classify(text string) domain.Classification {
	if priorityRegex.MatchString(text) {
		return domain.Classification{Include: true, Macro: true, Crypto: true, Priority: true}
	}

	macroHits := macroRegex.FindAllString(text, -1)
	cryptoHits := cryptoRegex.FindAllString(text, -1)
	macro := len(macroHits) > 0
	crypto := len(cryptoHits) > 0

	if c.strict {
		strong := (macro && crypto) || len(macroHits) >= 2 || len(cryptoHits) >= 2
		return domain.Classification{Include: strong, Macro: macro, Crypto: crypto}
	}

	return domain.Classification{Include: macro || crypto, Macro: macro, Crypto: crypto}
}

// MatchesAnyFamily reports a weak (single-family) match, used by the
// strict-mode sentiment rescue path.
func MatchesAnyFamily(cls domain.Classification) bool {
	return cls.Macro || cls.Crypto
}

type displayKeyword struct {
	name    string
	pattern *regexp.Regexp
}

var displayKeywords = buildDisplayKeywords()

func buildDisplayKeywords() []displayKeyword {
	raw := []struct{ name, pattern string }{
		{"cpi", `\bcpi\b`}, {"pce", `\bpce\b`}, {"inflation", `\binflation\b`}, {"deflation", `\bdeflation\b`},
		{"FOMC", `\bfomc\b`}, {"rate hike", `rate hike`}, {"rate cut", `rate cut`}, {"Fed", `\bfed\b`},
		{"ECB", `\becb\b`}, {"BOJ", `\bboj\b`}, {"PBOC", `\bpboc\b`},
		{"yields", `\byield(s)?\b`}, {"bonds", `\bbond(s)?\b`},
		{"GDP", `\bgdp\b`}, {"PMI", `\bpmi\b`}, {"jobs", `\bjobs?\b`}, {"unemployment", `\bunemployment\b`},
		{"QE", `\bqe\b`}, {"QT", `\bqt\b`}, {"recession", `\brecession\b`},
		{"Bitcoin", `\bbitcoin\b|\bbtc\b`}, {"Ethereum", `\beth(ereum)?\b`},
		{"Solana", `\bsol(ana)?\b`}, {"ETF", `\betf\b`}, {"SEC", `\bsec\b`},
		{"stablecoin", `\bstablecoin(s)?\b`}, {"DeFi", `\bdefi\b`},
		{"exchange", `\bexchange(s)?\b|\bcex\b|\bdex\b`},
		{"staking", `\bstaking\b|\brestaking\b`}, {"perpetuals", `\bperpetual(s)?\b`},
		{"token", `\btoken(s)?\b`}, {"NFT", `\bnft(s)?\b`},
		{"Hyperliquid", `\bhyper ?liquid\b|\bhl perps?\b`},
	}

	compiled := make([]displayKeyword, 0, len(raw))
	for _, kw := range raw {
		compiled = append(compiled, displayKeyword{name: kw.name, pattern: regexp.MustCompile("(?i)" + kw.pattern)})
	}
	return compiled
}

// PickKeywords returns up to limit display names matched in the text,
// in the fixed table order.
func PickKeywords(text string, limit int) []string {
	var picked []string
	for _, kw := range displayKeywords {
		if len(picked) >= limit {
			break
		}
		if kw.pattern.MatchString(text) {
			picked = append(picked, kw.name)
		}
	}
	return picked
}

var impactRules = []struct {
	cues []string
	note string
}{
	{[]string{"rate hike", "hawkish"}, "Tighter policy; typically risk-off for duration-sensitive assets."},
	{[]string{"rate cut", "dovish"}, "Easier policy; typically supportive for risk assets and liquidity."},
	{[]string{"etf approval", "spot etf", "etf launch"}, "Mainstream access → potential inflows and volatility."},
	{[]string{"liquidity crunch", "funding stress", "bank run"}, "Funding stress; spillovers to broader markets possible."},
	{[]string{"regulation", "sec charges", "lawsuit"}, "Regulatory overhang; headline risk for tokens/exchanges."},
	{[]string{"inflation cools", "disinflation"}, "Cooling prices; supports rate-cut odds and risk appetite."},
	{[]string{"inflation surges", "reacceleration"}, "Hot inflation; pressures yields and weighs on risk assets."},
}

// WhyItMatters maps the first matched market cue to a one-line note,
// or "" when no rule applies.
func WhyItMatters(text string) string {
	t := strings.ToLower(text)
	for _, rule := range impactRules {
		for _, cue := range rule.cues {
			if strings.Contains(t, cue) {
				return rule.note
			}
		}
	}
	return ""
}
