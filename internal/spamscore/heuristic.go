package spamscore

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
)

// RiskLevel bands a content score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (r RiskLevel) String() string { return string(r) }

// Source names which scorer produced an analysis.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAnalyzer  Source = "analyzer"
)

const (
	MaxScore          = 100
	MinPredictedInbox = 30
	MaxSubjectLength  = 60
	MinBodyLength     = 50
	MaxLinks          = 3

	weightLongSubject     = 10
	weightSubjectTrigger  = 15
	weightUpperSubject    = 20
	weightTooManyLinks    = 15
	weightBodyTrigger     = 10
	weightShortBody       = 10
	bonusPersonalization  = 10
	bonusColdOutreachLink = 5

	LooksGoodRecommendation = "Your email looks good overall"
)

// TriggerWords is the spam lexicon matched case-insensitively as substrings.
var TriggerWords = []string{
	"free",
	"guarantee",
	"no obligation",
	"winner",
	"cash",
	"prize",
	"urgent",
	"act now",
	"limited time",
}

var (
	linkMarkers            = []string{"http://", "https://"}
	personalizationMarkers = []string{"{{", "{%"}
)

// Content is the message being scored.
type Content struct {
	Subject string
	Body    string
	Mode    domain.Mode
}

// Analysis is the result of scoring one message.
type Analysis struct {
	Score              int
	RiskLevel          RiskLevel
	Recommendations    []string
	PredictedInboxRate int
	RiskFactors        []string
	PositiveFactors    []string
	Source             Source
}

// Heuristic scores content against a fixed checklist. It never fails.
func Heuristic(c Content) Analysis {
	var (
		score           int
		riskFactors     []string
		positiveFactors []string
		recommendations []string
	)

	subjectLower := strings.ToLower(c.Subject)
	bodyLower := strings.ToLower(c.Body)
	links := countLinks(c.Body)
	shortBody := utf8.RuneCountInString(c.Body) < MinBodyLength

	if utf8.RuneCountInString(c.Subject) > MaxSubjectLength {
		score += weightLongSubject
		riskFactors = append(riskFactors, "Subject line too long")
		recommendations = append(recommendations, fmt.Sprintf("Keep subject under %d characters", MaxSubjectLength))
	}
	if containsTrigger(subjectLower) {
		score += weightSubjectTrigger
		riskFactors = append(riskFactors, "Spam trigger words in subject")
		recommendations = append(recommendations, "Remove spam trigger words")
	}
	if isUpperCase(c.Subject) {
		score += weightUpperSubject
		riskFactors = append(riskFactors, "All caps subject line")
		recommendations = append(recommendations, "Use sentence case")
	}
	if links > MaxLinks {
		score += weightTooManyLinks
		riskFactors = append(riskFactors, fmt.Sprintf("Too many links (%d)", links))
		recommendations = append(recommendations, "Reduce links to 1-2 for cold outreach")
	}
	if containsTrigger(bodyLower) {
		score += weightBodyTrigger
		riskFactors = append(riskFactors, "Spam trigger words in body")
	}
	if shortBody {
		score += weightShortBody
		riskFactors = append(riskFactors, "Email too short")
		recommendations = append(recommendations, "Add more context (aim for 100-200 words)")
	}

	if hasPersonalization(c.Body) {
		score -= bonusPersonalization
		positiveFactors = append(positiveFactors, "Uses personalization tokens")
		recommendations = append(recommendations, "Good: Using personalization tokens")
	}
	// A near-empty body does not earn the low-link credit.
	if c.Mode == domain.ModeColdOutreach && links <= 1 && !shortBody {
		score -= bonusColdOutreachLink
		positiveFactors = append(positiveFactors, "Low link count for cold outreach")
	}

	score = clampScore(score)
	if len(recommendations) == 0 {
		recommendations = []string{LooksGoodRecommendation}
	}

	return Analysis{
		Score:              score,
		RiskLevel:          RiskLevelFor(score),
		Recommendations:    recommendations,
		PredictedInboxRate: PredictedInboxRate(score),
		RiskFactors:        riskFactors,
		PositiveFactors:    positiveFactors,
		Source:             SourceHeuristic,
	}
}

func RiskLevelFor(score int) RiskLevel {
	switch {
	case score < 20:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func PredictedInboxRate(score int) int {
	return max(MinPredictedInbox, MaxScore-clampScore(score))
}

func clampScore(score int) int {
	return min(max(score, 0), MaxScore)
}

func containsTrigger(lower string) bool {
	for _, word := range TriggerWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func countLinks(body string) int {
	n := 0
	for _, marker := range linkMarkers {
		n += strings.Count(body, marker)
	}
	return n
}

func hasPersonalization(body string) bool {
	for _, marker := range personalizationMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// isUpperCase requires at least one cased letter and no lower-case ones.
func isUpperCase(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}
