package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// SuspiciousPhrasesCheck flags notes containing known fraud-indicator
// phrases.
type SuspiciousPhrasesCheck struct {
	text        *TextAnalyzer
	phrases     []string
	tokens      []string
	highMatches int
}

// NewSuspiciousPhrasesCheck creates a SuspiciousPhrasesCheck.
func NewSuspiciousPhrasesCheck(text *TextAnalyzer, th Thresholds) *SuspiciousPhrasesCheck {
	return &SuspiciousPhrasesCheck{
		text:        text,
		phrases:     th.SuspiciousPhrases,
		tokens:      th.IndicatorTokens,
		highMatches: th.PhraseHighMatches,
	}
}

func (c *SuspiciousPhrasesCheck) Type() valueobject.AlarmType {
	return valueobject.AlarmSuspiciousTextPhrases
}

func (c *SuspiciousPhrasesCheck) Evaluate(_ context.Context, claim *model.Claim) CheckResult {
	matches := c.text.MatchPhrases(claim.Notes(), c.phrases, c.tokens)
	if len(matches) == 0 {
		return quiet()
	}

	sev := valueobject.SeverityMedium
	if len(matches) > c.highMatches {
		sev = valueobject.SeverityHigh
	}

	return raised(model.NewAlarm(c.Type(), sev,
		fmt.Sprintf("notes contain suspicious phrases: %s", strings.Join(matches, ", ")),
		model.Evidence{
			model.EvidenceMatches:    matches,
			model.EvidenceMatchCount: len(matches),
		}))
}

// SuspiciousKeywordsCheck combines fraud-pattern keywords with the
// negativity of the notes into a single score.
type SuspiciousKeywordsCheck struct {
	text        *TextAnalyzer
	keywords    []string
	weight      float64
	mediumAbove float64
	negativeMax float64
}

// NewSuspiciousKeywordsCheck creates a SuspiciousKeywordsCheck.
func NewSuspiciousKeywordsCheck(text *TextAnalyzer, th Thresholds) *SuspiciousKeywordsCheck {
	return &SuspiciousKeywordsCheck{
		text:        text,
		keywords:    th.FraudKeywords,
		weight:      th.KeywordWeight,
		mediumAbove: th.KeywordScoreMedium,
		negativeMax: th.NegativeSentiment,
	}
}

func (c *SuspiciousKeywordsCheck) Type() valueobject.AlarmType {
	return valueobject.AlarmSuspiciousKeywords
}

func (c *SuspiciousKeywordsCheck) Evaluate(_ context.Context, claim *model.Claim) CheckResult {
	notes := claim.Notes()
	if strings.TrimSpace(notes) == "" {
		return quiet()
	}

	found := c.text.MatchPhrases(notes, c.keywords, nil)
	sentiment := c.text.Sentiment(notes)

	if len(found) == 0 && sentiment >= c.negativeMax {
		return quiet()
	}

	score := math.Min(1, c.weight*float64(len(found))+math.Max(0, -sentiment))

	sev := valueobject.SeverityLow
	if score > c.mediumAbove {
		sev = valueobject.SeverityMedium
	}

	return raised(model.NewAlarm(c.Type(), sev,
		fmt.Sprintf("text analysis found %d fraud keywords with sentiment %.2f", len(found), sentiment),
		model.Evidence{
			model.EvidenceKeywords:     found,
			model.EvidenceKeywordCount: len(found),
			model.EvidenceSentiment:    sentiment,
			model.EvidenceScore:        score,
		}))
}
