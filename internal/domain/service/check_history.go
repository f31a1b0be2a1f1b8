package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/claimrisk/internal/domain/model"
	"github.com/bibbank/claimrisk/internal/domain/port"
	"github.com/bibbank/claimrisk/internal/domain/valueobject"
)

// HighAmountCheck flags claims that exceed a fixed ceiling or are outliers
// against the claimant's own history.
type HighAmountCheck struct {
	refs        port.ReferenceData
	ceiling     decimal.Decimal
	avgMultiple float64
	iqrMult     float64
	minSamples  int
	window      time.Duration
}

// NewHighAmountCheck creates a HighAmountCheck.
func NewHighAmountCheck(refs port.ReferenceData, th Thresholds) *HighAmountCheck {
	return &HighAmountCheck{
		refs:        refs,
		ceiling:     decimal.NewFromFloat(th.HighAmount),
		avgMultiple: th.HighAmountAvgMultiple,
		iqrMult:     th.IQRMultiplier,
		minSamples:  th.IQRMinSamples,
		window:      th.HistoryWindow,
	}
}

func (c *HighAmountCheck) Type() valueobject.AlarmType { return valueobject.AlarmHighAmount }

func (c *HighAmountCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	amount := claim.Amount()
	var triggers []string

	if amount.GreaterThan(c.ceiling) {
		triggers = append(triggers, "above_ceiling")
	}

	ts := claim.Timestamp()
	history, err := c.refs.LookupClaimHistory(ctx, claim.ClaimantID(), ts.Add(-c.window), ts)
	if err == nil {
		value := amount.InexactFloat64()
		if history.AverageAmount > 0 && value > c.avgMultiple*history.AverageAmount {
			triggers = append(triggers, "above_average_multiple")
		}
		if len(history.Amounts) >= c.minSamples {
			q1, q3 := quartiles(history.Amounts)
			if value > q3+c.iqrMult*(q3-q1) {
				triggers = append(triggers, "iqr_outlier")
			}
		}
	}

	result := quiet()
	if len(triggers) > 0 {
		evidence := model.Evidence{
			model.EvidenceAmount:   amount.InexactFloat64(),
			model.EvidenceTriggers: triggers,
		}
		if err == nil {
			evidence[model.EvidenceAverage] = history.AverageAmount
		}
		result = raised(model.NewAlarm(c.Type(), valueobject.SeverityHigh,
			fmt.Sprintf("claim amount %s flagged: %s", amount.StringFixed(2), strings.Join(triggers, ", ")),
			evidence))
	}

	if err != nil {
		return markDegraded(result, referenceUnavailable("claim history lookup", err))
	}
	return result
}

// RepeatClaimantCheck flags claimants with many recent claims.
type RepeatClaimantCheck struct {
	refs   port.ReferenceData
	limit  int
	window time.Duration
}

// NewRepeatClaimantCheck creates a RepeatClaimantCheck.
func NewRepeatClaimantCheck(refs port.ReferenceData, th Thresholds) *RepeatClaimantCheck {
	return &RepeatClaimantCheck{refs: refs, limit: th.RepeatClaimLimit, window: th.HistoryWindow}
}

func (c *RepeatClaimantCheck) Type() valueobject.AlarmType { return valueobject.AlarmRepeatClaimant }

func (c *RepeatClaimantCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	ts := claim.Timestamp()
	history, err := c.refs.LookupClaimHistory(ctx, claim.ClaimantID(), ts.Add(-c.window), ts)
	if err != nil {
		return CheckResult{Err: referenceUnavailable("claim history lookup", err)}
	}
	if history.Count <= c.limit {
		return quiet()
	}
	return raised(model.NewAlarm(c.Type(), valueobject.SeverityMedium,
		fmt.Sprintf("claimant filed %d claims in the trailing window", history.Count),
		model.Evidence{model.EvidenceCount: history.Count}))
}

// DuplicateClaimsCheck flags notes that closely repeat one of the claimant's
// recent claims.
type DuplicateClaimsCheck struct {
	refs      port.ReferenceData
	text      *TextAnalyzer
	threshold float64
	limit     int
}

// NewDuplicateClaimsCheck creates a DuplicateClaimsCheck.
func NewDuplicateClaimsCheck(refs port.ReferenceData, text *TextAnalyzer, th Thresholds) *DuplicateClaimsCheck {
	return &DuplicateClaimsCheck{
		refs:      refs,
		text:      text,
		threshold: th.DuplicateSimilarity,
		limit:     th.PriorNotesLimit,
	}
}

func (c *DuplicateClaimsCheck) Type() valueobject.AlarmType { return valueobject.AlarmDuplicateClaims }

func (c *DuplicateClaimsCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	if strings.TrimSpace(claim.Notes()) == "" {
		return quiet()
	}

	prior, err := c.refs.LookupPriorNotes(ctx, claim.ClaimantID(), c.limit)
	if err != nil {
		return CheckResult{Err: referenceUnavailable("prior notes lookup", err)}
	}

	best := 0.0
	for _, notes := range prior {
		if sim := c.text.Similarity(claim.Notes(), notes); sim > best {
			best = sim
		}
	}
	if best <= c.threshold {
		return quiet()
	}

	return raised(model.NewAlarm(c.Type(), valueobject.SeverityHigh,
		fmt.Sprintf("notes are %.0f%% similar to a prior claim", best*100),
		model.Evidence{model.EvidenceSimilarity: best}))
}

// TimePatternsCheck flags incidents at unusual hours and claims filed in
// quick succession.
type TimePatternsCheck struct {
	refs      port.ReferenceData
	startHour int
	endHour   int
	minGap    time.Duration
	window    time.Duration
	weekend   bool
}

// NewTimePatternsCheck creates a TimePatternsCheck.
func NewTimePatternsCheck(refs port.ReferenceData, th Thresholds) *TimePatternsCheck {
	return &TimePatternsCheck{
		refs:      refs,
		startHour: th.UnusualHourStart,
		endHour:   th.UnusualHourEnd,
		minGap:    th.MinClaimGap,
		window:    th.HistoryWindow,
		weekend:   th.WeekendSignal,
	}
}

func (c *TimePatternsCheck) Type() valueobject.AlarmType { return valueobject.AlarmTimePatterns }

func (c *TimePatternsCheck) Evaluate(ctx context.Context, claim *model.Claim) CheckResult {
	ts := claim.Timestamp()
	enabled := 2
	var signals []string

	if h := ts.Hour(); h >= c.startHour && h <= c.endHour {
		signals = append(signals, "unusual_hour")
	}

	if c.weekend {
		enabled++
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			signals = append(signals, "weekend")
		}
	}

	history, err := c.refs.LookupClaimHistory(ctx, claim.ClaimantID(), ts.Add(-c.window), ts)
	if err == nil && !history.LastClaimAt.IsZero() && ts.Sub(history.LastClaimAt) < c.minGap {
		signals = append(signals, "rapid_succession")
	}

	result := quiet()
	if len(signals) > 0 {
		score := float64(len(signals)) / float64(enabled)
		result = raised(model.NewAlarm(c.Type(), valueobject.SeverityMedium,
			fmt.Sprintf("unusual timing: %s", strings.Join(signals, ", ")),
			model.Evidence{
				model.EvidenceSignals: signals,
				model.EvidenceScore:   score,
			}))
	}

	if err != nil {
		return markDegraded(result, referenceUnavailable("claim history lookup", err))
	}
	return result
}
