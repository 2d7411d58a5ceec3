package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"financas-go-be/models"
)

// Summary aggregates the outcomes of one scheduler run.
type Summary struct {
	Candidates int `json:"candidates"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Driver orchestrates one full run for a reference date: select due rules,
// materialize each, tally outcomes. Re-invoking RunFor with the same date is
// idempotent as a whole: once a date is fully processed, every later call
// yields created = 0 with all candidates skipped.
type Driver struct {
	rules RuleStore
	mat   *Materializer
	log   zerolog.Logger
}

func NewDriver(rules RuleStore, mat *Materializer, log zerolog.Logger) *Driver {
	return &Driver{rules: rules, mat: mat, log: log}
}

// RunFor processes every rule due on ref. Per-rule failures are isolated:
// they are counted in the summary and left for the next invocation, which is
// safe to repeat because of the per-(rule, date) idempotency marker.
func (d *Driver) RunFor(ctx context.Context, ref time.Time) (Summary, error) {
	date := Midnight(ref)

	rules, err := d.rules.FindCandidates(ctx, date)
	if err != nil {
		return Summary{}, fmt.Errorf("find candidate rules: %w", err)
	}

	sel := Select(rules, date)
	summary := Summary{Candidates: len(sel.Due)}

	for _, rule := range sel.Malformed {
		d.log.Warn().Str("rule_id", rule.ID.String()).Str("type", string(rule.Type)).
			Msg("skipping malformed recurring rule")
	}

	// Exhausted installments are deactivated even when not due today.
	for _, rule := range sel.Completed {
		if err := d.rules.Deactivate(ctx, rule.ID); err != nil {
			d.log.Error().Err(err).Str("rule_id", rule.ID.String()).Msg("failed to deactivate completed rule")
			summary.Failed++
			continue
		}
		summary.Skipped++
	}

	// Materializations are independent; order never matters because each is
	// guarded by its own (rule, date) marker.
	results := make(chan Result, len(sel.Due))
	var wg sync.WaitGroup
	for _, rule := range sel.Due {
		wg.Add(1)
		go func(r models.RecurringRule) {
			defer wg.Done()
			results <- d.mat.Materialize(ctx, r, date)
		}(rule)
	}
	wg.Wait()
	close(results)

	for res := range results {
		switch res.Outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	d.log.Info().
		Time("date", date).
		Int("candidates", summary.Candidates).
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("recurring run finished")

	return summary, nil
}
