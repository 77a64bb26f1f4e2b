package predict

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/shared"
	"github.com/312Evan/frcstats/internal/domain/stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALLIANCE OUTCOME PREDICTOR
// ══════════════════════════════════════════════════════════════════════════════

// Prediction is the forecast for one unplayed match. Transient, never
// persisted.
type Prediction struct {
	// Label is the formatted match label.
	Label string

	// RedTeams and BlueTeams are the alliance rosters joined for display,
	// e.g. "frc254, frc1678, frc604".
	RedTeams  string
	BlueTeams string

	// RedMedian and BlueMedian are the alliance medians rounded to two
	// decimal places.
	RedMedian  float64
	BlueMedian float64

	// Winner is the predicted winning alliance. Equal medians
	// deterministically predict Blue.
	Winner match.AllianceColor
}

// Matchup is a single-matchup forecast with a win-probability estimate.
type Matchup struct {
	RedTeams       []string
	BlueTeams      []string
	RedMedian      float64
	BlueMedian     float64
	Winner         match.AllianceColor
	WinProbability int
}

// ForMatch forecasts the winner of one unplayed match using median-of-medians
// alliance scoring against the given cache scope.
func ForMatch(ctx context.Context, cache *TeamMedianCache, rec match.Record) (Prediction, error) {
	redMedian, blueMedian, err := allianceMedians(ctx, cache, rec.Red.TeamKeys, rec.Blue.TeamKeys)
	if err != nil {
		return Prediction{}, err
	}

	label, err := match.FormatKey(rec.Key)
	if err != nil {
		label = rec.Key
	}

	return Prediction{
		Label:      label,
		RedTeams:   strings.Join(rec.Red.TeamKeys, ", "),
		BlueTeams:  strings.Join(rec.Blue.TeamKeys, ", "),
		RedMedian:  stats.Round2(redMedian),
		BlueMedian: stats.Round2(blueMedian),
		Winner:     pickWinner(redMedian, blueMedian),
	}, nil
}

// ForMatchup forecasts a hypothetical matchup between two alliances and
// estimates a win probability.
//
// The probability is round(max(red, blue) / (red + blue) * 100). When both
// medians are exactly zero the ratio is undefined; that case fails with an
// insufficient-data error rather than returning a NaN-like value.
func ForMatchup(ctx context.Context, cache *TeamMedianCache, redTeams, blueTeams []string) (Matchup, error) {
	redMedian, blueMedian, err := allianceMedians(ctx, cache, redTeams, blueTeams)
	if err != nil {
		return Matchup{}, err
	}

	if redMedian+blueMedian == 0 {
		return Matchup{}, shared.ErrZeroMedians
	}
	probability := int(math.Round(math.Max(redMedian, blueMedian) / (redMedian + blueMedian) * 100))

	return Matchup{
		RedTeams:       redTeams,
		BlueTeams:      blueTeams,
		RedMedian:      stats.Round2(redMedian),
		BlueMedian:     stats.Round2(blueMedian),
		Winner:         pickWinner(redMedian, blueMedian),
		WinProbability: probability,
	}, nil
}

// allianceMedians computes both alliance medians concurrently. Each member
// team's median is looked up in parallel; the cache deduplicates teams that
// appear on both sides.
func allianceMedians(ctx context.Context, cache *TeamMedianCache, redTeams, blueTeams []string) (float64, float64, error) {
	redMedians := make([]float64, len(redTeams))
	blueMedians := make([]float64, len(blueTeams))
	errs := make([]error, len(redTeams)+len(blueTeams))

	var wg sync.WaitGroup
	for i, team := range redTeams {
		wg.Add(1)
		go func(i int, team string) {
			defer wg.Done()
			redMedians[i], errs[i] = cache.Get(ctx, team)
		}(i, team)
	}
	for i, team := range blueTeams {
		wg.Add(1)
		go func(i int, team string) {
			defer wg.Done()
			blueMedians[i], errs[len(redTeams)+i] = cache.Get(ctx, team)
		}(i, team)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, 0, fmt.Errorf("alliance medians: %w", err)
		}
	}

	return stats.Median(redMedians), stats.Median(blueMedians), nil
}

// pickWinner resolves the predicted winner. A tie defaults to Blue so the
// prediction is deterministic.
func pickWinner(redMedian, blueMedian float64) match.AllianceColor {
	if redMedian > blueMedian {
		return match.AllianceRed
	}
	return match.AllianceBlue
}
