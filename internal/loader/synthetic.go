package loader

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wonny/fairaudit/internal/contracts"
)

// syntheticGroup is one race cohort of the demo dataset.
type syntheticGroup struct {
	race       string
	share      float64 // fraction of records
	recidRate  float64 // P(two_year_recid)
	scoreShift float64 // added to the decile score
}

// Cohort shares and recidivism rates approximate the cleaned COMPAS file.
var syntheticGroups = []syntheticGroup{
	{"African-American", 0.51, 0.52, 1.2},
	{"Caucasian", 0.34, 0.39, 0},
	{"Hispanic", 0.09, 0.37, 0},
	{"Other", 0.06, 0.36, -0.3},
}

// SyntheticLoader generates a deterministic COMPAS-like dataset for demo runs
// and tests. Scores carry a race shift on top of the recidivism signal, so
// the audit finds a disparity.
type SyntheticLoader struct {
	Records int
	Seed    int64
}

// NewSyntheticLoader creates a synthetic loader
func NewSyntheticLoader(records int, seed int64) *SyntheticLoader {
	return &SyntheticLoader{Records: records, Seed: seed}
}

// Load implements contracts.DatasetLoader.
func (l *SyntheticLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	if l.Records <= 0 {
		return nil, contracts.ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(l.Seed))
	records := make([]contracts.Record, l.Records)

	for i := range records {
		g := pickGroup(rng.Float64())
		recid := rng.Float64() < g.recidRate

		score := 3.0 + rng.NormFloat64()*2
		if recid {
			score += 2.5
		}
		score += g.scoreShift

		sex := "Male"
		if rng.Float64() < 0.19 {
			sex = "Female"
		}

		records[i] = contracts.Record{
			ID:          fmt.Sprintf("demo-%05d", i+1),
			Attributes:  map[string]string{"race": g.race, "sex": sex},
			Score:       float64(clampDecile(score)),
			GroundTruth: recid,
		}
	}

	return contracts.NewDataset("synthetic", records), nil
}

func pickGroup(u float64) syntheticGroup {
	acc := 0.0
	for _, g := range syntheticGroups {
		acc += g.share
		if u < acc {
			return g
		}
	}
	return syntheticGroups[len(syntheticGroups)-1]
}

func clampDecile(score float64) int {
	d := int(score + 0.5)
	if d < 1 {
		return 1
	}
	if d > 10 {
		return 10
	}
	return d
}
