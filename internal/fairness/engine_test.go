package fairness

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fairaudit/internal/contracts"
)

var (
	caucasian = contracts.Group{Attribute: "race", Value: "Caucasian"}
	black     = contracts.Group{Attribute: "race", Value: "African-American"}
	asian     = contracts.Group{Attribute: "race", Value: "Asian"}
	pair      = contracts.GroupPair{Privileged: caucasian, Unprivileged: black}
)

// buildGroup appends n records of value, the first positives of which have
// GroundTruth = true.
func buildGroup(records []contracts.Record, value string, n, positives int) []contracts.Record {
	for i := 0; i < n; i++ {
		records = append(records, contracts.Record{
			ID:          fmt.Sprintf("%s-%d", value, i),
			Attributes:  map[string]string{"race": value},
			Score:       float64(1 + i%10),
			GroundTruth: i < positives,
		})
	}
	return records
}

func TestEngine_Scenario(t *testing.T) {
	// unprivileged 6/10 = 0.60, privileged 4/5 = 0.80
	var records []contracts.Record
	records = buildGroup(records, "African-American", 10, 6)
	records = buildGroup(records, "Caucasian", 5, 4)
	ds := contracts.NewDataset("scenario", records)

	engine := NewEngine(contracts.OutcomeGroundTruth)

	spd, err := engine.StatisticalParityDifference(ds, caucasian, black)
	require.NoError(t, err)
	assert.InDelta(t, -0.20, spd, 1e-9)

	di, err := engine.DisparateImpact(ds, caucasian, black)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, di, 1e-9)
	assert.True(t, IsSignificantBias(di, DisparateImpactThreshold))

	summary, err := engine.Summarize(ds, pair)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.PrivilegedCount)
	assert.Equal(t, 10, summary.UnprivilegedCount)
	assert.InDelta(t, 0.80, summary.PrivilegedRate, 1e-9)
	assert.InDelta(t, 0.60, summary.UnprivilegedRate, 1e-9)
	assert.True(t, summary.SignificantBias(0))
	assert.InDelta(t, 0.25, summary.DistanceFromParity(), 1e-9)
	assert.False(t, summary.Weighted)
}

func TestIsSignificantBias_Boundary(t *testing.T) {
	tests := []struct {
		di   float64
		want bool
	}{
		{0.75, true},
		{0.7999, true},
		{0.8, false},
		{1.0, false},
		{1.25, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.4f", tt.di), func(t *testing.T) {
			assert.Equal(t, tt.want, IsSignificantBias(tt.di, DisparateImpactThreshold))
		})
	}
}

func TestIsSignificantBias_CustomThreshold(t *testing.T) {
	tests := []struct {
		name      string
		di        float64
		threshold float64
		want      bool
	}{
		{"default passes 0.85", 0.85, 0, false},
		{"stricter policy flags 0.85", 0.85, 0.9, true},
		{"at stricter threshold", 0.9, 0.9, false},
		{"looser policy passes 0.75", 0.75, 0.7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSignificantBias(tt.di, tt.threshold))

			s := &Summary{DisparateImpact: tt.di}
			assert.Equal(t, tt.want, s.SignificantBias(tt.threshold))
		})
	}
}

func TestEngine_Parity(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 8, 4)
	records = buildGroup(records, "Caucasian", 6, 3)
	ds := contracts.NewDataset("parity", records)

	engine := NewEngine(contracts.OutcomeGroundTruth)

	spd, err := engine.StatisticalParityDifference(ds, caucasian, black)
	require.NoError(t, err)
	assert.Equal(t, 0.0, spd)

	di, err := engine.DisparateImpact(ds, caucasian, black)
	require.NoError(t, err)
	assert.Equal(t, 1.0, di)
}

func TestEngine_SwapProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := NewEngine(contracts.OutcomeGroundTruth)

	for trial := 0; trial < 200; trial++ {
		nPriv := 1 + rng.Intn(50)
		nUnpriv := 1 + rng.Intn(50)

		var records []contracts.Record
		records = buildGroup(records, "Caucasian", nPriv, 1+rng.Intn(nPriv))
		records = buildGroup(records, "African-American", nUnpriv, 1+rng.Intn(nUnpriv))
		records = buildGroup(records, "Hispanic", rng.Intn(5), 0)
		ds := contracts.NewDataset("random", records)

		spd, err := engine.StatisticalParityDifference(ds, caucasian, black)
		require.NoError(t, err)
		spdSwapped, err := engine.StatisticalParityDifference(ds, black, caucasian)
		require.NoError(t, err)
		assert.InDelta(t, spd, -spdSwapped, 1e-12, "trial %d", trial)
		assert.GreaterOrEqual(t, spd, -1.0)
		assert.LessOrEqual(t, spd, 1.0)

		di, err := engine.DisparateImpact(ds, caucasian, black)
		require.NoError(t, err)
		diSwapped, err := engine.DisparateImpact(ds, black, caucasian)
		require.NoError(t, err)
		assert.InDelta(t, di, 1/diSwapped, 1e-12, "trial %d", trial)
	}
}

func TestEngine_EmptyGroup(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 4, 2)
	records = buildGroup(records, "Caucasian", 4, 1)
	ds := contracts.NewDataset("empty", records)

	engine := NewEngine(contracts.OutcomeGroundTruth)

	calls := map[string]func() error{
		"positive_rate": func() error { _, err := engine.PositiveRate(ds, asian); return err },
		"base_rate":     func() error { _, err := engine.BaseRate(ds, asian); return err },
		"spd":           func() error { _, err := engine.StatisticalParityDifference(ds, asian, black); return err },
		"di":            func() error { _, err := engine.DisparateImpact(ds, caucasian, asian); return err },
		"brd":           func() error { _, err := engine.BaseRateDifference(ds, caucasian, asian); return err },
		"summary": func() error {
			_, err := engine.Summarize(ds, contracts.GroupPair{Privileged: asian, Unprivileged: black})
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrEmptyGroup)

			var eg *contracts.EmptyGroupError
			require.ErrorAs(t, err, &eg)
			assert.Equal(t, asian, eg.Group)
		})
	}
}

func TestEngine_DisparateImpactUndefined(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 4, 2)
	records = buildGroup(records, "Caucasian", 4, 0)
	ds := contracts.NewDataset("zero", records)

	engine := NewEngine(contracts.OutcomeGroundTruth)

	_, err := engine.DisparateImpact(ds, caucasian, black)
	assert.ErrorIs(t, err, contracts.ErrDivisionUndefined)

	_, err = engine.Summarize(ds, pair)
	assert.ErrorIs(t, err, contracts.ErrDivisionUndefined)

	// SPD stays defined
	spd, err := engine.StatisticalParityDifference(ds, caucasian, black)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, spd, 1e-12)
}

func TestEngine_ZeroWeightGroup(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 2, 1)
	records = buildGroup(records, "Caucasian", 2, 1)
	ds, err := contracts.NewDataset("weights", records).WithWeights([]float64{1, 1, 0, 0})
	require.NoError(t, err)

	_, err = NewEngine(contracts.OutcomeGroundTruth).PositiveRate(ds, caucasian)
	assert.ErrorIs(t, err, contracts.ErrDivisionUndefined)
}

func TestEngine_PredictedRequiresPredictions(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 4, 2)
	records = buildGroup(records, "Caucasian", 4, 2)
	ds := contracts.NewDataset("raw", records)

	engine := NewEngine(contracts.OutcomePredicted)
	_, err := engine.PositiveRate(ds, caucasian)
	assert.ErrorIs(t, err, contracts.ErrMissingField)

	// base rate never needs predictions
	_, err = engine.BaseRate(ds, caucasian)
	assert.NoError(t, err)
}

func TestEngine_BaseRateIsNotPredictedRate(t *testing.T) {
	records := []contracts.Record{
		{Attributes: map[string]string{"race": "Caucasian"}, Score: 9, GroundTruth: false},
		{Attributes: map[string]string{"race": "Caucasian"}, Score: 8, GroundTruth: false},
		{Attributes: map[string]string{"race": "Caucasian"}, Score: 2, GroundTruth: true},
		{Attributes: map[string]string{"race": "Caucasian"}, Score: 1, GroundTruth: false},
	}
	ds := contracts.NewDataset("labels", records).WithPredictions(5)

	engine := NewEngine(contracts.OutcomePredicted)

	predicted, err := engine.PositiveRate(ds, caucasian)
	require.NoError(t, err)
	assert.InDelta(t, 0.50, predicted, 1e-12)

	base, err := engine.BaseRate(ds, caucasian)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, base, 1e-12)
}

func TestEngine_Weighted(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "Caucasian", 2, 1) // [pos, neg]
	ds, err := contracts.NewDataset("w", records).WithWeights([]float64{3, 1})
	require.NoError(t, err)

	rate, err := NewEngine(contracts.OutcomeGroundTruth).PositiveRate(ds, caucasian)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, rate, 1e-12)
}

func TestEngine_Favorable(t *testing.T) {
	var records []contracts.Record
	records = buildGroup(records, "African-American", 10, 6)
	records = buildGroup(records, "Caucasian", 5, 4)
	ds := contracts.NewDataset("favorable", records)

	// no recidivism as the favorable outcome: 0.40 vs 0.20
	engine := NewEngine(contracts.OutcomeGroundTruth).WithFavorable(false)
	assert.False(t, engine.Favorable())

	summary, err := engine.Summarize(ds, pair)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, summary.PrivilegedRate, 1e-9)
	assert.InDelta(t, 0.40, summary.UnprivilegedRate, 1e-9)
	assert.InDelta(t, 0.20, summary.StatisticalParityDifference, 1e-9)
	assert.InDelta(t, 2.0, summary.DisparateImpact, 1e-9)
	assert.InDelta(t, 0.20, summary.BaseRateDifference, 1e-9)
}

func TestEngine_SummarizeRejectsBadPair(t *testing.T) {
	ds := contracts.NewDataset("x", buildGroup(nil, "Caucasian", 2, 1))
	_, err := NewEngine(contracts.OutcomeGroundTruth).Summarize(ds, contracts.GroupPair{Privileged: caucasian, Unprivileged: caucasian})
	assert.Error(t, err)
}

func TestEngine_SummarizeMissingAttribute(t *testing.T) {
	records := buildGroup(nil, "Caucasian", 3, 1)
	records = buildGroup(records, "African-American", 3, 2)
	records = append(records, contracts.Record{ID: "no-race", Attributes: map[string]string{"sex": "Male"}})
	ds := contracts.NewDataset("partial", records)

	_, err := NewEngine(contracts.OutcomeGroundTruth).Summarize(ds, pair)
	assert.ErrorIs(t, err, contracts.ErrMissingField)
	assert.NotErrorIs(t, err, contracts.ErrEmptyGroup)
}

func TestEngine_ImplementsCalculator(t *testing.T) {
	var _ Calculator = NewEngine(contracts.OutcomeGroundTruth)
}
