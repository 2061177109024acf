package classification

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fairaudit/internal/contracts"
)

var (
	groupA = contracts.Group{Attribute: "race", Value: "A"}
	groupB = contracts.Group{Attribute: "race", Value: "B"}
)

// addCell appends n records with a score on the chosen side of threshold 5.
func addCell(records []contracts.Record, value string, n int, predicted, actual bool) []contracts.Record {
	score := 2.0
	if predicted {
		score = 8.0
	}
	for i := 0; i < n; i++ {
		records = append(records, contracts.Record{
			Attributes:  map[string]string{"race": value},
			Score:       score,
			GroundTruth: actual,
		})
	}
	return records
}

func TestAnalyzer_Scenario(t *testing.T) {
	// group A: TP=3, FP=2, TN=5, FN=0
	var records []contracts.Record
	records = addCell(records, "A", 3, true, true)
	records = addCell(records, "A", 2, true, false)
	records = addCell(records, "A", 5, false, false)
	ds := contracts.NewDataset("scenario", records)

	metrics, err := NewAnalyzer(5).Analyze(ds, groupA)
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, ConfusionMatrix{TP: 3, FP: 2, TN: 5, FN: 0}, m.ConfusionMatrix)
	assert.Equal(t, 10, m.Total)
	assert.InDelta(t, 2.0/7.0, m.FalsePositiveRate, 1e-9)
	assert.InDelta(t, 0.2857, m.FalsePositiveRate, 1e-4)
	assert.Equal(t, 0.0, m.FalseNegativeRate)
	assert.InDelta(t, 0.6, m.Precision, 1e-9)
	assert.Equal(t, 1.0, m.Recall)
	assert.InDelta(t, 0.8, m.Accuracy, 1e-9)
}

func TestAnalyzer_ThresholdIsInclusive(t *testing.T) {
	records := []contracts.Record{
		{Attributes: map[string]string{"race": "A"}, Score: 5, GroundTruth: true},
		{Attributes: map[string]string{"race": "A"}, Score: 4, GroundTruth: true},
	}
	ds := contracts.NewDataset("edge", records)

	metrics, err := NewAnalyzer(5).Analyze(ds, groupA)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TP: 1, FN: 1}, metrics[0].ConfusionMatrix)

	metrics, err = NewAnalyzer(6).Analyze(ds, groupA)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{FN: 2}, metrics[0].ConfusionMatrix)
}

func TestAnalyzer_ZeroDenominators(t *testing.T) {
	tests := []struct {
		name string
		m    ConfusionMatrix
		want GroupMetrics
	}{
		{
			name: "no ground-truth negatives",
			m:    ConfusionMatrix{TP: 4, FN: 1},
			want: GroupMetrics{FalsePositiveRate: 0, FalseNegativeRate: 0.2, Precision: 1, Recall: 0.8},
		},
		{
			name: "no ground-truth positives",
			m:    ConfusionMatrix{FP: 1, TN: 3},
			want: GroupMetrics{FalsePositiveRate: 0.25, FalseNegativeRate: 0, Precision: 0, Recall: 0},
		},
		{
			name: "nothing predicted positive",
			m:    ConfusionMatrix{TN: 2, FN: 2},
			want: GroupMetrics{FalsePositiveRate: 0, FalseNegativeRate: 1, Precision: 0, Recall: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewGroupMetrics(groupA, 5, tt.m)
			assert.InDelta(t, tt.want.FalsePositiveRate, got.FalsePositiveRate, 1e-12)
			assert.InDelta(t, tt.want.FalseNegativeRate, got.FalseNegativeRate, 1e-12)
			assert.InDelta(t, tt.want.Precision, got.Precision, 1e-12)
			assert.InDelta(t, tt.want.Recall, got.Recall, 1e-12)
		})
	}
}

func TestAnalyzer_RatesBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		var records []contracts.Record
		for i := 0; i < 1+rng.Intn(40); i++ {
			records = append(records, contracts.Record{
				Attributes:  map[string]string{"race": "A"},
				Score:       float64(1 + rng.Intn(10)),
				GroundTruth: rng.Intn(2) == 1,
			})
		}
		ds := contracts.NewDataset("random", records)

		metrics, err := NewAnalyzer(5).Analyze(ds, groupA)
		require.NoError(t, err)

		for _, rate := range []float64{metrics[0].FalsePositiveRate, metrics[0].FalseNegativeRate, metrics[0].Precision, metrics[0].Recall} {
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 1.0)
		}
	}
}

func TestAnalyzer_EmptyGroup(t *testing.T) {
	ds := contracts.NewDataset("a", addCell(nil, "A", 3, true, true))

	_, err := NewAnalyzer(5).Analyze(ds, groupA, groupB)
	assert.ErrorIs(t, err, contracts.ErrEmptyGroup)

	_, err = NewAnalyzer(5).Analyze(ds)
	assert.Error(t, err)
}

func TestAnalyzer_DoesNotMutateInput(t *testing.T) {
	ds := contracts.NewDataset("a", addCell(nil, "A", 3, true, true))
	_, err := NewAnalyzer(5).Analyze(ds, groupA)
	require.NoError(t, err)
	assert.False(t, ds.HasPredictions())
	assert.False(t, ds.Record(0).Predicted)
}

func TestAnalyzePair_Disparity(t *testing.T) {
	var records []contracts.Record
	// A (privileged): FPR 1/4, TPR 2/4
	records = addCell(records, "A", 2, true, true)
	records = addCell(records, "A", 2, false, true)
	records = addCell(records, "A", 1, true, false)
	records = addCell(records, "A", 3, false, false)
	// B (unprivileged): FPR 2/4, TPR 3/4
	records = addCell(records, "B", 3, true, true)
	records = addCell(records, "B", 1, false, true)
	records = addCell(records, "B", 2, true, false)
	records = addCell(records, "B", 2, false, false)
	ds := contracts.NewDataset("pair", records)

	result, err := NewAnalyzer(5).AnalyzePair(ds, contracts.GroupPair{Privileged: groupA, Unprivileged: groupB})
	require.NoError(t, err)

	assert.Equal(t, groupA, result.Privileged.Group)
	assert.Equal(t, groupB, result.Unprivileged.Group)
	assert.Len(t, result.Groups(), 2)

	d := result.Disparity
	assert.InDelta(t, 0.25, d.FalsePositiveRateDifference, 1e-12)
	assert.InDelta(t, -0.25, d.FalseNegativeRateDifference, 1e-12)
	assert.InDelta(t, 0.25, d.EqualOpportunityDifference, 1e-12)
	assert.InDelta(t, 0.25, d.AverageOddsDifference, 1e-12)
	assert.InDelta(t, 2.0, d.FalsePositiveRateRatio, 1e-12)
}

func TestCompare_ZeroPrivilegedFPR(t *testing.T) {
	priv := NewGroupMetrics(groupA, 5, ConfusionMatrix{TP: 1, TN: 1})
	unpriv := NewGroupMetrics(groupB, 5, ConfusionMatrix{TP: 1, FP: 1})
	assert.Equal(t, 0.0, Compare(priv, unpriv).FalsePositiveRateRatio)
}

func TestMidpointThreshold(t *testing.T) {
	tests := []struct {
		lo, hi int
		want   float64
	}{
		{1, 10, 5},
		{0, 10, 5},
		{1, 5, 3},
		{-3, 3, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MidpointThreshold(tt.lo, tt.hi))
	}
}

func TestSafeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SafeRatio(3, 0))
	assert.Equal(t, 0.0, SafeRatio(0, 0))
	assert.Equal(t, 0.5, SafeRatio(1, 2))
}
