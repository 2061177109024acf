package visual

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fairaudit/internal/audit"
	"github.com/wonny/fairaudit/internal/auditconfig"
	"github.com/wonny/fairaudit/internal/classification"
	"github.com/wonny/fairaudit/internal/contracts"
	"github.com/wonny/fairaudit/internal/describe"
	"github.com/wonny/fairaudit/internal/loader"
)

var pngMagic = []byte("\x89PNG")

func syntheticReport(t *testing.T) *audit.Report {
	t.Helper()
	a := audit.NewAuditor(loader.NewSyntheticLoader(800, 7), auditconfig.Default(), zerolog.Nop())
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestRenderer_Charts(t *testing.T) {
	r := NewRenderer(zerolog.Nop())
	report := syntheticReport(t)

	tests := []struct {
		name string
		draw func(*bytes.Buffer) error
	}{
		{"counts", func(b *bytes.Buffer) error { return r.GroupCounts(b, report.Descriptive) }},
		{"recidivism", func(b *bytes.Buffer) error {
			return r.GroupMeans(b, report.Descriptive, describe.FieldGroundTruth, "recid")
		}},
		{"distribution", func(b *bytes.Buffer) error { return r.ScoreDistribution(b, report.Distributions) }},
		{"error rates", func(b *bytes.Buffer) error { return r.ErrorRates(b, report.ErrorRates) }},
		{"mitigation", func(b *bytes.Buffer) error { return r.Mitigation(b, report.Mitigation) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.draw(&buf))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestRenderer_EdgeCases(t *testing.T) {
	r := NewRenderer(zerolog.Nop())

	t.Run("all zero rates", func(t *testing.T) {
		m := classification.NewGroupMetrics(
			contracts.Group{Attribute: "race", Value: "Caucasian"}, 5,
			classification.ConfusionMatrix{TP: 2})

		var buf bytes.Buffer
		require.NoError(t, r.ErrorRates(&buf, []classification.GroupMetrics{m}))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
	})

	t.Run("no distributions", func(t *testing.T) {
		assert.Error(t, r.ScoreDistribution(&bytes.Buffer{}, nil))
	})

	t.Run("no groups", func(t *testing.T) {
		assert.Error(t, r.ErrorRates(&bytes.Buffer{}, nil))
	})
}

func TestRenderer_WriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	report := syntheticReport(t)

	paths, err := NewRenderer(zerolog.Nop()).WriteAll(dir, report)
	require.NoError(t, err)
	require.Len(t, paths, 6)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), p)
	}
	assert.FileExists(t, filepath.Join(dir, "mitigation.png"))

	t.Run("skips missing sections", func(t *testing.T) {
		report.Mitigation = nil
		report.ErrorRates = nil

		paths, err := NewRenderer(zerolog.Nop()).WriteAll(t.TempDir(), report)
		require.NoError(t, err)
		assert.Len(t, paths, 4)
	})
}
