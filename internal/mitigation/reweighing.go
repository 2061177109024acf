package mitigation

import (
	"fmt"

	"github.com/wonny/fairaudit/internal/contracts"
)

// Reweigher is the mitigation capability: it takes a labeled, grouped
// dataset and returns the same records with adjusted instance weights.
type Reweigher interface {
	Reweigh(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome) (*contracts.Dataset, error)
}

// CellWeigher is implemented by reweighers that assign one weight per
// (group, label) cell. The invoker records the fitted weights in the result.
type CellWeigher interface {
	Reweigher
	Fit(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome) (*CellWeights, error)
	Transform(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome, cw *CellWeights) (*contracts.Dataset, error)
}

// CellWeights are the multiplicative weights per (group, label) cell.
type CellWeights struct {
	PrivilegedPositive   float64 `json:"privileged_positive"`
	PrivilegedNegative   float64 `json:"privileged_negative"`
	UnprivilegedPositive float64 `json:"unprivileged_positive"`
	UnprivilegedNegative float64 `json:"unprivileged_negative"`
}

// Reweighing implements Kamiran & Calders reweighing:
//
//	W(g, y) = N_g * N_y / (N * N_{g,y})
//
// where N counts instance weight over the whole dataset. After the transform
// the weighted positive rate of both groups equals the overall positive rate.
// Records outside both groups keep their weights.
type Reweighing struct{}

// NewReweighing creates the default reweigher.
func NewReweighing() *Reweighing {
	return &Reweighing{}
}

// Fit computes the cell weights.
func (rw *Reweighing) Fit(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome) (*CellWeights, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}
	if err := ds.RequireOutcome(outcome); err != nil {
		return nil, err
	}

	var n, nPos, nNeg float64
	var nPriv, nUnpriv float64
	var privPos, privNeg, unprivPos, unprivNeg float64
	var countPriv, countUnpriv int

	for i := 0; i < ds.Len(); i++ {
		r := ds.Record(i)
		w := ds.Weight(i)
		positive := r.Label(outcome)

		n += w
		if positive {
			nPos += w
		} else {
			nNeg += w
		}

		switch {
		case pair.Privileged.Matches(r):
			countPriv++
			nPriv += w
			if positive {
				privPos += w
			} else {
				privNeg += w
			}
		case pair.Unprivileged.Matches(r):
			countUnpriv++
			nUnpriv += w
			if positive {
				unprivPos += w
			} else {
				unprivNeg += w
			}
		}
	}

	if countPriv == 0 {
		return nil, &contracts.EmptyGroupError{Group: pair.Privileged}
	}
	if countUnpriv == 0 {
		return nil, &contracts.EmptyGroupError{Group: pair.Unprivileged}
	}
	if n == 0 {
		return nil, &contracts.DivisionUndefinedError{Metric: "reweighing", Reason: "dataset has zero total instance weight"}
	}

	return &CellWeights{
		PrivilegedPositive:   cellWeight(nPriv, nPos, n, privPos),
		PrivilegedNegative:   cellWeight(nPriv, nNeg, n, privNeg),
		UnprivilegedPositive: cellWeight(nUnpriv, nPos, n, unprivPos),
		UnprivilegedNegative: cellWeight(nUnpriv, nNeg, n, unprivNeg),
	}, nil
}

// Transform applies cell weights to a dataset, returning a new one.
func (rw *Reweighing) Transform(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome, cw *CellWeights) (*contracts.Dataset, error) {
	weights := ds.Weights()
	for i := range weights {
		r := ds.Record(i)
		positive := r.Label(outcome)

		switch {
		case pair.Privileged.Matches(r) && positive:
			weights[i] *= cw.PrivilegedPositive
		case pair.Privileged.Matches(r):
			weights[i] *= cw.PrivilegedNegative
		case pair.Unprivileged.Matches(r) && positive:
			weights[i] *= cw.UnprivilegedPositive
		case pair.Unprivileged.Matches(r):
			weights[i] *= cw.UnprivilegedNegative
		}
	}

	out, err := ds.WithWeights(weights)
	if err != nil {
		return nil, fmt.Errorf("apply reweighing: %w", err)
	}
	return out, nil
}

// Reweigh fits and transforms in one step.
func (rw *Reweighing) Reweigh(ds *contracts.Dataset, pair contracts.GroupPair, outcome contracts.Outcome) (*contracts.Dataset, error) {
	cw, err := rw.Fit(ds, pair, outcome)
	if err != nil {
		return nil, err
	}
	return rw.Transform(ds, pair, outcome, cw)
}

// cellWeight returns N_g*N_y/(N*N_gy). An empty cell has no records to
// weight, so it gets the neutral weight 1.
func cellWeight(nGroup, nLabel, n, nCell float64) float64 {
	if nCell == 0 {
		return 1
	}
	return nGroup * nLabel / (n * nCell)
}
