package elo

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/ranked/internal/domain/rating"
)

// Distribution turns a scaled skill difference into a win probability.
// distuv.Normal and distuv.Logistic satisfy it.
type Distribution interface {
	CDF(x float64) float64
}

// DistributionByName returns the standard normal or logistic distribution.
func DistributionByName(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal", "norm":
		return distuv.UnitNormal, nil
	case "logistic":
		return distuv.Logistic{Mu: 0, S: 1}, nil
	default:
		return nil, &rating.ConfigurationError{Field: "distribution", Reason: fmt.Sprintf("unknown distribution %q", name)}
	}
}
