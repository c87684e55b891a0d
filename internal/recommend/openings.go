// Package recommend implements the job recommendation stage: the
// candidate's skill set is sent to a text-generation service and the
// returned opportunities are normalized with rebuilt search links and
// locally estimated opening counts.
package recommend

import (
	"hash/fnv"
	"math/rand"
	"strings"
)

// Opening-count bounds. The upstream service provides no live job
// counts, so the pipeline fills in an estimate in [500, 5500).
const (
	openingCountFloor = 500
	openingCountSpan  = 5000
)

// OpeningEstimator produces the estimated opening count for one skill
type OpeningEstimator interface {
	Estimate(skill string) int
}

// NewOpeningEstimator returns the estimator selected by configuration.
// "deterministic" (the default) hashes the skill name so repeated runs
// on the same resume produce stable reports; "random" draws a fresh
// value per call.
func NewOpeningEstimator(kind string) OpeningEstimator {
	if kind == "random" {
		return randomEstimator{}
	}
	return deterministicEstimator{}
}

type deterministicEstimator struct{}

func (deterministicEstimator) Estimate(skill string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(skill)))
	return openingCountFloor + int(h.Sum32()%openingCountSpan)
}

type randomEstimator struct{}

func (randomEstimator) Estimate(string) int {
	return openingCountFloor + rand.Intn(openingCountSpan)
}
