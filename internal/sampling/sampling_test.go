package sampling_test

import (
	"errors"
	"math"
	"testing"

	"github.com/mferrera/ert/internal/sampling"
)

func uniformGroup(seed int64) sampling.GroupConfig {
	return sampling.GroupConfig{
		Name:         "COEFF",
		Distribution: sampling.DistUniform,
		Min:          0,
		Max:          1,
		Seed:         seed,
	}
}

func TestSampleCollectionDeterministic(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{uniformGroup(42)})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}

	first, err := params.SampleCollection("COEFF", 5)
	if err != nil {
		t.Fatalf("first SampleCollection failed: %v", err)
	}
	second, err := params.SampleCollection("COEFF", 5)
	if err != nil {
		t.Fatalf("second SampleCollection failed: %v", err)
	}

	if first.Len() != 5 || second.Len() != 5 {
		t.Fatalf("unexpected sizes %d, %d", first.Len(), second.Len())
	}
	for i := 0; i < 5; i++ {
		a, _ := first.Record(i)
		b, _ := second.Record(i)
		if !a.Equal(b) {
			t.Fatalf("member %d differs between seeded runs: %v vs %v", i, a.Scalar(), b.Scalar())
		}
	}
}

func TestSampleCollectionUniformRange(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{uniformGroup(7)})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	collection, err := params.SampleCollection("COEFF", 100)
	if err != nil {
		t.Fatalf("SampleCollection failed: %v", err)
	}
	for i, rec := range collection.Records() {
		v := rec.Scalar()
		if v < 0 || v >= 1 {
			t.Fatalf("member %d sampled %v outside [0,1)", i, v)
		}
	}
}

func TestSampleUnknownGroup(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{uniformGroup(1)})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	if _, err := params.SampleCollection("MISSING", 3); !errors.Is(err, sampling.ErrUnknownParameterGroup) {
		t.Fatalf("expected ErrUnknownParameterGroup, got %v", err)
	}
}

func TestVectorGroupSamplesVectors(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{{
		Name:         "FIELD",
		Distribution: sampling.DistNormal,
		Mean:         5,
		StdDev:       2,
		Size:         4,
		Seed:         11,
	}})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	collection, err := params.SampleCollection("FIELD", 3)
	if err != nil {
		t.Fatalf("SampleCollection failed: %v", err)
	}
	for i, rec := range collection.Records() {
		values := rec.Vector()
		if len(values) != 4 {
			t.Fatalf("member %d expected 4 values, got %v", i, values)
		}
	}
}

func TestLogUniformStaysInRange(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{{
		Name:         "PERM",
		Distribution: sampling.DistLogUniform,
		Min:          1e-3,
		Max:          1e2,
		Seed:         3,
	}})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	collection, err := params.SampleCollection("PERM", 50)
	if err != nil {
		t.Fatalf("SampleCollection failed: %v", err)
	}
	for i, rec := range collection.Records() {
		v := rec.Scalar()
		if v < 1e-3 || v > 1e2 || math.IsNaN(v) {
			t.Fatalf("member %d sampled %v outside [1e-3, 1e2]", i, v)
		}
	}
}

func TestConstantDistribution(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{{
		Name:         "FIXED",
		Distribution: sampling.DistConstant,
		Value:        3.14,
	}})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	collection, err := params.SampleCollection("FIXED", 4)
	if err != nil {
		t.Fatalf("SampleCollection failed: %v", err)
	}
	for i, rec := range collection.Records() {
		if rec.Scalar() != 3.14 {
			t.Fatalf("member %d expected constant 3.14, got %v", i, rec.Scalar())
		}
	}
}

func TestInvalidDistributionConfigs(t *testing.T) {
	cases := []sampling.GroupConfig{
		{Name: "BAD", Distribution: sampling.DistUniform, Min: 1, Max: 1},
		{Name: "BAD", Distribution: sampling.DistLogUniform, Min: 0, Max: 1},
		{Name: "BAD", Distribution: sampling.DistNormal, StdDev: 0},
		{Name: "BAD", Distribution: "poisson"},
		{Name: "BAD"},
	}
	for _, group := range cases {
		if _, err := group.AsDistribution(); err == nil {
			t.Fatalf("expected config %+v to be rejected", group)
		}
	}
}

func TestNewParametersRejectsDuplicates(t *testing.T) {
	_, err := sampling.NewParameters([]sampling.GroupConfig{uniformGroup(1), uniformGroup(2)})
	if err == nil {
		t.Fatal("expected duplicate group names to be rejected")
	}
}

func TestZeroEnsembleSize(t *testing.T) {
	params, err := sampling.NewParameters([]sampling.GroupConfig{uniformGroup(1)})
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	collection, err := params.SampleCollection("COEFF", 0)
	if err != nil {
		t.Fatalf("SampleCollection failed: %v", err)
	}
	if collection.Len() != 0 {
		t.Fatalf("expected empty collection, got %d", collection.Len())
	}
}
