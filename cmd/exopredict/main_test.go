package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/exopredict/exopredict/internal/config"
	"github.com/exopredict/exopredict/internal/engine"
	"github.com/exopredict/exopredict/internal/features"
	"github.com/exopredict/exopredict/internal/pipeline"
	"github.com/exopredict/exopredict/internal/prediction"
)

func TestParseObservations(t *testing.T) {
	inputs, single, err := parseObservations([]byte(`  {"orb_period": 3.5}`))
	require.NoError(t, err)
	assert.True(t, single)
	require.Len(t, inputs, 1)

	inputs, single, err = parseObservations([]byte(`[{"orb_period": 1}, {"orb_period": 2}]`))
	require.NoError(t, err)
	assert.False(t, single)
	assert.Len(t, inputs, 2)

	for _, bad := range []string{"", "[]", "[1,2]", "{", `"x"`} {
		_, _, err := parseObservations([]byte(bad))
		assert.Error(t, err, "input %q", bad)
	}
}

func TestReadInputFromStdin(t *testing.T) {
	data, err := readInput(strings.NewReader(`{"a":1}`), "-")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestToOutput(t *testing.T) {
	conf := 0.5
	out := toOutput(nil, &prediction.Result{Label: "CONFIRMED", Confidence: &conf}, nil)
	assert.Equal(t, "CONFIRMED", out.Prediction)
	assert.Empty(t, out.Error)

	idx := 2
	err := &pipeline.Error{Stage: pipeline.StageVectorAssembled, Err: &engine.TimeoutError{}}
	out = toOutput(&idx, nil, err)
	assert.Equal(t, "vector_assembled", out.Stage)
	assert.NotEmpty(t, out.Error)
	assert.Equal(t, 2, *out.Index)
	assert.True(t, errors.As(err, new(*engine.TimeoutError)))
}

func TestVectorsReportsPerItemErrors(t *testing.T) {
	good := map[string]any{
		"orb_period": 3.52, "planet_radius": 1.2, "planet_mass": 0.7, "pl_eqt": 1400.0,
		"st_teff": 5800.0, "st_rad": 1.1, "st_mass": 1.05, "sy_dist": 150.0,
		"transit_depth": 0.012, "transit_duration": 2.9,
	}
	outs := vectors(features.Deriver{Placement: features.EpsilonAfterQuotient}, []map[string]any{good, {"nope": 1.0}})
	require.Len(t, outs, 2)
	assert.Len(t, outs[0].Vector, features.VectorLen)
	assert.Contains(t, outs[0].Vector, "flux_received")
	assert.NotEmpty(t, outs[1].Error)
}

func TestNewAppWithDefaults(t *testing.T) {
	t.Setenv("EXOPREDICT_ENGINE_COMMAND", "")
	cfg, err := config.Load("testdata/does-not-exist.yaml")
	require.NoError(t, err)

	a, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, a.pipeline)
	assert.Nil(t, a.emitter, "activation is off by default")
	a.Close(0)
}

func TestNewAppHonorsMixedCasePlacement(t *testing.T) {
	cfg, err := config.Load("testdata/does-not-exist.yaml")
	require.NoError(t, err)

	cfg.Features.EpsilonPlacement = "Denominator"
	a, err := newApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close(0)
	assert.Equal(t, features.EpsilonInDenominator, a.deriver.Placement)

	cfg.Features.EpsilonPlacement = "numerator"
	_, err = newApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "epsilon_placement")
}
