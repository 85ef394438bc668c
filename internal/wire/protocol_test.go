package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causalbridge/api/schemas"
)

func testGraph() schemas.GraphPayload {
	return schemas.GraphPayload{
		Nodes: []string{"x", "y"},
		Edges: [][2]string{{"x", "y"}},
	}
}

func TestEncode_FitRequestRoundTrip(t *testing.T) {
	traces := map[string][]float64{"x": {1, 2}, "y": {2, 4}}
	req := NewFitRequest(testGraph(), traces, schemas.EngineConfig{Quality: schemas.QualityGood})
	require.NotEmpty(t, req.RequestID)

	raw, err := Encode(req)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"operation":"fit"`)
	assert.Contains(t, string(raw), `"nodes":["x","y"]`)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("not json {"), schemas.OperationFit)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil, schemas.OperationFit)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestDecode_MissingStatus(t *testing.T) {
	_, err := Decode([]byte(`{"scm": {}}`), schemas.OperationFit)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Reason, "status")
}

func TestDecode_UnknownStatus(t *testing.T) {
	_, err := Decode([]byte(`{"status": "maybe"}`), schemas.OperationFit)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestDecode_ErrorPayloadPassesThrough(t *testing.T) {
	resp, err := Decode([]byte(`{"status":"error","error":"singular matrix","traceback":"tb"}`), schemas.OperationFit)
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusError, resp.Status)
	assert.Equal(t, "singular matrix", resp.Error)
}

func TestDecode_FitMissingMechanisms(t *testing.T) {
	raw := []byte(`{"status":"success","validation":{"r2_scores":{"y":0.9},"mean_r2":0.9}}`)
	_, err := Decode(raw, schemas.OperationFit)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Reason, "mechanisms")
}

func TestDecode_FitSuccess(t *testing.T) {
	raw := []byte(`{
		"status": "success",
		"scm": {"mechanisms": {"y": {"kind": "linear", "params": {"coef": 2.0}}}},
		"validation": {"r2_scores": {"y": 0.92}, "mean_r2": 0.92}
	}`)
	resp, err := Decode(raw, schemas.OperationFit)
	require.NoError(t, err)
	require.Contains(t, resp.SCM.Mechanisms, "y")
	assert.Equal(t, "linear", resp.SCM.Mechanisms["y"].Kind)
	assert.InDelta(t, 0.92, resp.Validation.R2Scores["y"], 1e-9)
}

func TestDecode_InterveneMissingStatistics(t *testing.T) {
	_, err := Decode([]byte(`{"status":"success","metadata":{"num_samples":100}}`), schemas.OperationIntervene)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Reason, "statistics")
}

func TestEncodeSpec_Hard(t *testing.T) {
	spec := schemas.Hard{Node: "x", Value: 5.0}
	payload, err := EncodeSpec(spec, []string{"x", "y"})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"x": 5.0}, payload.DoValues)
	assert.Empty(t, payload.Transforms)
	assert.Equal(t, []string{"x", "y"}, payload.QueryNodes, "query nodes default to all nodes")
	assert.Equal(t, schemas.DefaultNumSamples, payload.NumSamples)
}

func TestEncodeSpec_Soft(t *testing.T) {
	spec := schemas.Soft{Node: "y", Transform: schemas.TransformScale, Param: 1.5}
	payload, err := EncodeSpec(spec, []string{"x", "y"})
	require.NoError(t, err)

	require.Contains(t, payload.Transforms, "y")
	assert.Equal(t, "scale", payload.Transforms["y"].Transform)
	assert.InDelta(t, 1.5, payload.Transforms["y"].Param, 1e-9)
}

func TestEncodeSpec_SoftUnknownTransform(t *testing.T) {
	spec := schemas.Soft{Node: "y", Transform: "log", Param: 1.0}
	_, err := EncodeSpec(spec, []string{"x", "y"})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Contains(t, protoErr.Reason, "log")
}

func TestEncodeSpec_Multiple(t *testing.T) {
	spec := schemas.Multiple{
		Interventions: []schemas.AtomicIntervention{
			schemas.Hard{Node: "x", Value: 2},
			schemas.Soft{Node: "y", Transform: schemas.TransformShift, Param: 0.5},
		},
		Query: schemas.QueryOptions{QueryNodes: []string{"z"}, NumSamples: 500},
	}
	payload, err := EncodeSpec(spec, []string{"x", "y", "z"})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"x": 2}, payload.DoValues)
	require.Contains(t, payload.Transforms, "y")
	assert.Equal(t, []string{"z"}, payload.QueryNodes)
	assert.Equal(t, 500, payload.NumSamples)
}

func TestEncodeSpec_Observational(t *testing.T) {
	payload, err := EncodeSpec(schemas.Observational{}, []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, payload.DoValues)
	assert.Empty(t, payload.Transforms)
	assert.Equal(t, []string{"x"}, payload.QueryNodes)
}
