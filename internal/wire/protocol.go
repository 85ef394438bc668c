// Package wire implements the JSON request/response contract spoken over the
// external engine's stdin/stdout. One document per call, UTF-8, no framing.
// All knowledge of the engine's payload shapes lives here so the rest of the
// system is insulated from protocol drift.
package wire

import (
	"fmt"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"causalbridge/api/schemas"
)

// ProtocolError reports a violation of the wire contract: undecodable JSON,
// a missing status field, or a payload missing the fields its operation
// requires. The engine process itself ran; its output was unusable.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "engine protocol violation: " + e.Reason
}

// NewFitRequest assembles a fit request. Traces may be nil when the engine
// should fit against its own priors.
func NewFitRequest(g schemas.GraphPayload, traces map[string][]float64, cfg schemas.EngineConfig) *schemas.EngineRequest {
	return &schemas.EngineRequest{
		RequestID: uuid.New().String(),
		Graph:     g,
		Traces:    traces,
		Operation: schemas.OperationFit,
		Config:    cfg,
	}
}

// NewInterveneRequest assembles an intervention request against an already
// fitted model.
func NewInterveneRequest(g schemas.GraphPayload, iv *schemas.InterventionPayload, cfg schemas.EngineConfig) *schemas.EngineRequest {
	return &schemas.EngineRequest{
		RequestID:    uuid.New().String(),
		Graph:        g,
		Operation:    schemas.OperationIntervene,
		Intervention: iv,
		Config:       cfg,
	}
}

// Encode serializes a request to a single JSON document.
func Encode(req *schemas.EngineRequest) ([]byte, error) {
	out, err := json.Marshal(req)
	if err != nil {
		// Only reachable with a request containing unmarshalable values,
		// which would be a bug on our side.
		return nil, &ProtocolError{Reason: fmt.Sprintf("request not serializable: %v", err)}
	}
	return out, nil
}

// Decode parses a response document and validates that the payload carries
// the fields required by op. A status of "error" is returned as a valid
// response; classifying it is the bridge's job.
func Decode(raw []byte, op schemas.Operation) (*schemas.EngineResponse, error) {
	if len(raw) == 0 {
		return nil, &ProtocolError{Reason: "empty response document"}
	}
	var resp schemas.EngineResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	switch resp.Status {
	case schemas.StatusError:
		return &resp, nil
	case schemas.StatusSuccess:
		if err := validatePayload(&resp, op); err != nil {
			return nil, err
		}
		return &resp, nil
	case "":
		return nil, &ProtocolError{Reason: "response is missing the status field"}
	default:
		return nil, &ProtocolError{Reason: fmt.Sprintf("unknown status %q", resp.Status)}
	}
}

func validatePayload(resp *schemas.EngineResponse, op schemas.Operation) error {
	switch op {
	case schemas.OperationFit:
		if resp.SCM == nil || resp.SCM.Mechanisms == nil {
			return &ProtocolError{Reason: "fit response is missing scm.mechanisms"}
		}
		if resp.Validation == nil || resp.Validation.R2Scores == nil {
			return &ProtocolError{Reason: "fit response is missing validation.r2_scores"}
		}
	case schemas.OperationIntervene:
		if resp.Statistics == nil {
			return &ProtocolError{Reason: "intervene response is missing statistics"}
		}
	default:
		return &ProtocolError{Reason: fmt.Sprintf("unknown operation %q", op)}
	}
	return nil
}

// EncodeSpec lowers the tagged-union intervention spec to its wire payload.
// This is the single place that switches over the union; adding a variant
// without extending this function is a compile-time error at the call sites
// that construct it, and a ProtocolError here.
func EncodeSpec(spec schemas.InterventionSpec, allNodes []string) (*schemas.InterventionPayload, error) {
	opts := spec.Options()
	payload := &schemas.InterventionPayload{
		QueryNodes: opts.QueryNodes,
		NumSamples: opts.Samples(),
	}
	if payload.QueryNodes == nil {
		payload.QueryNodes = allNodes
	}

	add := func(iv schemas.InterventionSpec) error {
		switch v := iv.(type) {
		case schemas.Hard:
			if payload.DoValues == nil {
				payload.DoValues = make(map[string]float64)
			}
			payload.DoValues[v.Node] = v.Value
		case schemas.Soft:
			if v.Transform != schemas.TransformShift && v.Transform != schemas.TransformScale {
				return &ProtocolError{Reason: fmt.Sprintf("unsupported soft transform %q", v.Transform)}
			}
			if payload.Transforms == nil {
				payload.Transforms = make(map[string]schemas.SoftLayout)
			}
			payload.Transforms[v.Node] = schemas.SoftLayout{
				Transform: string(v.Transform),
				Param:     v.Param,
			}
		default:
			return &ProtocolError{Reason: fmt.Sprintf("unsupported intervention variant %T", iv)}
		}
		return nil
	}

	switch v := spec.(type) {
	case schemas.Observational:
		// No modification; the engine samples the fitted distribution as-is.
	case schemas.Multiple:
		for _, iv := range v.Interventions {
			if err := add(iv); err != nil {
				return nil, err
			}
		}
	default:
		if err := add(spec); err != nil {
			return nil, err
		}
	}
	return payload, nil
}
