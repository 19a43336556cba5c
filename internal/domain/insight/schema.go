package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrResponseInvalid marks an engine response that does not meet the insight
// contract. Nothing from such a response is ever persisted.
var ErrResponseInvalid = errors.New("engine response does not match the insight schema")

// engineResponse is the closed shape an analysis response must decode into.
// Pointer fields distinguish absent from empty so required fields can be
// enforced.
type engineResponse struct {
	RiskCategory    *RiskCategory    `json:"riskCategory"`
	ConfidenceScore *float64         `json:"confidenceScore"`
	Reasoning       *string          `json:"reasoning"`
	KeyFactors      []string         `json:"keyFactors"`
	MedicationLinks []string         `json:"medicationLinks"`
	Recommendations *Recommendations `json:"recommendations"`
}

// decodeEngineResponse validates raw engine output against the contract:
// unknown fields, missing required fields, out-of-enum risk and out-of-range
// confidence all reject the whole response.
func decodeEngineResponse(raw []byte) (*engineResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp engineResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	// Trailing content after the object is as malformed as a bad object.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing content after response object", ErrResponseInvalid)
	}

	switch {
	case resp.RiskCategory == nil:
		return nil, fmt.Errorf("%w: missing riskCategory", ErrResponseInvalid)
	case !ValidRisk(*resp.RiskCategory):
		return nil, fmt.Errorf("%w: unknown riskCategory %q", ErrResponseInvalid, *resp.RiskCategory)
	case resp.ConfidenceScore == nil:
		return nil, fmt.Errorf("%w: missing confidenceScore", ErrResponseInvalid)
	case *resp.ConfidenceScore < 0 || *resp.ConfidenceScore > 100:
		return nil, fmt.Errorf("%w: confidenceScore %v out of range", ErrResponseInvalid, *resp.ConfidenceScore)
	case resp.Reasoning == nil || *resp.Reasoning == "":
		return nil, fmt.Errorf("%w: missing reasoning", ErrResponseInvalid)
	case resp.Recommendations == nil:
		return nil, fmt.Errorf("%w: missing recommendations", ErrResponseInvalid)
	}

	if resp.KeyFactors == nil {
		resp.KeyFactors = []string{}
	}
	if resp.MedicationLinks == nil {
		resp.MedicationLinks = []string{}
	}
	if resp.Recommendations.Lifestyle == nil {
		resp.Recommendations.Lifestyle = []string{}
	}
	if resp.Recommendations.Medical == nil {
		resp.Recommendations.Medical = []string{}
	}
	return &resp, nil
}
