package insight

import (
	"time"
)

// TriggerSource records what initiated an analysis run.
type TriggerSource string

const (
	TriggerScheduled TriggerSource = "Scheduled"
	TriggerUpload    TriggerSource = "Upload"
	TriggerDoctor    TriggerSource = "Doctor"
	TriggerManual    TriggerSource = "Manual"
)

// ValidTrigger reports whether t is one of the four known trigger sources.
func ValidTrigger(t TriggerSource) bool {
	switch t {
	case TriggerScheduled, TriggerUpload, TriggerDoctor, TriggerManual:
		return true
	}
	return false
}

// RiskCategory is the four-level risk classification an analysis yields.
type RiskCategory string

const (
	RiskLow      RiskCategory = "Low"
	RiskMedium   RiskCategory = "Medium"
	RiskHigh     RiskCategory = "High"
	RiskCritical RiskCategory = "Critical"
)

// ValidRisk reports whether r is one of the four known risk categories.
func ValidRisk(r RiskCategory) bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Recommendations splits the engine's advice into lifestyle and medical lanes.
type Recommendations struct {
	Lifestyle []string `bson:"lifestyle" json:"lifestyle"`
	Medical   []string `bson:"medical" json:"medical"`
}

// Insight is one immutable AI risk assessment. The json field names are
// contractual: downstream consumers depend on this exact shape.
type Insight struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	PatientID       string          `bson:"patientId" json:"patientId"`
	GeneratedAt     time.Time       `bson:"generatedAt" json:"generatedAt"`
	TriggerSource   TriggerSource   `bson:"triggerSource" json:"triggerSource"`
	RiskCategory    RiskCategory    `bson:"riskCategory" json:"riskCategory"`
	ConfidenceScore float64         `bson:"confidenceScore" json:"confidenceScore"`
	Reasoning       string          `bson:"reasoning" json:"reasoning"`
	KeyFactors      []string        `bson:"keyFactors" json:"keyFactors"`
	MedicationLinks []string        `bson:"medicationLinks" json:"medicationLinks"`
	Recommendations Recommendations `bson:"recommendations" json:"recommendations"`
}
