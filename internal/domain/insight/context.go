package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// How much history goes into one context bundle.
const (
	vitalsWindow  = 20
	historyWindow = 5
)

// VitalsPoint is the aggregator's view of one vitals reading.
type VitalsPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	HeartRate     float64   `json:"heartRate"`
	SystolicBP    float64   `json:"systolicBp"`
	DiastolicBP   float64   `json:"diastolicBp,omitempty"`
	OxygenLevel   float64   `json:"oxygenLevel,omitempty"`
	SleepHours    float64   `json:"sleepHours,omitempty"`
	StressLevel   float64   `json:"stressLevel,omitempty"`
	CalorieIntake float64   `json:"calorieIntake,omitempty"`
	SymptomNotes  string    `json:"symptomNotes,omitempty"`
}

// HistoryEntry is the aggregator's view of one clinical visit.
type HistoryEntry struct {
	VisitDate  time.Time `json:"visitDate"`
	DoctorName string    `json:"doctorName,omitempty"`
	Diagnosis  string    `json:"diagnosis"`
	Notes      string    `json:"notes,omitempty"`
}

// ActiveMedication is the aggregator's view of one current prescription.
type ActiveMedication struct {
	DrugName  string `json:"drugName"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration,omitempty"`
}

// VitalsSource supplies recent readings, newest first.
type VitalsSource interface {
	RecentVitals(ctx context.Context, patientID uuid.UUID, limit int) ([]VitalsPoint, error)
}

// ClinicalSource supplies visit history and the current regimen.
type ClinicalSource interface {
	RecentHistory(ctx context.Context, patientID uuid.UUID, limit int) ([]HistoryEntry, error)
	CurrentMedications(ctx context.Context, patientID uuid.UUID) ([]ActiveMedication, error)
}

// ContextBundle is the aggregated snapshot handed to the reasoning engine.
// Every dimension is an empty, never nil, slice when the patient has no data.
type ContextBundle struct {
	PatientID   string             `json:"patientId"`
	Vitals      []VitalsPoint      `json:"vitals"`
	History     []HistoryEntry     `json:"history"`
	Medications []ActiveMedication `json:"medications"`
	SymptomText string             `json:"symptomText,omitempty"`
}

// ContextBuilder pulls the two stores together into one bundle.
type ContextBuilder struct {
	vitals   VitalsSource
	clinical ClinicalSource
}

func NewContextBuilder(vitals VitalsSource, clinical ClinicalSource) *ContextBuilder {
	return &ContextBuilder{vitals: vitals, clinical: clinical}
}

// Build assembles the patient snapshot: the 20 most recent vitals, the 5 most
// recent visits and the active medications. A patient unknown to either store
// still yields a bundle, just an empty one.
func (b *ContextBuilder) Build(ctx context.Context, patientID uuid.UUID) (*ContextBundle, error) {
	vitals, err := b.vitals.RecentVitals(ctx, patientID, vitalsWindow)
	if err != nil {
		return nil, fmt.Errorf("load vitals: %w", err)
	}
	history, err := b.clinical.RecentHistory(ctx, patientID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	meds, err := b.clinical.CurrentMedications(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}

	if vitals == nil {
		vitals = []VitalsPoint{}
	}
	if history == nil {
		history = []HistoryEntry{}
	}
	if meds == nil {
		meds = []ActiveMedication{}
	}

	return &ContextBundle{
		PatientID:   patientID.String(),
		Vitals:      vitals,
		History:     history,
		Medications: meds,
	}, nil
}
