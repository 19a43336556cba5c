package vitals

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column names the ingestion format recognizes. Heart_Rate and Systolic_BP
// are mandatory per row; everything else is optional.
const (
	colHeartRate     = "Heart_Rate"
	colSystolicBP    = "Systolic_BP"
	colDiastolicBP   = "Diastolic_BP"
	colOxygenLevel   = "Oxygen_Level"
	colSleepHours    = "Sleep_Hours"
	colStressLevel   = "Stress_Level"
	colCalorieIntake = "Calorie_Intake"
	colSymptomNotes  = "Symptom_Notes"
	colTimestamp     = "Timestamp"
)

// parseReadings consumes the whole stream and splits rows into valid typed
// readings and a failed-row count. Row-level problems never abort the parse;
// only a stream read error does.
func parseReadings(r io.Reader, patientID, batchID uuid.UUID, now time.Time) ([]*Reading, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []*Reading{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	var (
		readings []*Reading
		failed   int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row (bare quote etc.): reject the row, keep going.
			if _, ok := err.(*csv.ParseError); ok {
				failed++
				continue
			}
			return nil, 0, err
		}

		reading, ok := parseRow(record, colIdx, patientID, batchID, now)
		if !ok {
			failed++
			continue
		}
		readings = append(readings, reading)
	}

	return readings, failed, nil
}

func parseRow(record []string, colIdx map[string]int, patientID, batchID uuid.UUID, now time.Time) (*Reading, bool) {
	field := func(name string) string {
		i, ok := colIdx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	// Mandatory vitals: an absent or unparsable value fails the row.
	heartRate, err := strconv.ParseFloat(field(colHeartRate), 64)
	if err != nil {
		return nil, false
	}
	systolic, err := strconv.ParseFloat(field(colSystolicBP), 64)
	if err != nil {
		return nil, false
	}

	ts := now
	if raw := field(colTimestamp); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			ts = parsed
		}
	}

	return &Reading{
		PatientID:     patientID.String(),
		BatchID:       batchID.String(),
		Timestamp:     ts,
		HeartRate:     heartRate,
		SystolicBP:    systolic,
		DiastolicBP:   optionalFloat(field(colDiastolicBP)),
		OxygenLevel:   optionalFloat(field(colOxygenLevel)),
		SleepHours:    optionalFloat(field(colSleepHours)),
		StressLevel:   optionalFloat(field(colStressLevel)),
		CalorieIntake: optionalFloat(field(colCalorieIntake)),
		SymptomNotes:  field(colSymptomNotes),
	}, true
}

func optionalFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
