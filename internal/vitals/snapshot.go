package vitals

import (
	"encoding/json"
	"strings"
	"time"
)

// Snapshot is a point-in-time biometric reading. Fields are pointers because
// a wearable payload may omit any of them: a missing field means the
// corresponding scoring rule does not fire, never that the value is zero.
// Snapshots are replaced wholesale on each refresh, never partially mutated.
type Snapshot struct {
	HeartRate      *float64  `json:"heartRate,omitempty"`
	Steps          *float64  `json:"steps,omitempty"`
	CaloriesBurned *float64  `json:"caloriesBurned,omitempty"`
	BPSystolic     *float64  `json:"bpSystolic,omitempty"`
	BPDiastolic    *float64  `json:"bpDiastolic,omitempty"`
	BloodSugar     *float64  `json:"bloodSugar,omitempty"`
	ActivityLevel  string    `json:"activityLevel,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// wearablePayload matches the wearable stream file layout, which nests the
// activity level under an analysis block.
type wearablePayload struct {
	Snapshot
	Analysis *struct {
		ActivityLevel string `json:"activityLevel"`
	} `json:"analysis,omitempty"`
}

// ParseSnapshot decodes a wearable stream payload.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var p wearablePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Snapshot{}, err
	}
	snap := p.Snapshot
	if snap.ActivityLevel == "" && p.Analysis != nil {
		snap.ActivityLevel = p.Analysis.ActivityLevel
	}
	snap.ActivityLevel = strings.ToLower(snap.ActivityLevel)
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	return snap, nil
}

// ElevatedBP reports systolic >= 130 or diastolic >= 80. Unknown fields count
// as not elevated.
func (s Snapshot) ElevatedBP() bool {
	return (s.BPSystolic != nil && *s.BPSystolic >= 130) ||
		(s.BPDiastolic != nil && *s.BPDiastolic >= 80)
}

// HighBurn reports a recent calorie burn above 400 kcal.
func (s Snapshot) HighBurn() bool {
	return s.CaloriesBurned != nil && *s.CaloriesBurned > 400
}

// LowActivity reports a known low activity level.
func (s Snapshot) LowActivity() bool {
	return strings.EqualFold(s.ActivityLevel, "low")
}

// ActiveOrBetter reports moderate or high activity.
func (s Snapshot) ActiveOrBetter() bool {
	lvl := strings.ToLower(s.ActivityLevel)
	return lvl == "moderate" || lvl == "high"
}

// ElevatedHeartRate reports a heart rate at or above 95 bpm.
func (s Snapshot) ElevatedHeartRate() bool {
	return s.HeartRate != nil && *s.HeartRate >= 95
}

// HighRisk reports the vitals pattern that triggers the consult-a-doctor
// banner: systolic >= 140, diastolic >= 90, or blood sugar >= 180.
func (s Snapshot) HighRisk() bool {
	return (s.BPSystolic != nil && *s.BPSystolic >= 140) ||
		(s.BPDiastolic != nil && *s.BPDiastolic >= 90) ||
		(s.BloodSugar != nil && *s.BloodSugar >= 180)
}

// Metrics lists which metric groups are present, for reason text like
// "based on your wearable metrics (calorie burn, blood pressure)".
func (s Snapshot) Metrics() []string {
	var parts []string
	if s.CaloriesBurned != nil {
		parts = append(parts, "calorie burn")
	}
	if s.BPSystolic != nil && s.BPDiastolic != nil {
		parts = append(parts, "blood pressure")
	}
	if s.ActivityLevel != "" {
		parts = append(parts, "activity")
	}
	return parts
}
