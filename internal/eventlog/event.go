package eventlog

// Kind defines what an event records.
type Kind string

const (
	// Glucose is a sensor glucose reading.
	Glucose Kind = "glucose"
	// Insulin is an insulin injection.
	Insulin Kind = "insulin"
	// Meal is a recorded meal.
	Meal Kind = "meal"
)

// Event is a single recorded observation for a source.
// It is the primary unit of the event log.
type Event struct {
	// Kind is the type of observation.
	Kind Kind `json:"kind"`
	// Timestamp is the time of the observation (Unix microseconds).
	Timestamp int64 `json:"ts"`
	// Seq distinguishes events of the same kind sharing a timestamp.
	Seq int `json:"seq"`

	// Value is the glucose value in mg/dL, when numeric.
	Value *float64 `json:"value,omitempty"`
	// Raw is the glucose value as text when it was not numeric at ingestion.
	Raw string `json:"raw,omitempty"`
	// Dose is the insulin dose in units.
	Dose float64 `json:"dose,omitempty"`
	// Carbs is the carbohydrate amount of a meal in grams.
	Carbs *float64 `json:"carbs,omitempty"`
}
