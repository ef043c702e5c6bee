package model

// Probability is one (genre, probability) pair of a prediction.
type Probability struct {
	Genre string  `json:"genre"`
	Value float64 `json:"value"`
}

// GenrePrediction is the result returned to callers. Probabilities is nil
// when the classifier does not produce a per-class probability vector.
type GenrePrediction struct {
	Genre         string        `json:"genre"`
	Probabilities []Probability `json:"probabilities,omitempty"`
}

// HasProbabilities reports whether a probability list is attached.
func (p GenrePrediction) HasProbabilities() bool { return p.Probabilities != nil }

// Statistics keys.
const (
	StatBestModelMetrics = "Best model metrics"
)
