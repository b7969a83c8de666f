package pipeline

// Server-default policy parameters. These are the system's tunable surface;
// every numeric rule in the pipeline reads one of these, never an inline literal.
const (
	DefaultMinDocs             = 2   // minimum retrieved documents for sufficiency
	DefaultMinScore            = 0.6 // minimum top similarity for sufficiency
	DefaultConfidenceThreshold = 0.7 // final acceptance threshold
	DefaultEvidenceWeight      = 0.6 // weight of evidence score in confidence
	DefaultOverlapWeight       = 0.4 // weight of token overlap in confidence
	DefaultMaxAnswerFactor     = 2   // answer may be at most this × evidence length
	DefaultTopK                = 5   // documents requested from the retrieval backend
)

// Thresholds holds the resolved policy parameters for one pipeline invocation.
type Thresholds struct {
	MinDocs             int
	MinScore            float64
	ConfidenceThreshold float64
	EvidenceWeight      float64
	OverlapWeight       float64
	MaxAnswerFactor     int
	TopK                int
}

// DefaultThresholds returns the server-default parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDocs:             DefaultMinDocs,
		MinScore:            DefaultMinScore,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		EvidenceWeight:      DefaultEvidenceWeight,
		OverlapWeight:       DefaultOverlapWeight,
		MaxAnswerFactor:     DefaultMaxAnswerFactor,
		TopK:                DefaultTopK,
	}
}

// ThresholdOverrides is the per-client configuration loaded from the clients
// table's threshold_config JSONB column. All pointer fields use nil to mean
// "use server default".
type ThresholdOverrides struct {
	MinDocs             *int     `json:"min_docs"`
	MinScore            *float64 `json:"min_score"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	TopK                *int     `json:"top_k"`
}

// Apply resolves the overrides against a base configuration.
// A nil receiver returns the base unchanged.
func (o *ThresholdOverrides) Apply(base Thresholds) Thresholds {
	if o == nil {
		return base
	}
	if o.MinDocs != nil {
		base.MinDocs = *o.MinDocs
	}
	if o.MinScore != nil {
		base.MinScore = *o.MinScore
	}
	if o.ConfidenceThreshold != nil {
		base.ConfidenceThreshold = *o.ConfidenceThreshold
	}
	if o.TopK != nil {
		base.TopK = *o.TopK
	}
	return base
}
