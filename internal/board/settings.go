package board

// Default knobs match the production board configuration.
const (
	DefaultStepMinutes        = 30
	DefaultMinDuration        = 30
	DefaultRequiredGapMinutes = 15
)

// Settings are the immutable per-board editing knobs. They are threaded into
// every editor and coordinator explicitly; there is no ambient settings
// object.
type Settings struct {
	StepMinutes        int
	MinDurationMinutes int
	RequiredGapMinutes int
}

// WithDefaults fills unset fields with the default knobs.
func (s Settings) WithDefaults() Settings {
	if s.StepMinutes <= 0 {
		s.StepMinutes = DefaultStepMinutes
	}
	if s.MinDurationMinutes <= 0 {
		s.MinDurationMinutes = DefaultMinDuration
	}
	if s.RequiredGapMinutes < 0 {
		s.RequiredGapMinutes = DefaultRequiredGapMinutes
	}
	return s
}
