package scoringservice

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
)

// PolicyFile is the YAML form of a scoring policy.
type PolicyFile struct {
	PlacementTable map[int]int                `yaml:"placement_table"`
	MaxGapSeconds  float64                    `yaml:"max_gap_seconds"`
	GapCurve       GapCurveFile               `yaml:"gap_curve"`
	FinishMeters   float64                    `yaml:"finish_meters"`
	Checkpoints    []scoringdomain.Checkpoint `yaml:"checkpoints"`
	Bonuses        []BonusFile                `yaml:"bonuses"`
	Records        []RecordFile               `yaml:"records"`
}

// GapCurveFile selects and parameterises the time-gap curve.
type GapCurveFile struct {
	Kind      string                  `yaml:"kind"`
	MaxPoints int                     `yaml:"max_points"`
	Steps     []scoringdomain.GapStep `yaml:"steps"`
}

// BonusFile defines one performance bonus.
type BonusFile struct {
	Type   string `yaml:"type"`
	Points int    `yaml:"points"`

	// Halfway names the checkpoint used by negative_split. Defaults to "half".
	Halfway string `yaml:"halfway"`

	// MaxDeviationSeconds bounds the pace spread, in seconds per km, for even_pace.
	MaxDeviationSeconds float64 `yaml:"max_deviation_seconds"`
}

// RecordFile defines one record threshold. Threshold accepts h:mm:ss.
type RecordFile struct {
	Type      string `yaml:"type"`
	Points    int    `yaml:"points"`
	Threshold string `yaml:"threshold"`
}

// LoadPolicy reads and validates a policy file.
func LoadPolicy(path string) (scoringdomain.ScoringPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoringdomain.ScoringPolicy{}, fmt.Errorf("failed to read scoring policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML into a validated policy.
func ParsePolicy(data []byte) (scoringdomain.ScoringPolicy, error) {
	var f PolicyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: %w", scoringdomain.ErrInvalidPolicy, err)
	}
	return f.Build()
}

// Build turns the file form into a policy and validates it.
func (f PolicyFile) Build() (scoringdomain.ScoringPolicy, error) {
	p := scoringdomain.ScoringPolicy{
		PlacementTable: f.PlacementTable,
		MaxGapSeconds:  f.MaxGapSeconds,
	}
	if p.PlacementTable == nil {
		p.PlacementTable = map[int]int{}
	}

	switch strings.ToLower(f.GapCurve.Kind) {
	case "", "linear":
		p.GapCurve = scoringdomain.LinearCurve{MaxPoints: f.GapCurve.MaxPoints}
	case "stepped":
		steps := append([]scoringdomain.GapStep(nil), f.GapCurve.Steps...)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].UpToSeconds < steps[j].UpToSeconds })
		p.GapCurve = scoringdomain.SteppedCurve{Steps: steps}
	default:
		return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: unknown gap curve %q", scoringdomain.ErrInvalidPolicy, f.GapCurve.Kind)
	}

	finish := f.FinishMeters
	if finish == 0 {
		finish = scoringdomain.MarathonMeters
	}

	for _, b := range f.Bonuses {
		def := scoringdomain.BonusDefinition{Type: b.Type, Points: b.Points}
		switch b.Type {
		case scoringdomain.BonusNegativeSplit:
			halfway := b.Halfway
			if halfway == "" {
				halfway = "half"
			}
			def.Predicate = scoringdomain.NegativeSplit(halfway)
		case scoringdomain.BonusEvenPace:
			if len(f.Checkpoints) == 0 {
				return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: even_pace needs checkpoints", scoringdomain.ErrInvalidPolicy)
			}
			def.Predicate = scoringdomain.EvenPace(f.Checkpoints, finish, b.MaxDeviationSeconds)
		default:
			return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: unknown bonus %q", scoringdomain.ErrInvalidPolicy, b.Type)
		}
		p.PerformanceBonuses = append(p.PerformanceBonuses, def)
	}

	for _, r := range f.Records {
		switch r.Type {
		case scoringdomain.RecordWorld, scoringdomain.RecordCourse, scoringdomain.RecordOlympic:
		default:
			return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: unknown record %q", scoringdomain.ErrInvalidPolicy, r.Type)
		}
		secs, err := parseClock(r.Threshold)
		if err != nil {
			return scoringdomain.ScoringPolicy{}, fmt.Errorf("%w: record %s: %w", scoringdomain.ErrInvalidPolicy, r.Type, err)
		}
		p.RecordThresholds = append(p.RecordThresholds, scoringdomain.RecordThreshold{
			Type:             r.Type,
			Points:           r.Points,
			ThresholdSeconds: secs,
		})
	}

	if err := scoringdomain.ValidatePolicy(p); err != nil {
		return scoringdomain.ScoringPolicy{}, err
	}
	return p, nil
}

// parseClock accepts h:mm:ss, m:ss or plain seconds.
func parseClock(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("threshold is empty")
	}
	var total float64
	for _, part := range strings.Split(raw, ":") {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time %q", raw)
		}
		total = total*60 + v
	}
	return total, nil
}
