package chaos

import (
	"math"
	"strings"
)

// Type selects the iteration mode of a descriptor.
type Type string

const (
	ChaosGame   Type = "chaosGame"
	ChaosAffine Type = "chaosAffine"
)

// Constraint restricts which vertex may follow the previously selected one.
type Constraint uint8

const (
	ConstraintNone Constraint = iota
	SkipRepeat
	SkipAdjacent
	SkipOpposite
)

func (c Constraint) String() string {
	switch c {
	case SkipRepeat:
		return "skipRepeat"
	case SkipAdjacent:
		return "skipAdjacent"
	case SkipOpposite:
		return "skipOpposite"
	default:
		return "none"
	}
}

// Exclusion is a spatial region whose points are iterated but never plotted.
type Exclusion uint8

const (
	ExcludeNone Exclusion = iota
	ExcludeCenterSquare
)

// ColorScheme selects how a plotted point's hue is derived.
type ColorScheme string

const (
	// SchemeIndex: hue = selected index / vertex count * 360.
	SchemeIndex ColorScheme = "index"
	// SchemeOffset: hue = HueBase + selected index * HueStep.
	SchemeOffset ColorScheme = "offset"
	// SchemePosition: hue = x / width * 360.
	SchemePosition ColorScheme = "position"
	// SchemeDiagonal: hue = (x + y) / (width + height) * 360.
	SchemeDiagonal ColorScheme = "diagonal"
	// SchemeCycle: hue advances by a fixed step every iteration.
	SchemeCycle ColorScheme = "cycle"
)

const (
	DefaultRatio            = 0.5
	DefaultChaosBatchSize   = 500
	DefaultAffineBatchSize  = 1000
	DefaultSaturation       = 0.80
	DefaultLightness        = 0.60
	DefaultCycleSaturation  = 0.85
	ProbabilitySumTolerance = 0.01
)

// Vertex is a reference point given as fractions of the canvas extent.
type Vertex struct {
	XRatio float64 `json:"xRatio" yaml:"xRatio"`
	YRatio float64 `json:"yRatio" yaml:"yRatio"`
}

// AffineRule is the map x' = A·x + B·y + E, y' = C·x + D·y + F chosen with probability P.
type AffineRule struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
	D float64 `json:"d" yaml:"d"`
	E float64 `json:"e" yaml:"e"`
	F float64 `json:"f" yaml:"f"`
	P float64 `json:"p" yaml:"p"`
}

// Apply maps (x, y) through the rule.
func (r AffineRule) Apply(x, y float64) (float64, float64) {
	return r.A*x + r.B*y + r.E, r.C*x + r.D*y + r.F
}

// Point is a position in pixel or map-native space.
type Point struct {
	X, Y float64
}

// Coloring is the color behavior tag carried by a descriptor.
type Coloring struct {
	Scheme     ColorScheme `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	HueBase    float64     `json:"hueBase,omitempty" yaml:"hueBase,omitempty"`
	HueStep    float64     `json:"hueStep,omitempty" yaml:"hueStep,omitempty"`
	Saturation float64     `json:"saturation,omitempty" yaml:"saturation,omitempty"`
	Lightness  float64     `json:"lightness,omitempty" yaml:"lightness,omitempty"`
}

// RawDescriptor is a descriptor as found in a catalog file, before validation.
type RawDescriptor struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Formulas    []string `json:"formulas,omitempty" yaml:"formulas,omitempty"`
	Type        string   `json:"type" yaml:"type"`

	Vertices     []Vertex `json:"vertices,omitempty" yaml:"vertices,omitempty"`
	Ratio        float64  `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	SkipRepeat   bool     `json:"skipRepeat,omitempty" yaml:"skipRepeat,omitempty"`
	SkipAdjacent bool     `json:"skipAdjacent,omitempty" yaml:"skipAdjacent,omitempty"`
	SkipOpposite bool     `json:"skipOpposite,omitempty" yaml:"skipOpposite,omitempty"`
	SkipCenter   bool     `json:"skipCenter,omitempty" yaml:"skipCenter,omitempty"`

	AffineRules []AffineRule `json:"affineRules,omitempty" yaml:"affineRules,omitempty"`

	BatchSize int       `json:"batchSize,omitempty" yaml:"batchSize,omitempty"`
	Coloring  *Coloring `json:"coloring,omitempty" yaml:"coloring,omitempty"`
}

// Descriptor is a validated fractal definition. Treat it as read-only.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Formulas    []string
	Type        Type

	// chaos game
	Vertices   []Vertex
	Ratio      float64
	Constraint Constraint

	// affine
	Rules []AffineRule

	Exclusion Exclusion
	BatchSize int
	Coloring  Coloring

	Warnings []ProbabilitySumWarning
}

// Normalize validates raw and fills in defaults.
// Errors match ErrInvalidDescriptor or ErrUnknownFractalType.
func Normalize(raw RawDescriptor) (Descriptor, error) {
	id := strings.TrimSpace(raw.ID)
	d := Descriptor{
		ID:          id,
		Name:        raw.Name,
		Description: raw.Description,
		Formulas:    append([]string(nil), raw.Formulas...),
		Type:        Type(raw.Type),
		BatchSize:   raw.BatchSize,
	}
	if d.Name == "" {
		d.Name = id
	}
	if raw.SkipCenter {
		d.Exclusion = ExcludeCenterSquare
	}

	switch d.Type {
	case ChaosGame:
		d.Vertices = append([]Vertex(nil), raw.Vertices...)
		d.Ratio = raw.Ratio
		if d.Ratio == 0 {
			d.Ratio = DefaultRatio
		}
		switch {
		case raw.SkipRepeat:
			d.Constraint = SkipRepeat
		case raw.SkipAdjacent:
			d.Constraint = SkipAdjacent
		case raw.SkipOpposite:
			d.Constraint = SkipOpposite
		}
		if d.BatchSize == 0 {
			d.BatchSize = DefaultChaosBatchSize
		}
	case ChaosAffine:
		d.Rules = append([]AffineRule(nil), raw.AffineRules...)
		if d.BatchSize == 0 {
			d.BatchSize = DefaultAffineBatchSize
		}
	}
	d.Coloring = normalizeColoring(raw.Coloring, d.Type)

	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}

	if d.Type == ChaosAffine {
		if sum := d.ProbabilitySum(); math.Abs(sum-1) > ProbabilitySumTolerance {
			w := ProbabilitySumWarning{ID: d.ID, Sum: sum}
			d.Warnings = append(d.Warnings, w)
			Logger().Warn("affine probabilities do not sum to 1", "id", d.ID, "sum", sum)
		}
	}
	return d, nil
}

func normalizeColoring(c *Coloring, t Type) Coloring {
	var out Coloring
	if c != nil {
		out = *c
	}
	switch out.Scheme {
	case SchemeIndex, SchemeOffset, SchemePosition, SchemeDiagonal, SchemeCycle:
	case "":
		out.Scheme = SchemeIndex
		if t == ChaosAffine {
			out.Scheme = SchemeCycle
		}
	default:
		Logger().Debug("unknown color scheme, using index", "scheme", out.Scheme)
		out.Scheme = SchemeIndex
	}
	if out.Saturation == 0 {
		out.Saturation = DefaultSaturation
		if out.Scheme == SchemeCycle {
			out.Saturation = DefaultCycleSaturation
		}
	}
	if out.Lightness == 0 {
		out.Lightness = DefaultLightness
	}
	return out
}

// Validate checks the invariants of d. Normalize calls it; Activate calls it again
// so hand-built descriptors are held to the same rules.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return invalid("", "id", "required")
	}
	switch d.Type {
	case ChaosGame:
		if len(d.Vertices) == 0 {
			return invalid(d.ID, "vertices", "at least one vertex required")
		}
		for i, v := range d.Vertices {
			if !inUnit(v.XRatio) || !inUnit(v.YRatio) {
				return invalid(d.ID, "vertices", "vertex %d (%g, %g) outside [0,1]", i, v.XRatio, v.YRatio)
			}
		}
		if !(d.Ratio > 0 && d.Ratio < 1) {
			return invalid(d.ID, "ratio", "%g not in (0,1)", d.Ratio)
		}
	case ChaosAffine:
		if len(d.Rules) == 0 {
			return invalid(d.ID, "affineRules", "at least one rule required")
		}
		for i, r := range d.Rules {
			if r.P < 0 || math.IsNaN(r.P) || math.IsInf(r.P, 0) {
				return invalid(d.ID, "affineRules", "rule %d probability %g must be a finite value >= 0", i, r.P)
			}
		}
	default:
		return &UnknownFractalTypeError{ID: d.ID, Type: string(d.Type)}
	}
	if d.BatchSize <= 0 {
		return invalid(d.ID, "batchSize", "%d must be positive", d.BatchSize)
	}
	if !inUnit(d.Coloring.Saturation) || !inUnit(d.Coloring.Lightness) {
		return invalid(d.ID, "coloring", "saturation and lightness must be in [0,1]")
	}
	return nil
}

// ProbabilitySum is the sum of all affine rule probabilities.
func (d Descriptor) ProbabilitySum() float64 {
	var sum float64
	for _, r := range d.Rules {
		sum += r.P
	}
	return sum
}

// PixelVertices converts the stored vertex ratios to absolute coordinates for a
// width x height surface. Call it again whenever the surface is resized.
func (d Descriptor) PixelVertices(width, height int) []Point {
	pts := make([]Point, len(d.Vertices))
	for i, v := range d.Vertices {
		pts[i] = Point{X: v.XRatio * float64(width), Y: v.YRatio * float64(height)}
	}
	return pts
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
