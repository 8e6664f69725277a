package htm

import (
	"go.uber.org/multierr"

	"github.com/htm-community/seqmem/utils"
)

/*
Params for initializing a spatial pooler
*/
type SpParams struct {
	InputDimensions  []int `yaml:"inputDimensions" validate:"required,min=1,dive,gt=0"`
	ColumnDimensions []int `yaml:"columnDimensions" validate:"required,min=1,dive,gt=0"`
	//Radius, in input space, of the inputs a column may connect to.
	PotentialRadius int `yaml:"potentialRadius" validate:"gte=0"`
	//Fraction of the inputs within PotentialRadius that join a column's
	//potential pool.
	PotentialPct     float64 `yaml:"potentialPct" validate:"gt=0,lte=1"`
	GlobalInhibition bool    `yaml:"globalInhibition"`
	//Desired density of active columns within an inhibition area. Only
	//one of LocalAreaDensity and NumActiveColumnsPerInhArea may be > 0.
	LocalAreaDensity           float64 `yaml:"localAreaDensity" validate:"lte=0.5"`
	NumActiveColumnsPerInhArea int     `yaml:"numActiveColumnsPerInhArea"`
	//Minimum overlap for a column to be eligible for activation.
	StimulusThreshold  int     `yaml:"stimulusThreshold" validate:"gte=0"`
	SynPermInactiveDec float64 `yaml:"synPermInactiveDec" validate:"gte=0,lte=1"`
	SynPermActiveInc   float64 `yaml:"synPermActiveInc" validate:"gte=0,lte=1"`
	SynPermConnected   float64 `yaml:"synPermConnected" validate:"gte=0,lte=1"`
	//Increment used to lift a column's permanences until it has at least
	//StimulusThreshold connected synapses. Negative derives
	//SynPermConnected / 10.
	SynPermBelowStimulusInc float64 `yaml:"synPermBelowStimulusInc" validate:"lte=1"`
	SynPermMin              float64 `yaml:"synPermMin" validate:"gte=0,lte=1"`
	SynPermMax              float64 `yaml:"synPermMax" validate:"gte=0,lte=1"`
	//Permanences at or below this leave no synapse. Negative derives
	//SynPermActiveInc / 2.
	SynPermTrimThreshold    float64 `yaml:"synPermTrimThreshold" validate:"lte=1"`
	MinPctOverlapDutyCycles float64 `yaml:"minPctOverlapDutyCycles" validate:"gte=0,lte=1"`
	MinPctActiveDutyCycles  float64 `yaml:"minPctActiveDutyCycles" validate:"gte=0,lte=1"`
	DutyCyclePeriod         int     `yaml:"dutyCyclePeriod" validate:"gte=1"`
	MaxBoost                float64 `yaml:"maxBoost" validate:"gte=1"`
	//Iterations between inhibition radius / min duty cycle updates.
	UpdatePeriod     int     `yaml:"updatePeriod" validate:"gte=1"`
	InitConnectedPct float64 `yaml:"initConnectedPct" validate:"gte=0,lte=1"`
	//Whether potential pools wrap around the edges of the input space.
	WrapAround bool  `yaml:"wrapAround"`
	Seed       int64 `yaml:"seed"`

	//Compute overlaps on worker goroutines. Off by default and never
	//allowed together with Deterministic.
	ParallelOverlap bool `yaml:"parallelOverlap"`
	//Worker count for ParallelOverlap, 0 means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
	//Reject any setting that could make two identically seeded runs
	//diverge.
	Deterministic bool `yaml:"deterministic"`
}

//Returns the default spatial pooler params
func NewSpParams() SpParams {
	return SpParams{
		InputDimensions:            []int{32, 32},
		ColumnDimensions:           []int{64, 64},
		PotentialRadius:            16,
		PotentialPct:               0.5,
		GlobalInhibition:           false,
		LocalAreaDensity:           -1.0,
		NumActiveColumnsPerInhArea: 10,
		StimulusThreshold:          0,
		SynPermInactiveDec:         0.008,
		SynPermActiveInc:           0.05,
		SynPermConnected:           0.10,
		SynPermBelowStimulusInc:    -1,
		SynPermMin:                 0.0,
		SynPermMax:                 1.0,
		SynPermTrimThreshold:       -1,
		MinPctOverlapDutyCycles:    0.001,
		MinPctActiveDutyCycles:     0.001,
		DutyCyclePeriod:            1000,
		MaxBoost:                   10.0,
		UpdatePeriod:               50,
		InitConnectedPct:           0.5,
		WrapAround:                 true,
		Seed:                       42,
		Deterministic:              true,
	}
}

// resolved fills the derived defaults.
func (p SpParams) resolved() SpParams {
	p.InputDimensions = append([]int(nil), p.InputDimensions...)
	p.ColumnDimensions = append([]int(nil), p.ColumnDimensions...)
	if p.SynPermBelowStimulusInc < 0 {
		p.SynPermBelowStimulusInc = p.SynPermConnected / 10.0
	}
	if p.SynPermTrimThreshold < 0 {
		p.SynPermTrimThreshold = p.SynPermActiveInc / 2.0
	}
	return p
}

// DeterminismHazard reports whether these params give up bit-exact
// reproducibility.
func (p SpParams) DeterminismHazard() bool {
	return p.ParallelOverlap
}

//Checks every parameter and returns all violations at once
func (p SpParams) Validate() error {
	p = p.resolved()
	err := validateTags(p)

	if len(p.InputDimensions) != len(p.ColumnDimensions) && len(p.InputDimensions) > 0 {
		err = multierr.Append(err, configErr("InputDimensions", p.InputDimensions,
			"must have as many dimensions as ColumnDimensions %v", p.ColumnDimensions))
	}
	if p.NumActiveColumnsPerInhArea > 0 && p.LocalAreaDensity > 0 {
		err = multierr.Append(err, configErr("LocalAreaDensity", p.LocalAreaDensity,
			"cannot be set together with NumActiveColumnsPerInhArea"))
	}
	if p.NumActiveColumnsPerInhArea <= 0 && p.LocalAreaDensity <= 0 {
		err = multierr.Append(err, configErr("NumActiveColumnsPerInhArea", p.NumActiveColumnsPerInhArea,
			"either it or LocalAreaDensity must be > 0"))
	}
	if p.SynPermMin >= p.SynPermMax {
		err = multierr.Append(err, configErr("SynPermMin", p.SynPermMin, "must be below SynPermMax %v", p.SynPermMax))
	}
	if p.SynPermConnected < p.SynPermMin || p.SynPermConnected > p.SynPermMax {
		err = multierr.Append(err, configErr("SynPermConnected", p.SynPermConnected,
			"must lie in [SynPermMin, SynPermMax]"))
	}
	if p.StimulusThreshold > 0 && p.SynPermBelowStimulusInc <= 0 {
		err = multierr.Append(err, configErr("SynPermBelowStimulusInc", p.SynPermBelowStimulusInc,
			"must be > 0 when StimulusThreshold is set"))
	}
	if numColumns := utils.ProdInt(p.ColumnDimensions); p.NumActiveColumnsPerInhArea > numColumns && numColumns > 0 {
		err = multierr.Append(err, configErr("NumActiveColumnsPerInhArea", p.NumActiveColumnsPerInhArea,
			"exceeds the %d columns", numColumns))
	}
	if p.Deterministic && p.DeterminismHazard() {
		err = multierr.Append(err, configErr("ParallelOverlap", p.ParallelOverlap,
			"cannot be combined with Deterministic"))
	}
	return err
}

/*
 Reconciles InputDimensions with the width an upstream encoder actually
produces. A zero or one dimensional shape is replaced by [width]; a
multi-dimensional shape whose product disagrees cannot be corrected
unambiguously and is rejected. Constructors take InputDimensions as
given, so call this before NewSpatialPooler or NewLayer when the width
comes from an encoder.
*/
func (p *SpParams) InferInputDimensions(width int) error {
	if width <= 0 {
		return configErr("InputDimensions", width, "input width must be > 0")
	}
	if utils.ProdInt(p.InputDimensions) == width {
		return nil
	}
	if len(p.InputDimensions) <= 1 {
		p.InputDimensions = []int{width}
		return nil
	}
	return configErr("InputDimensions", p.InputDimensions,
		"product %d disagrees with input width %d", utils.ProdInt(p.InputDimensions), width)
}
