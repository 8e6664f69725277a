package htm

import (
	"go.uber.org/multierr"
)

// permanences at or below this are treated as zero and their synapse removed
const distalTrimThreshold = 0.00001

/*
Params for intializing temporal memory
*/
type TemporalMemoryParams struct {
	//Column dimensions
	ColumnDimensions []int `yaml:"columnDimensions" validate:"required,min=1,dive,gt=0"`
	CellsPerColumn   int   `yaml:"cellsPerColumn" validate:"gte=1"`
	//If the number of active connected synapses on a segment is at least
	//this threshold, the segment is said to be active.
	ActivationThreshold int     `yaml:"activationThreshold" validate:"gte=1"`
	InitialPermanence   float64 `yaml:"initialPermanence" validate:"gte=0,lte=1"`
	//If the permanence value for a synapse is greater than this value, it is said
	//to be connected.
	ConnectedPermanence float64 `yaml:"connectedPermanence" validate:"gte=0,lte=1"`
	//If the number of synapses active on a segment is at least this threshold,
	//it is selected as the best matching cell in a bursing column.
	MinThreshold int `yaml:"minThreshold" validate:"gte=1"`
	//The maximum number of synapses added to a segment during learning.
	MaxNewSynapseCount  int     `yaml:"maxNewSynapseCount" validate:"gte=0"`
	PermanenceIncrement float64 `yaml:"permanenceIncrement" validate:"gte=0,lte=1"`
	PermanenceDecrement float64 `yaml:"permanenceDecrement" validate:"gte=0,lte=1"`
	//Decrement applied to active synapses of matching segments in columns
	//that were predicted but did not become active. 0 disables it.
	PredictedSegmentDecrement float64 `yaml:"predictedSegmentDecrement" validate:"gte=0,lte=1"`
	MaxSegmentsPerCell        int     `yaml:"maxSegmentsPerCell" validate:"gte=1"`
	MaxSynapsesPerSegment     int     `yaml:"maxSynapsesPerSegment" validate:"gte=1"`
	//Which segment gives way when a cell is at MaxSegmentsPerCell.
	Eviction EvictionPolicy `yaml:"eviction"`
	//rand seed
	Seed int64 `yaml:"seed"`
}

//Returns the default temporal memory params
func NewTemporalMemoryParams() TemporalMemoryParams {
	return TemporalMemoryParams{
		ColumnDimensions:          []int{2048},
		CellsPerColumn:            32,
		ActivationThreshold:       13,
		InitialPermanence:         0.21,
		ConnectedPermanence:       0.50,
		MinThreshold:              10,
		MaxNewSynapseCount:        20,
		PermanenceIncrement:       0.10,
		PermanenceDecrement:       0.10,
		PredictedSegmentDecrement: 0.0,
		MaxSegmentsPerCell:        255,
		MaxSynapsesPerSegment:     255,
		Eviction:                  EvictLowestPermanence,
		Seed:                      42,
	}
}

//Checks every parameter and returns all violations at once
func (p TemporalMemoryParams) Validate() error {
	err := validateTags(p)
	if p.ActivationThreshold > p.MaxSynapsesPerSegment && p.MaxSynapsesPerSegment > 0 {
		err = multierr.Append(err, configErr("ActivationThreshold", p.ActivationThreshold,
			"can never be reached with MaxSynapsesPerSegment %d", p.MaxSynapsesPerSegment))
	}
	if p.MinThreshold > p.MaxSynapsesPerSegment && p.MaxSynapsesPerSegment > 0 {
		err = multierr.Append(err, configErr("MinThreshold", p.MinThreshold,
			"can never be reached with MaxSynapsesPerSegment %d", p.MaxSynapsesPerSegment))
	}
	if p.Eviction != EvictLowestPermanence && p.Eviction != EvictLeastRecentlyUsed {
		err = multierr.Append(err, configErr("Eviction", int(p.Eviction), "unknown eviction policy"))
	}
	return err
}

func (p TemporalMemoryParams) distalRules() SynapseRules {
	return SynapseRules{
		ConnectedPermanence:   p.ConnectedPermanence,
		PermanenceMin:         0,
		PermanenceMax:         1,
		TrimThreshold:         distalTrimThreshold,
		MaxSegmentsPerCell:    p.MaxSegmentsPerCell,
		MaxSynapsesPerSegment: p.MaxSynapsesPerSegment,
		Eviction:              p.Eviction,
	}
}
