package htm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

/*
 LayerParams configure a spatial pooler and a temporal memory running on
one shared graph. The graph and its random stream are seeded from
SpatialPooler.Seed; TemporalMemory.Seed is not used inside a layer.
*/
type LayerParams struct {
	SpatialPooler  SpParams             `yaml:"spatialPooler"`
	TemporalMemory TemporalMemoryParams `yaml:"temporalMemory"`
	//Cycles after a reset that are not counted in the prediction stats.
	StatsBurnIn int `yaml:"statsBurnIn" validate:"gte=0"`
}

//Returns the default layer params
func NewLayerParams() LayerParams {
	sp := NewSpParams()
	tm := NewTemporalMemoryParams()
	tm.ColumnDimensions = append([]int(nil), sp.ColumnDimensions...)
	return LayerParams{
		SpatialPooler:  sp,
		TemporalMemory: tm,
		StatsBurnIn:    1,
	}
}

//Checks both algorithms' params and their agreement
func (p LayerParams) Validate() error {
	var err error
	if p.StatsBurnIn < 0 {
		err = multierr.Append(err, configErr("StatsBurnIn", p.StatsBurnIn, "must be >= 0"))
	}
	err = multierr.Append(err, p.SpatialPooler.Validate())
	err = multierr.Append(err, p.TemporalMemory.Validate())
	if !equalInts(p.SpatialPooler.ColumnDimensions, p.TemporalMemory.ColumnDimensions) {
		err = multierr.Append(err, configErr("TemporalMemory.ColumnDimensions", p.TemporalMemory.ColumnDimensions,
			"must equal SpatialPooler.ColumnDimensions %v", p.SpatialPooler.ColumnDimensions))
	}
	return err
}

// DeterminismHazard reports whether the layer gives up bit-exact
// reproducibility.
func (p LayerParams) DeterminismHazard() bool {
	return p.SpatialPooler.DeterminismHazard()
}

/*
 Parses YAML over the defaults and validates the result. Keys that do not
map to a parameter are rejected. When the temporal memory section leaves
columnDimensions out, the spatial pooler's are used.
*/
func ParseLayerParams(data []byte) (LayerParams, error) {
	p := NewLayerParams()
	p.TemporalMemory.ColumnDimensions = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return LayerParams{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(p.TemporalMemory.ColumnDimensions) == 0 {
		p.TemporalMemory.ColumnDimensions = append([]int(nil), p.SpatialPooler.ColumnDimensions...)
	}
	if err := p.Validate(); err != nil {
		return LayerParams{}, err
	}
	return p, nil
}

//Reads and parses a YAML params file
func LoadLayerParams(path string) (LayerParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayerParams{}, err
	}
	return ParseLayerParams(data)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
