package htm

import (
	"go.uber.org/zap"
)

/*
 Layer runs a spatial pooler and a temporal memory over one shared graph
and random stream. Each Compute call is one timestep: the input becomes
active columns, the active columns become active and predictive cells.
*/
type Layer struct {
	params LayerParams
	conn   *Connections
	sp     *SpatialPooler
	tm     *TemporalMemory
	stats  *PredictionStats

	logger *zap.Logger
}

//Creates a layer with a fresh graph
func NewLayer(params LayerParams, opts ...Option) (*Layer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	conn, err := NewConnections(ConnectionsParams{
		InputDimensions:  params.SpatialPooler.InputDimensions,
		ColumnDimensions: params.SpatialPooler.ColumnDimensions,
		CellsPerColumn:   params.TemporalMemory.CellsPerColumn,
		Seed:             params.SpatialPooler.Seed,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return newLayerOn(conn, params, opts)
}

func newLayerOn(conn *Connections, params LayerParams, opts []Option) (*Layer, error) {
	shared := append(append([]Option(nil), opts...), WithConnections(conn))
	sp, err := NewSpatialPooler(params.SpatialPooler, shared...)
	if err != nil {
		return nil, err
	}
	tm, err := NewTemporalMemory(params.TemporalMemory, shared...)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Layer{
		params: params,
		conn:   conn,
		sp:     sp,
		tm:     tm,
		stats:  NewPredictionStats(conn.NumberOfColumns(), params.StatsBurnIn),
		logger: o.logger,
	}, nil
}

/*
 Runs one timestep. Returns the active columns chosen by the spatial
pooler and the temporal memory's cycle for them.
*/
func (l *Layer) Compute(input *SDR, learn bool) (*SDR, *ComputeCycle) {
	activeColumns := l.sp.Compute(input, learn)
	prev := l.tm.LastCycle()
	cycle := l.tm.Compute(activeColumns, learn)
	l.stats.Record(prev, cycle)
	return activeColumns, cycle
}

//Marks a sequence boundary
func (l *Layer) Reset() {
	l.logger.Debug("layer reset",
		zap.Int("cyclesSinceReset", l.stats.NInfersSinceReset),
		zap.Float64("avgPredictionScore", l.stats.AveragePredictionScore()))
	l.tm.Reset()
	l.stats.Reset()
}

func (l *Layer) Params() LayerParams {
	p := l.params
	p.SpatialPooler = l.sp.Params()
	p.TemporalMemory = l.tm.Params()
	return p
}

func (l *Layer) Connections() *Connections {
	return l.conn
}

func (l *Layer) SpatialPooler() *SpatialPooler {
	return l.sp
}

func (l *Layer) TemporalMemory() *TemporalMemory {
	return l.tm
}

func (l *Layer) Stats() *PredictionStats {
	return l.stats
}
