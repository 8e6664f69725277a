package htm

// SegmentKind tags a segment as proximal (one per column, sourced from
// input bits) or distal (on a cell, sourced from other cells).
type SegmentKind uint8

const (
	Proximal SegmentKind = iota
	Distal
)

func (k SegmentKind) String() string {
	switch k {
	case Proximal:
		return "proximal"
	case Distal:
		return "distal"
	}
	return "unknown"
}

// Segment is a stable handle into the graph's segment arena.
type Segment int

// Synapse is a stable handle into the graph's synapse arena.
type Synapse int

// The SegmentData struct holds everything the graph knows about one
// segment. Owner is a column index for proximal segments and a cell index
// for distal ones.
type SegmentData struct {
	Kind    SegmentKind
	Owner   int
	Ordinal uint64
	// iteration the segment was last active, used by LRU eviction
	LastUsed int

	synapses  []Synapse
	destroyed bool
}

// The SynapseData struct holds one directed edge. Presynaptic is an input
// bit for proximal synapses and a cell index for distal ones.
type SynapseData struct {
	Segment     Segment
	Presynaptic int
	Permanence  float64
	Ordinal     uint64

	destroyed bool
}

// EvictionPolicy picks which segment gives way when a cell is full.
type EvictionPolicy int

const (
	// EvictLowestPermanence destroys the segment with the smallest
	// permanence sum, oldest first on ties.
	EvictLowestPermanence EvictionPolicy = iota
	// EvictLeastRecentlyUsed destroys the segment that was active the
	// longest time ago, oldest first on ties.
	EvictLeastRecentlyUsed
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictLowestPermanence:
		return "lowest-permanence"
	case EvictLeastRecentlyUsed:
		return "least-recently-used"
	}
	return "unknown"
}

func (p EvictionPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *EvictionPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "lowest-permanence":
		*p = EvictLowestPermanence
	case "least-recently-used":
		*p = EvictLeastRecentlyUsed
	default:
		return configErr("eviction", string(text), "unknown eviction policy")
	}
	return nil
}

/*
 SynapseRules are the per-kind limits the graph enforces on every
mutation. Proximal rules are installed by the spatial pooler, distal
rules by the temporal memory.
*/
type SynapseRules struct {
	ConnectedPermanence float64
	PermanenceMin       float64
	PermanenceMax       float64
	// a permanence at or below this value destroys the synapse
	TrimThreshold float64
	// 0 means unbounded
	MaxSegmentsPerCell    int
	MaxSynapsesPerSegment int
	Eviction              EvictionPolicy
}

func defaultSynapseRules() SynapseRules {
	return SynapseRules{
		ConnectedPermanence: 0.5,
		PermanenceMin:       0,
		PermanenceMax:       1,
		TrimThreshold:       0,
	}
}

func (r SynapseRules) clip(perm float64) float64 {
	if perm < r.PermanenceMin {
		return r.PermanenceMin
	}
	if perm > r.PermanenceMax {
		return r.PermanenceMax
	}
	return perm
}
