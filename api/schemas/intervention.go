package schemas

// DefaultNumSamples is used when a spec does not set a sample count.
const DefaultNumSamples = 1000

// TransformKind enumerates the supported soft-intervention transforms.
// Arbitrary expression transforms are deliberately not supported.
type TransformKind string

const (
	TransformShift TransformKind = "shift"
	TransformScale TransformKind = "scale"
)

// QueryOptions are shared by every intervention variant. A nil QueryNodes
// means "all nodes in the graph"; a zero NumSamples means DefaultNumSamples.
type QueryOptions struct {
	QueryNodes []string
	NumSamples int
}

// Samples returns the effective sample count.
func (o QueryOptions) Samples() int {
	if o.NumSamples <= 0 {
		return DefaultNumSamples
	}
	return o.NumSamples
}

// InterventionSpec is a closed union over the four query variants. The
// serialization boundary in internal/wire switches exhaustively over the
// concrete types; business logic never inspects operation strings.
type InterventionSpec interface {
	Options() QueryOptions
	// TargetNodes lists the nodes the spec intervenes on (empty for
	// observational queries). Used for fail-fast validation before any
	// subprocess is spawned.
	TargetNodes() []string

	isInterventionSpec()
}

// AtomicIntervention is the subset of variants that may appear inside a
// Multiple spec: Hard and Soft.
type AtomicIntervention interface {
	InterventionSpec
	isAtomic()
}

// Observational samples from the unmodified fitted distribution.
type Observational struct {
	Query QueryOptions
}

// Hard forces a node to a constant, severing its incoming causal edges for
// the duration of the query (the do-operator).
type Hard struct {
	Node  string
	Value float64
	Query QueryOptions
}

// Soft perturbs a node's natural value: shift adds Param, scale multiplies
// by Param. The node stays coupled to its parents.
type Soft struct {
	Node      string
	Transform TransformKind
	Param     float64
	Query     QueryOptions
}

// Multiple applies all listed interventions simultaneously in one query.
type Multiple struct {
	Interventions []AtomicIntervention
	Query         QueryOptions
}

func (o Observational) Options() QueryOptions { return o.Query }
func (h Hard) Options() QueryOptions          { return h.Query }
func (s Soft) Options() QueryOptions          { return s.Query }
func (m Multiple) Options() QueryOptions      { return m.Query }

func (o Observational) TargetNodes() []string { return nil }
func (h Hard) TargetNodes() []string          { return []string{h.Node} }
func (s Soft) TargetNodes() []string          { return []string{s.Node} }

func (m Multiple) TargetNodes() []string {
	nodes := make([]string, 0, len(m.Interventions))
	for _, iv := range m.Interventions {
		nodes = append(nodes, iv.TargetNodes()...)
	}
	return nodes
}

func (Observational) isInterventionSpec() {}
func (Hard) isInterventionSpec()          {}
func (Soft) isInterventionSpec()          {}
func (Multiple) isInterventionSpec()      {}

func (Hard) isAtomic() {}
func (Soft) isAtomic() {}
