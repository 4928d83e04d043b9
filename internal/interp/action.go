package interp

// ActionKind discriminates the Action union emitted by statement execution.
type ActionKind int

const (
	ActionPlayExpression ActionKind = iota
	ActionSetTempo
	ActionSetVolume
	ActionStop
)

// Action is one effect a statement produces for the session coordinator to
// carry out. Expr is left as unevaluated source text: the dispatcher
// re-evaluates it against the shared environment on every loop step, which
// is what makes redefinition reactive (spec §4.8's "reactive contract").
type Action struct {
	Kind    ActionKind
	Expr    string
	Looping bool
	Queue   bool
	TrackID int
	Bpm     float64
	Volume  float64
	HasTrack bool
}

// PlayExpression builds a play action.
func PlayExpression(expr string, looping, queue bool, trackID int) Action {
	return Action{Kind: ActionPlayExpression, Expr: expr, Looping: looping, Queue: queue, TrackID: trackID, HasTrack: true}
}

// SetTempo builds a tempo action.
func SetTempo(bpm float64) Action {
	return Action{Kind: ActionSetTempo, Bpm: bpm}
}

// SetVolume builds a per-track volume action.
func SetVolume(trackID int, volume float64) Action {
	return Action{Kind: ActionSetVolume, TrackID: trackID, Volume: volume, HasTrack: true}
}

// Stop builds a stop action. A trackID of 0 with HasTrack false means "stop
// everything".
func Stop(trackID int, hasTrack bool) Action {
	return Action{Kind: ActionStop, TrackID: trackID, HasTrack: hasTrack}
}
