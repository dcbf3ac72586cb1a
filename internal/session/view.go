package session

// View is the screen the UI should currently show.
type View string

const (
	ViewLobby        View = "lobby"
	ViewLoading      View = "loading"
	ViewChallenge    View = "challenge"
	ViewRoundResults View = "round-results"
	ViewFinalResults View = "final-results"
)

// DeriveView maps a snapshot to its view. It is a pure function of the
// snapshot, so the view is tolerant of out-of-order or duplicated events:
// whatever order the folds arrived in, the same snapshot always yields the
// same view.
func DeriveView(s Snapshot) View {
	switch {
	case s.Ended:
		return ViewFinalResults
	case s.RoundResults != nil:
		return ViewRoundResults
	case s.Started && s.Challenge != nil:
		return ViewChallenge
	case s.Started:
		return ViewLoading
	default:
		return ViewLobby
	}
}
