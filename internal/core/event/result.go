package event

// EventResult is the response unit of a SystemRequest. Besides yes and no it
// keeps "nobody answered" apart, so an empty subscriber list never reads as
// consent.
type EventResult uint8

const (
	NoResponse EventResult = iota
	Approved
	Rejected
)

// FromBool maps true to Approved and false to Rejected.
func FromBool(ok bool) EventResult {
	if ok {
		return Approved
	}
	return Rejected
}

// Bool is true only for Approved.
func (r EventResult) Bool() bool { return r == Approved }

// Responded is false only for NoResponse.
func (r EventResult) Responded() bool { return r != NoResponse }

// And combines two results: Rejected wins, NoResponse is neutral.
func (r EventResult) And(o EventResult) EventResult {
	switch {
	case r == Rejected || o == Rejected:
		return Rejected
	case r == Approved || o == Approved:
		return Approved
	default:
		return NoResponse
	}
}

func (r EventResult) String() string {
	switch r {
	case NoResponse:
		return "no-response"
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "invalid"
	}
}

// All folds results with And. No results, or only abstentions, is NoResponse.
func All(results ...EventResult) EventResult {
	agg := NoResponse
	for _, r := range results {
		agg = agg.And(r)
	}
	return agg
}
