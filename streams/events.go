package streams

// FragmentKind names the UI fragment a turn emits. Rendering fragments into
// visual components is the client's job; the core only tags payloads.
type FragmentKind string

const (
	KindSpinner       FragmentKind = "spinner"
	KindCopilot       FragmentKind = "copilot"
	KindAnswer        FragmentKind = "answer"
	KindError         FragmentKind = "error"
	KindSearchResults FragmentKind = "search_results"
	KindRetrievedPage FragmentKind = "retrieved_page"
	KindVideoResults  FragmentKind = "video_results"
	KindRelated       FragmentKind = "related"
	KindFollowup      FragmentKind = "followup"
)

// Op tells the client whether an event adds a new fragment or refreshes the
// most recent one of the same kind.
type Op string

const (
	OpAppend Op = "append"
	OpUpdate Op = "update"
)

// Fragment is one renderable piece of turn output.
type Fragment struct {
	Kind FragmentKind `json:"kind"`
	Data interface{}  `json:"data,omitempty"`
}

// Event is one entry on the UI stream.
type Event struct {
	Op       Op       `json:"op"`
	Fragment Fragment `json:"fragment"`
}

// Append builds an append event.
func Append(kind FragmentKind, data interface{}) Event {
	return Event{Op: OpAppend, Fragment: Fragment{Kind: kind, Data: data}}
}

// Update builds an update event.
func Update(kind FragmentKind, data interface{}) Event {
	return Event{Op: OpUpdate, Fragment: Fragment{Kind: kind, Data: data}}
}
