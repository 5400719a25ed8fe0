package form

// History records every State an edit session passed through. Because
// States never share mutable data, earlier entries stay valid after later
// edits. Not safe for concurrent use.
type History struct {
	states []State
}

func NewHistory(initial State) *History {
	return &History{states: []State{initial}}
}

// Apply records fn(Current()).
func (h *History) Apply(fn func(State) State) State {
	next := fn(h.Current())
	h.states = append(h.states, next)
	return next
}

// ApplyE records the result of a fallible edit. Failed edits are not recorded.
func (h *History) ApplyE(fn func(State) (State, error)) (State, error) {
	next, err := fn(h.Current())
	if err != nil {
		return h.Current(), err
	}
	h.states = append(h.states, next)
	return next, nil
}

func (h *History) Current() State {
	return h.states[len(h.states)-1]
}

// Undo drops the latest state. The initial state is never dropped.
func (h *History) Undo() (State, bool) {
	if len(h.states) == 1 {
		return h.Current(), false
	}
	h.states = h.states[:len(h.states)-1]
	return h.Current(), true
}

func (h *History) Len() int {
	return len(h.states)
}

func (h *History) At(i int) State {
	return h.states[i]
}
