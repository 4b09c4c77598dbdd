package session

import (
	"errors"

	"locker-tab-backend/internal/model"
)

// UIState is what the tab is currently showing.
type UIState int

const (
	Uninitialized UIState = iota
	Idle
	HasOpenBorrow
	Unavailable
	Available
)

func (s UIState) String() string {
	switch s {
	case Idle:
		return "idle"
	case HasOpenBorrow:
		return "has_open_borrow"
	case Unavailable:
		return "unavailable"
	case Available:
		return "available"
	default:
		return "uninitialized"
	}
}

// ErrInvalidTransition is returned when an event is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid transition")

// State is the complete state of one tab session.
//
// Generation changes whenever UI changes and MessageGeneration whenever a new
// message is set; delayed events carry the generation they were scheduled
// under and are ignored once it is stale.
type State struct {
	UI                UIState
	UserName          string
	History           []model.HistoryRecord
	SelectedBox       *int
	Message           string
	Generation        uint64
	MessageGeneration uint64
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.History = model.CloneHistory(s.History)
	if s.SelectedBox != nil {
		b := *s.SelectedBox
		s.SelectedBox = &b
	}
	return s
}

// Actions lists what the user can do next.
func (s State) Actions() []string {
	actions := []string{}
	switch s.UI {
	case Uninitialized:
		return actions
	case Idle:
		actions = append(actions, "scan")
	case Available:
		actions = append(actions, "confirm")
	}
	if model.HasOpen(s.History) {
		actions = append(actions, "return")
	}
	return actions
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Initialized: the host resolved (or failed to resolve) the user and the
// history has been loaded.
type Initialized struct {
	User    string
	History []model.HistoryRecord
}

// ScanAvailable: the scan found a free box.
type ScanAvailable struct {
	Box     int
	Message string
}

// ScanUnavailable: the scan succeeded but no box is free.
type ScanUnavailable struct {
	Message string
}

// ScanFailed: the host reported a scan error.
type ScanFailed struct {
	Message string
}

// Confirmed: the user takes the offered box.
type Confirmed struct {
	Box int
	At  string
}

// Returned: the user gives a box back.
type Returned struct {
	Box int
	At  string
}

// RevertTimeout fires a while after entering Unavailable.
type RevertTimeout struct {
	Generation uint64
}

// MessageTimeout fires a while after a message was shown.
type MessageTimeout struct {
	Generation uint64
}

func (Initialized) isEvent()     {}
func (ScanAvailable) isEvent()   {}
func (ScanUnavailable) isEvent() {}
func (ScanFailed) isEvent()      {}
func (Confirmed) isEvent()       {}
func (Returned) isEvent()        {}
func (RevertTimeout) isEvent()   {}
func (MessageTimeout) isEvent()  {}

// Reduce applies ev to s and returns the next state. It never mutates s.
func Reduce(s State, ev Event) (State, error) {
	next := s.Clone()

	switch e := ev.(type) {
	case Initialized:
		next = State{Generation: s.Generation, MessageGeneration: s.MessageGeneration}
		if e.User == "" {
			setUI(&next, Uninitialized)
			return next, nil
		}
		next.UserName = e.User
		next.History = model.CloneHistory(e.History)
		if next.History == nil {
			next.History = []model.HistoryRecord{}
		}
		if model.HasOpen(next.History) {
			setUI(&next, HasOpenBorrow)
		} else {
			setUI(&next, Idle)
		}
		return next, nil

	case ScanAvailable:
		if s.UI != Idle {
			return s, ErrInvalidTransition
		}
		setMessage(&next, e.Message)
		// One open record per box: a box still out on loan is not available.
		if model.FindOpen(next.History, e.Box) >= 0 {
			setUI(&next, Unavailable)
			return next, nil
		}
		next.History = append(next.History, model.HistoryRecord{BoxNumber: e.Box})
		box := e.Box
		next.SelectedBox = &box
		setUI(&next, Available)
		return next, nil

	case ScanUnavailable:
		if s.UI != Idle {
			return s, ErrInvalidTransition
		}
		setMessage(&next, e.Message)
		setUI(&next, Unavailable)
		return next, nil

	case ScanFailed:
		if s.UI != Idle {
			return s, ErrInvalidTransition
		}
		setMessage(&next, e.Message)
		return next, nil

	case Confirmed:
		if s.UI != Available || s.SelectedBox == nil || e.Box != *s.SelectedBox {
			return s, ErrInvalidTransition
		}
		if i := model.FindOpen(next.History, e.Box); i >= 0 {
			at := e.At
			next.History[i].StartTime = &at
		}
		next.SelectedBox = nil
		setUI(&next, HasOpenBorrow)
		return next, nil

	case Returned:
		if s.UI == Uninitialized {
			return s, ErrInvalidTransition
		}
		// While a box is offered only that box can be handed back.
		if s.UI == Available && (s.SelectedBox == nil || e.Box != *s.SelectedBox) {
			return s, ErrInvalidTransition
		}
		if i := model.FindOpen(next.History, e.Box); i >= 0 {
			at := e.At
			next.History[i].EndTime = &at
		}
		next.SelectedBox = nil
		setUI(&next, Idle)
		return next, nil

	case RevertTimeout:
		if s.UI != Unavailable || e.Generation != s.Generation {
			return s, nil
		}
		setUI(&next, Idle)
		return next, nil

	case MessageTimeout:
		if e.Generation != s.MessageGeneration {
			return s, nil
		}
		next.Message = ""
		return next, nil
	}

	return s, ErrInvalidTransition
}

func setUI(s *State, ui UIState) {
	s.UI = ui
	s.Generation++
}

func setMessage(s *State, msg string) {
	s.Message = msg
	s.MessageGeneration++
}
