package widget

// View is what the widget shows for a given session state. It replaces
// the original's full-subtree re-render: hosts call Render after any
// action and draw from the returned value alone.
type View struct {
	Expanded       bool
	Tickets        int
	Loading        bool
	PaymentLoading bool
	Error          string
	JoinEnabled    bool
	PayEnabled     bool
}

// project maps a session state to its view. Pure function; the state
// machine stays the single source of truth.
func project(state State, tickets int, errMsg string) View {
	return View{
		Expanded:       state != StateCollapsed,
		Tickets:        tickets,
		Loading:        state == StateLoading,
		PaymentLoading: state == StatePaymentInFlight,
		Error:          errMsg,
		JoinEnabled:    state == StateIdle,
		PayEnabled:     state == StateIdle,
	}
}

// Render snapshots the session into a View.
func (s *Session) Render() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return project(s.state, s.tickets, s.errMsg)
}
