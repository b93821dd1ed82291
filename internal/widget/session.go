package widget

import (
	"context"
	"errors"
	"sync"

	"ms-raffle/internal/payment"
)

// State is the widget's position in its lifecycle. Loading covers both
// the status fetch after opening and an entry command in flight; while
// in Loading or PaymentInFlight the corresponding controls are
// disabled, which is the only thing standing between the non-idempotent
// entry command and a double submit.
type State int

const (
	StateCollapsed State = iota
	StateIdle
	StateLoading
	StatePaymentInFlight
)

func (s State) String() string {
	switch s {
	case StateCollapsed:
		return "collapsed"
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePaymentInFlight:
		return "payment-in-flight"
	default:
		return "unknown"
	}
}

// User-facing messages. A decline is worded so the user knows no charge
// happened, unlike a failure after the charge went through.
const (
	msgRetry           = "Error, try again."
	msgPaymentDeclined = "Payment declined, you were not charged."
	msgPaymentFailed   = "Payment failed. Please try again."
)

// EntryAPI is the raffle service as seen from the widget.
type EntryAPI interface {
	Status(ctx context.Context, userID int64) (int, error)
	Enter(ctx context.Context, userID int64) (int, error)
}

// Gateway is the payment boundary as seen from the widget.
type Gateway interface {
	Charge(ctx context.Context) (*payment.Receipt, error)
}

// Session holds one page view's widget state. It replaces the
// standalone script's module-level globals: all state lives here, is
// reset by constructing a new session, and is shared with nothing.
//
// Async operations run in goroutines and re-enter through the mutex;
// every completion checks the disposed flag and the state it expects,
// so a session that was torn down or collapsed mid-flight is never
// resurrected by a late callback.
type Session struct {
	mu sync.Mutex

	userID  int64
	api     EntryAPI
	gateway Gateway

	state    State
	tickets  int
	errMsg   string
	disposed bool

	// cancelPay anchors the payment simulation's timer to this session:
	// Dispose cancels it instead of letting it fire into freed state.
	cancelPay context.CancelFunc

	// onConfirm is the navigation hook to the external confirmation
	// view, fired after a paid entry succeeds.
	onConfirm func(tickets int)
}

func NewSession(userID int64, api EntryAPI, gateway Gateway) *Session {
	return &Session{
		userID:  userID,
		api:     api,
		gateway: gateway,
		state:   StateCollapsed,
	}
}

// OnConfirm registers the confirmation-view hook. The hook runs outside
// the session lock; the confirmation view is expected to re-query
// status independently.
func (s *Session) OnConfirm(fn func(tickets int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfirm = fn
}

// Open expands the widget and kicks off the status query that seeds the
// ticket count. Returns false if the widget is already open or the
// session is disposed.
func (s *Session) Open() bool {
	s.mu.Lock()
	if s.disposed || s.state != StateCollapsed {
		s.mu.Unlock()
		return false
	}
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	go s.refreshTickets()
	return true
}

// Close collapses the widget. In-flight work keeps running (there is no
// cancellation for status or entry calls) but its completion may only
// update the ticket cache; it never reopens the widget.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state == StateCollapsed {
		return false
	}
	s.state = StateCollapsed
	s.errMsg = ""
	return true
}

// Join issues one entry command. Rejected (returns false) unless the
// widget is sitting in Idle: the disabled control is what guarantees
// one click, one command.
func (s *Session) Join() bool {
	s.mu.Lock()
	if s.disposed || s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateLoading
	s.errMsg = ""
	s.mu.Unlock()

	go s.runJoin()
	return true
}

// Pay runs the payment boundary and, only on approval, issues exactly
// one entry command. Rejected unless Idle.
func (s *Session) Pay() bool {
	s.mu.Lock()
	if s.disposed || s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StatePaymentInFlight
	s.errMsg = ""
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelPay = cancel
	s.mu.Unlock()

	go s.runPayment(ctx, cancel)
	return true
}

// Dispose tears the session down: late completions become no-ops and a
// pending payment timer is cancelled rather than left to fire into a
// dead session.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	if s.cancelPay != nil {
		s.cancelPay()
		s.cancelPay = nil
	}
}

func (s *Session) refreshTickets() {
	tickets, err := s.api.Status(context.Background(), s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if err != nil {
		if s.state == StateLoading {
			s.state = StateIdle
			s.errMsg = msgRetry
		}
		return
	}
	s.tickets = tickets
	if s.state == StateLoading {
		s.state = StateIdle
	}
}

func (s *Session) runJoin() {
	tickets, err := s.api.Enter(context.Background(), s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if err != nil {
		// Last known count stays on screen; the failure is retryable by
		// a fresh click.
		if s.state == StateLoading {
			s.state = StateIdle
			s.errMsg = msgRetry
		}
		return
	}
	s.tickets = tickets
	s.errMsg = ""
	if s.state == StateLoading {
		s.state = StateIdle
	}
}

func (s *Session) runPayment(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	_, err := s.gateway.Charge(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.disposed {
			return
		}
		s.cancelPay = nil
		if s.state != StatePaymentInFlight {
			return
		}
		s.state = StateIdle
		var declined *payment.DeclinedError
		switch {
		case errors.As(err, &declined):
			s.errMsg = msgPaymentDeclined
		case errors.Is(err, context.Canceled):
			// Session went away while the timer ran; nothing to show.
		default:
			// Charge never completed, so nothing was granted and nothing
			// was taken; an ordinary retryable failure.
			s.errMsg = msgRetry
		}
		return
	}

	// Approved: exactly one entry command per pay invocation.
	tickets, err := s.api.Enter(ctx, s.userID)

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.cancelPay = nil
	if err != nil {
		// The simulated charge went through but no ticket was granted.
		// The session reports failure rather than pretending otherwise;
		// reconciling that gap is out of this subsystem's hands.
		if s.state == StatePaymentInFlight {
			s.state = StateIdle
			s.errMsg = msgPaymentFailed
		}
		s.mu.Unlock()
		return
	}
	s.tickets = tickets
	s.errMsg = ""
	confirm := s.onConfirm
	if s.state == StatePaymentInFlight {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if confirm != nil {
		confirm(tickets)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
