package session

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"locker-tab-backend/internal/hardware"
	"locker-tab-backend/internal/model"
	"locker-tab-backend/internal/notification"
	"locker-tab-backend/internal/scan"
	"locker-tab-backend/internal/store"
)

// Host is the part of the collaboration platform the tab depends on.
type Host interface {
	// Identity returns the signed-in user's principal name, or "" when the
	// page is not running inside the host.
	Identity(ctx context.Context) (string, error)
	// ScanCode opens the barcode scanner. Failures are *scan.SDKError.
	ScanCode(ctx context.Context, timeout time.Duration) (string, error)
}

// Notifier receives notices for a user's push subscriptions.
type Notifier interface {
	Dispatch(n notification.Notice)
}

// Options are the timing and formatting knobs of a controller.
type Options struct {
	RevertDelay     time.Duration
	MessageTTL      time.Duration
	ScanTimeout     time.Duration
	ClearOnStart    bool
	TimestampLayout string
	Location        *time.Location
}

// DefaultOptions mirrors the tab's fixed timings.
func DefaultOptions() Options {
	return Options{
		RevertDelay:     5 * time.Second,
		MessageTTL:      2 * time.Second,
		ScanTimeout:     30 * time.Second,
		ClearOnStart:    true,
		TimestampLayout: "2006/1/2 15:04",
		Location:        time.Local,
	}
}

// Deps are the collaborators of a controller. Opener, Notifier, Clock and
// Logger are optional.
type Deps struct {
	History     *store.HistoryStore
	Interpreter *scan.Interpreter
	Opener      hardware.Opener
	Notifier    Notifier
	Clock       Clock
	Logger      *zap.Logger
}

// Controller owns the state of one tab session. Every event, whether from a
// request or a timer, goes through Reduce under the controller's lock.
type Controller struct {
	mu    sync.Mutex
	state State

	history  *store.HistoryStore
	interp   *scan.Interpreter
	opener   hardware.Opener
	notifier Notifier
	clock    Clock
	logger   *zap.Logger
	opts     Options

	revertTimer  Timer
	messageTimer Timer
	closed       bool
}

// NewController creates a controller in the Uninitialized state.
func NewController(deps Deps, opts Options) *Controller {
	c := &Controller{
		history:  deps.History,
		interp:   deps.Interpreter,
		opener:   deps.Opener,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger,
		opts:     opts,
	}
	if c.opener == nil {
		c.opener = hardware.NopOpener{}
	}
	if c.clock == nil {
		c.clock = RealClock
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.opts.Location == nil {
		c.opts.Location = time.Local
	}
	if c.opts.TimestampLayout == "" {
		c.opts.TimestampLayout = DefaultOptions().TimestampLayout
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Init resolves the user and loads their history. Without a resolvable
// identity the session stays Uninitialized.
func (c *Controller) Init(ctx context.Context, host Host) (State, error) {
	user, err := host.Identity(ctx)
	if err != nil {
		c.logger.Warn("host identity unavailable", zap.Error(err))
		user = ""
	}

	var records []model.HistoryRecord
	if user != "" {
		if c.opts.ClearOnStart {
			if err := c.history.Clear(ctx, user); err != nil {
				c.logger.Warn("failed to clear history on start", zap.String("user", user), zap.Error(err))
			}
		}
		records, err = c.history.Load(ctx, user)
		if err != nil {
			return c.Snapshot(), err
		}
	}

	_, next, err := c.apply(ctx, Initialized{User: user, History: records})
	return next, err
}

// Scan runs the host scanner and feeds the interpreted outcome to the state
// machine. Scanning is only offered in Idle.
func (c *Controller) Scan(ctx context.Context, host Host) (State, error) {
	if ui := c.Snapshot().UI; ui != Idle {
		return c.Snapshot(), fmt.Errorf("scan in state %s: %w", ui, ErrInvalidTransition)
	}

	scanCtx, cancel := context.WithTimeout(ctx, c.opts.ScanTimeout)
	text, scanErr := host.ScanCode(scanCtx, c.opts.ScanTimeout)
	cancel()

	out := c.interp.Interpret(ctx, scan.Result{DecodedText: text, Err: scanErr})

	var ev Event
	switch out.Kind {
	case scan.OutcomeAvailable:
		ev = ScanAvailable{Box: out.Box, Message: out.Message}
	case scan.OutcomeUnavailable:
		ev = ScanUnavailable{Message: out.Message}
	case scan.OutcomeFailed:
		ev = ScanFailed{Message: out.Message}
	default:
		return c.Snapshot(), nil
	}

	_, next, err := c.apply(ctx, ev)
	return next, err
}

// Confirm stamps the start time on the offered box and opens it.
func (c *Controller) Confirm(ctx context.Context, box int) (State, error) {
	prev, next, err := c.apply(ctx, Confirmed{Box: box, At: c.timestamp()})
	if err != nil {
		return next, err
	}

	if model.FindOpen(prev.History, box) >= 0 {
		if err := c.opener.Open(hardware.WithUser(ctx, next.UserName), box); err != nil {
			c.logger.Error("failed to open box", zap.Int("box", box), zap.String("user", next.UserName), zap.Error(err))
		}
	} else {
		c.logger.Warn("confirmed box has no open record", zap.Int("box", box), zap.String("user", next.UserName))
	}
	return next, nil
}

// Return stamps the end time on the open record of box.
func (c *Controller) Return(ctx context.Context, box int) (State, error) {
	prev, next, err := c.apply(ctx, Returned{Box: box, At: c.timestamp()})
	if err != nil {
		return next, err
	}

	if model.FindOpen(prev.History, box) >= 0 {
		b := box
		c.notify(notification.Notice{
			User:  next.UserName,
			Title: "Box returned",
			Body:  fmt.Sprintf("Box %d has been returned.", box),
			Box:   &b,
		})
	}
	return next, nil
}

// Close cancels pending timers. Timer events arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	stopTimer(c.revertTimer)
	stopTimer(c.messageTimer)
	c.revertTimer, c.messageTimer = nil, nil
}

// apply runs ev through Reduce, persists history when it changed and
// schedules the delayed events the new state needs.
func (c *Controller) apply(ctx context.Context, ev Event) (State, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	next, err := Reduce(prev, ev)
	if err != nil {
		return prev.Clone(), prev.Clone(), fmt.Errorf("%T in state %s: %w", ev, prev.UI, err)
	}

	if next.UserName != "" && !reflect.DeepEqual(prev.History, next.History) {
		if _, ok := ev.(Initialized); !ok {
			if err := c.history.Save(ctx, next.UserName, next.History); err != nil {
				return prev.Clone(), prev.Clone(), err
			}
		}
	}

	c.state = next
	c.schedule(prev, next)
	return prev.Clone(), next.Clone(), nil
}

func (c *Controller) schedule(prev, next State) {
	if c.closed {
		return
	}

	if next.Generation != prev.Generation {
		stopTimer(c.revertTimer)
		c.revertTimer = nil
		if next.UI == Unavailable {
			gen := next.Generation
			c.revertTimer = c.clock.AfterFunc(c.opts.RevertDelay, func() {
				c.fire(RevertTimeout{Generation: gen})
			})
		}
	}

	if next.MessageGeneration != prev.MessageGeneration && next.Message != "" {
		stopTimer(c.messageTimer)
		gen := next.MessageGeneration
		c.messageTimer = c.clock.AfterFunc(c.opts.MessageTTL, func() {
			c.fire(MessageTimeout{Generation: gen})
		})
	}
}

func (c *Controller) fire(ev Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	prev, next, err := c.apply(context.Background(), ev)
	if err != nil {
		c.logger.Warn("timer event rejected", zap.Error(err))
		return
	}

	if _, ok := ev.(RevertTimeout); ok && prev.UI == Unavailable && next.UI == Idle {
		c.notify(notification.Notice{
			User:  next.UserName,
			Title: "Lockers",
			Body:  "You can scan for a locker box again.",
		})
	}
}

func (c *Controller) notify(n notification.Notice) {
	if c.notifier == nil || n.User == "" {
		return
	}
	c.notifier.Dispatch(n)
}

// timestamp renders now as a localized short date and time.
func (c *Controller) timestamp() string {
	return c.clock.Now().In(c.opts.Location).Format(c.opts.TimestampLayout)
}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
