package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

// Engine is the attendance conversation state machine.
// It is stateless: every call receives the session and returns the next one.
type Engine struct {
	gateway    ports.Gateway
	code       string
	enrollment Enrollment
	clock      func() time.Time
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	reconciler *Reconciler
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source. The current year completes the chosen month and day.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithEnrollment sets the placeholder values given to auto-enrolled newcomers.
func WithEnrollment(enrollment Enrollment) EngineOption {
	return func(e *Engine) {
		e.enrollment = enrollment
	}
}

// NewEngine creates an engine over the given gateway. Users must send
// verificationCode before any attendance data is shown.
func NewEngine(gateway ports.Gateway, verificationCode string, opts ...EngineOption) *Engine {
	e := &Engine{
		gateway:    gateway,
		code:       verificationCode,
		enrollment: DefaultEnrollment,
		clock:      time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reconciler = NewReconciler(gateway, e.enrollment, e.logger)
	return e
}

// Navigate applies one inbound message to the session and returns the next
// session with the reply to send.
//
// A failed store read returns a *domain.GatewayError together with the
// unchanged input session; nothing has been written in that case.
// A returned session in domain.StepIdle has nothing left to keep.
func (e *Engine) Navigate(ctx context.Context, s *domain.Session, msg domain.Message) (*domain.Session, domain.Reply, error) {
	if s == nil {
		s = &domain.Session{ChatID: msg.ChatID, Step: domain.StepIdle}
	}
	from := s.Step
	input := strings.TrimSpace(msg.Text)

	next, reply, err := e.dispatch(ctx, s.Clone(), msg.SenderName, input)
	if err != nil {
		return s, domain.Reply{}, err
	}

	if next.Step == domain.StepCommitting {
		report, err := e.reconciler.Commit(ctx, next)
		if err != nil {
			return s, domain.Reply{}, err
		}
		e.emitTransition(ctx, s.ChatID, from, domain.StepCommitting)
		e.emitCommit(ctx, next, report)
		reply = domain.Reply{Text: summary(next, msg.SenderName, report), ClearKeyboard: true}
		from = domain.StepCommitting
		next.Clear()
	}

	next.UpdatedAt = e.clock()
	reply.Step = next.Step
	e.emitTransition(ctx, s.ChatID, from, next.Step)
	return next, reply, nil
}

// RetryReply is sent when a turn could not reach the store.
func RetryReply(s *domain.Session) domain.Reply {
	reply := domain.Reply{Text: retryText}
	if s != nil {
		reply.Step = s.Step
	}
	return reply
}

func (e *Engine) dispatch(ctx context.Context, s *domain.Session, sender, input string) (*domain.Session, domain.Reply, error) {
	switch input {
	case domain.CommandStart:
		return domain.NewSession(s.ChatID, e.clock()), domain.Reply{Text: startText, ClearKeyboard: true}, nil
	case domain.CommandExit:
		s.Clear()
		return s, domain.Reply{Text: exitText, ClearKeyboard: true}, nil
	}

	switch s.Step {
	case domain.StepIdle:
		return s, domain.Reply{Text: exitText}, nil
	case domain.StepAwaitingVerification:
		return e.onVerification(ctx, s, sender, input)
	case domain.StepAwaitingCell:
		return e.onCell(ctx, s, input)
	case domain.StepAwaitingMonth:
		return e.onMonth(s, input)
	case domain.StepAwaitingDay:
		return e.onDay(ctx, s, input)
	case domain.StepAwaitingAttendees:
		return e.onCollect(ctx, s, input, &s.Attendees, s.ValidAbsentees)
	case domain.StepAwaitingValidAbsentees:
		return e.onCollect(ctx, s, input, &s.ValidAbsentees, s.Attendees)
	case domain.StepAwaitingAttendeeRemoval:
		return e.onRemove(ctx, s, input, &s.Attendees, domain.StatusPresent)
	case domain.StepAwaitingAbsenteeRemoval:
		return e.onRemove(ctx, s, input, &s.ValidAbsentees, domain.StatusAbsentValid)
	default:
		return nil, domain.Reply{}, fmt.Errorf("session %s is in unknown step %q", s.ChatID, s.Step)
	}
}

func (e *Engine) onVerification(ctx context.Context, s *domain.Session, sender, input string) (*domain.Session, domain.Reply, error) {
	if !matchCode(e.code, input) {
		return s, domain.Reply{Text: badCodeText}, nil
	}
	s.Step = domain.StepAwaitingCell
	return e.cellPrompt(ctx, s, greeting("Welcome", sender)+" What cell group are we taking attendance for?")
}

func (e *Engine) onCell(ctx context.Context, s *domain.Session, input string) (*domain.Session, domain.Reply, error) {
	cells, err := e.cellGroups(ctx)
	if err != nil {
		return nil, domain.Reply{}, err
	}
	if !matchCell(cells, input) {
		return s, domain.Reply{Text: "<b>Please choose one of the cell groups below.</b>", Keyboard: column(cells)}, nil
	}
	s.CellGroup = input
	s.Step = domain.StepAwaitingMonth
	return s, domain.Reply{
		Text:     fmt.Sprintf("You have selected %s! What month are we taking attendance for?", escape(input)),
		Keyboard: copyRows(monthKeyboard),
	}, nil
}

func (e *Engine) onMonth(s *domain.Session, input string) (*domain.Session, domain.Reply, error) {
	month, ok := parseMonth(input)
	if !ok {
		return s, domain.Reply{Text: "<b>Please choose a month from the keyboard below.</b>", Keyboard: copyRows(monthKeyboard)}, nil
	}
	s.Month = month
	s.Step = domain.StepAwaitingDay
	return s, domain.Reply{
		Text: fmt.Sprintf("You have selected %s, and are taking attendance for the month of %s! What day are we taking attendance for?",
			escape(s.CellGroup), input),
		Keyboard: copyRows(dayKeyboard),
	}, nil
}

func (e *Engine) onDay(ctx context.Context, s *domain.Session, input string) (*domain.Session, domain.Reply, error) {
	day, ok := parseDay(input)
	if !ok {
		return s, domain.Reply{Text: "<b>Please choose a day from 1 to 31.</b>", Keyboard: copyRows(dayKeyboard)}, nil
	}
	year := e.clock().Year()
	date, err := domain.NewDate(year, s.Month, day)
	if err != nil {
		return s, domain.Reply{
			Text:     fmt.Sprintf("<b>%s %d does not exist in %d.</b> Please choose another day.", s.Month.String()[:3], day, year),
			Keyboard: copyRows(dayKeyboard),
		}, nil
	}

	present, err := e.gateway.AlreadyPresent(ctx, s.CellGroup, date)
	if err != nil {
		return nil, domain.Reply{}, &domain.GatewayError{Op: "already_present", Err: err}
	}
	absent, err := e.gateway.AlreadyAbsentValid(ctx, s.CellGroup, date)
	if err != nil {
		return nil, domain.Reply{}, &domain.GatewayError{Op: "already_absent_valid", Err: err}
	}

	s.Date = date
	s.Month = 0
	s.Attendees = domain.NewNameSet(domain.SortedUnique(present)...)
	s.ValidAbsentees = domain.NewNameSet(domain.Difference(absent, s.Attendees)...)
	s.Continuing = false
	s.Step = domain.StepAwaitingAttendees
	return e.collectPrompt(ctx, s, "")
}

// onCollect handles the attendee and valid-absentee steps. target is the set
// being filled and other the set it must stay disjoint from.
func (e *Engine) onCollect(ctx context.Context, s *domain.Session, input string, target *domain.NameSet, other domain.NameSet) (*domain.Session, domain.Reply, error) {
	attendees := s.Step == domain.StepAwaitingAttendees

	switch {
	case removePattern.MatchString(input):
		list := "valid absentees"
		s.Step = domain.StepAwaitingAbsenteeRemoval
		if attendees {
			list = "attendees"
			s.Step = domain.StepAwaitingAttendeeRemoval
		}
		header := fmt.Sprintf("<b>Okay, you want to remove names from the list of %s. Who would you like to remove?</b>", list)
		return s, removalReply(s, *target, header, ""), nil

	case finishPattern.MatchString(input):
		s.Continuing = false
		if attendees {
			s.Step = domain.StepAwaitingValidAbsentees
			return e.collectPrompt(ctx, s, "")
		}
		s.Step = domain.StepCommitting
		return s, domain.Reply{}, nil

	case !isName(input):
		return e.collectPrompt(ctx, s, "<b>Please select a name from the keyboard, or type in a new name.</b>")

	case other.Contains(input):
		list := "an attendee"
		if attendees {
			list = "a valid absentee"
		}
		return e.collectPrompt(ctx, s, fmt.Sprintf("<b>%s is already listed as %s.</b> Remove them from that list first.", escape(input), list))
	}

	target.Add(input)
	s.Continuing = true
	return e.collectPrompt(ctx, s, "")
}

// onRemove handles the two removal steps. Names already persisted with status
// are deleted from the store before leaving the set.
func (e *Engine) onRemove(ctx context.Context, s *domain.Session, input string, target *domain.NameSet, status domain.Status) (*domain.Session, domain.Reply, error) {
	if donePattern.MatchString(input) {
		s.Step = domain.StepAwaitingValidAbsentees
		if status == domain.StatusPresent {
			s.Step = domain.StepAwaitingAttendees
		}
		s.Continuing = true
		return e.collectPrompt(ctx, s, "")
	}

	if !target.Contains(input) {
		list := "valid absentees"
		if status == domain.StatusPresent {
			list = "attendees"
		}
		header := fmt.Sprintf("<b>%s is not in the list of %s.</b> Choose a name below.", escape(input), list)
		if input == "" {
			header = "<b>Choose a name below to remove.</b>"
		}
		return s, removalReply(s, *target, header, removalHelp), nil
	}

	persisted, err := e.persisted(ctx, s, status)
	if err != nil {
		return nil, domain.Reply{}, err
	}
	if domain.NewNameSet(persisted...).Contains(input) {
		rec := domain.Record{CellGroup: s.CellGroup, Date: s.Date, Name: input, Status: status}
		if err := e.gateway.DeleteAttendance(ctx, rec); err != nil {
			e.logger.Error("failed to delete attendance record",
				"chat_id", s.ChatID,
				"cell_group", s.CellGroup,
				"date", s.Date.String(),
				"name", input,
				"err", err,
			)
			header := fmt.Sprintf("<b>Sorry, I could not remove %s right now. Please try again.</b>", escape(input))
			return s, removalReply(s, *target, header, removalHelp), nil
		}
	}

	target.Remove(input)
	return s, removalReply(s, *target, removedHeader, removalHelp), nil
}

// collectPrompt renders the prompt of a name-collection step. lead replaces
// the default header when set.
func (e *Engine) collectPrompt(ctx context.Context, s *domain.Session, lead string) (*domain.Session, domain.Reply, error) {
	roster, err := e.gateway.Members(ctx, s.CellGroup)
	if err != nil {
		return nil, domain.Reply{}, &domain.GatewayError{Op: "members", Err: err}
	}
	remaining := domain.Difference(roster, s.Attendees, s.ValidAbsentees)

	header, help := attendeesFirstHeader, attendeesFirstHelp
	switch {
	case s.Step == domain.StepAwaitingAttendees && s.Continuing:
		header, help = attendeesNextHeader, attendeesNextHelp
	case s.Step == domain.StepAwaitingValidAbsentees && s.Continuing:
		header, help = absenteesNextHeader, absenteesNextHelp
	case s.Step == domain.StepAwaitingValidAbsentees:
		header, help = absenteesFirstHeader, absenteesFirstHelp
	}
	if lead != "" {
		header = lead
	}

	return s, domain.Reply{
		Text:     paragraphs(header, facts(s), help),
		Keyboard: collectKeyboard(remaining, s.Continuing),
	}, nil
}

func (e *Engine) cellPrompt(ctx context.Context, s *domain.Session, text string) (*domain.Session, domain.Reply, error) {
	cells, err := e.cellGroups(ctx)
	if err != nil {
		return nil, domain.Reply{}, err
	}
	if len(cells) == 0 {
		text += "\n<i>No cell groups are registered yet.</i>"
	}
	return s, domain.Reply{Text: text, Keyboard: column(cells)}, nil
}

func (e *Engine) cellGroups(ctx context.Context) ([]string, error) {
	cells, err := e.gateway.CellGroups(ctx)
	if err != nil {
		return nil, &domain.GatewayError{Op: "cell_groups", Err: err}
	}
	return domain.SortedUnique(cells), nil
}

func (e *Engine) persisted(ctx context.Context, s *domain.Session, status domain.Status) ([]string, error) {
	if status == domain.StatusPresent {
		names, err := e.gateway.AlreadyPresent(ctx, s.CellGroup, s.Date)
		if err != nil {
			return nil, &domain.GatewayError{Op: "already_present", Err: err}
		}
		return names, nil
	}
	names, err := e.gateway.AlreadyAbsentValid(ctx, s.CellGroup, s.Date)
	if err != nil {
		return nil, &domain.GatewayError{Op: "already_absent_valid", Err: err}
	}
	return names, nil
}

func removalReply(s *domain.Session, set domain.NameSet, header, help string) domain.Reply {
	return domain.Reply{
		Text:     paragraphs(header, facts(s), help),
		Keyboard: removalKeyboard(set),
	}
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (e *Engine) emitTransition(ctx context.Context, chatID string, from, to domain.Step) {
	e.logger.Debug("transition", "chat_id", chatID, "from", string(from), "to", string(to))
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			Timestamp: e.clock(),
			ChatID:    chatID,
			From:      from,
			To:        to,
		})
	}
}

func (e *Engine) emitCommit(ctx context.Context, s *domain.Session, report domain.CommitReport) {
	e.logger.Info("attendance committed",
		"chat_id", s.ChatID,
		"cell_group", s.CellGroup,
		"date", s.Date.String(),
		"written", len(report.Written),
		"enrolled", len(report.Enrolled),
		"failed", len(report.Failed),
	)
	if e.hooks.OnCommit != nil {
		e.hooks.OnCommit(ctx, &domain.CommitEvent{
			Timestamp: e.clock(),
			ChatID:    s.ChatID,
			CellGroup: s.CellGroup,
			Date:      s.Date,
			Report:    report,
		})
	}
}
