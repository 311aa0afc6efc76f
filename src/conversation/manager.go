// Package conversation drives the per-user dialogues. The Manager loads a
// session, hands the incoming text to the session's flow, checks the returned
// transition against the flow's order and persists or discards the result.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"batch_txt_bot/src/extractor"
	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outbox sends replies to a chat
type Outbox interface {
	SendText(ctx context.Context, chatID int64, text string) error
	// SendMarkdown falls back to plain text when the markup is rejected
	SendMarkdown(ctx context.Context, chatID int64, text string) error
	extractor.DocumentSender
}

// FaultReporter receives unexpected failures: store errors, illegal
// transitions, undeliverable prompts, recovered panics.
type FaultReporter interface {
	Report(ctx context.Context, source string, err error)
}

// LogFaults only logs. It is used when no audit chat is configured.
type LogFaults struct{}

func (LogFaults) Report(_ context.Context, source string, err error) {
	logger.Error().Err(err).Str("source", source).Msg("Fault")
}

// Inbound is one message from the chat transport
type Inbound struct {
	ChatID   int64
	UserID   int64
	Username string
	// Command is set for "/name args" messages, without the slash
	Command string
	Args    string
	Text    string
}

// Turn is what a flow sees while handling one message
type Turn struct {
	ChatID int64
	UserID int64
	RunID  string
	Log    zerolog.Logger
	Msg    *Messages

	out    Outbox
	faults FaultReporter
}

// Say sends plain text. A failed send is reported as a fault; the flow carries on.
func (t *Turn) Say(ctx context.Context, text string) {
	if err := t.out.SendText(ctx, t.ChatID, text); err != nil {
		t.faults.Report(ctx, "send_text", err)
	}
}

func (t *Turn) SayMarkdown(ctx context.Context, text string) {
	if err := t.out.SendMarkdown(ctx, t.ChatID, text); err != nil {
		t.faults.Report(ctx, "send_markdown", err)
	}
}

// Documents is the sender flows hand to the extractor
func (t *Turn) Documents() extractor.DocumentSender {
	return t.out
}

// Config wires a Manager
type Config struct {
	Store    storage.Store
	TTL      time.Duration
	Outbox   Outbox
	Faults   FaultReporter
	Metrics  *metrics.Metrics
	Messages Messages
}

// Manager runs flows over stored sessions. It is safe for concurrent use as
// long as turns of the same session key are not handled concurrently.
type Manager struct {
	repo    *Repository
	flows   map[string]Flow
	out     Outbox
	faults  FaultReporter
	metrics *metrics.Metrics
	msgs    Messages
}

func NewManager(cfg Config, flows ...Flow) *Manager {
	m := &Manager{
		flows:   make(map[string]Flow, len(flows)),
		out:     cfg.Outbox,
		faults:  cfg.Faults,
		metrics: cfg.Metrics,
		msgs:    cfg.Messages,
	}
	if m.faults == nil {
		m.faults = LogFaults{}
	}
	for _, f := range flows {
		m.flows[f.Name()] = f
	}
	m.repo = NewRepository(cfg.Store, cfg.TTL, m.decodeStage)
	return m
}

// Flow returns the flow registered under name
func (m *Manager) Flow(name string) (Flow, bool) {
	f, ok := m.flows[name]
	return f, ok
}

func (m *Manager) decodeStage(flow string, state State, payload []byte) (any, error) {
	f, ok := m.flows[flow]
	if !ok {
		return nil, fmt.Errorf("unknown flow %q", flow)
	}
	return f.DecodeStage(state, payload)
}

func (m *Manager) turn(in Inbound, flow, runID string) *Turn {
	return &Turn{
		ChatID: in.ChatID,
		UserID: in.UserID,
		RunID:  runID,
		Msg:    &m.msgs,
		Log: logger.With().
			Str("session", SessionKey(in.ChatID, in.UserID)).
			Str("flow", flow).
			Str("run_id", runID).
			Int64("chat_id", in.ChatID).
			Int64("user_id", in.UserID).
			Str("username", in.Username).
			Logger(),
		out:    m.out,
		faults: m.faults,
	}
}

// Begin starts flow for the sender, replacing any session they already had
func (m *Manager) Begin(ctx context.Context, flowName string, in Inbound) error {
	flow, ok := m.flows[flowName]
	if !ok {
		return fmt.Errorf("unknown flow %q", flowName)
	}

	key := SessionKey(in.ChatID, in.UserID)
	if prev, err := m.repo.Load(ctx, key); err == nil {
		m.metrics.ConversationEnded(prev.Flow, string(OutcomeCancelled))
		logger.Info().Str("session", key).Str("flow", prev.Flow).Str("run_id", prev.RunID).Msg("Session replaced by new entry command")
	} else if !errors.Is(err, storage.ErrNotFound) {
		logger.Warn().Err(err).Str("session", key).Msg("Discarding unreadable session")
	}

	sess := &Session{Key: key, Flow: flowName, State: StateStart, RunID: uuid.NewString()}
	t := m.turn(in, flowName, sess.RunID)
	m.metrics.ConversationStarted(flowName)
	t.Log.Info().Msg("Conversation started")

	return m.apply(ctx, t, flow, sess, flow.Begin(ctx, t))
}

// HandleText routes free text to the sender's session. Text without a session
// is ignored. Store failures are reported to the fault reporter here and not
// returned.
func (m *Manager) HandleText(ctx context.Context, in Inbound) error {
	key := SessionKey(in.ChatID, in.UserID)
	sess, err := m.repo.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Debug().Str("session", key).Msg("Text outside a conversation ignored")
		return nil
	}
	if err != nil {
		m.faults.Report(ctx, "session_load", err)
		m.say(ctx, in.ChatID, m.msgs.InternalError)
		if delErr := m.repo.Delete(ctx, key); delErr != nil {
			logger.Warn().Err(delErr).Str("session", key).Msg("Failed to drop unreadable session")
		}
		return nil
	}

	flow, ok := m.flows[sess.Flow]
	if !ok {
		err := fmt.Errorf("no handler for flow %q", sess.Flow)
		m.faults.Report(ctx, "dispatch", err)
		return m.repo.Delete(ctx, key)
	}

	t := m.turn(in, sess.Flow, sess.RunID)
	t.Log.Debug().Str("state", string(sess.State)).Msg("Handling turn")

	tr, err := flow.Step(ctx, t, sess.State, sess.Stage, in.Text)
	if err != nil {
		m.faults.Report(ctx, sess.Flow+"/"+string(sess.State), err)
		t.Say(ctx, m.msgs.InternalError)
		tr = Terminate(OutcomeFault, err)
	}
	return m.apply(ctx, t, flow, sess, tr)
}

// Cancel drops the sender's session, if any
func (m *Manager) Cancel(ctx context.Context, in Inbound) error {
	key := SessionKey(in.ChatID, in.UserID)
	sess, err := m.repo.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		m.say(ctx, in.ChatID, m.msgs.NothingToCancel)
		return nil
	}
	if err != nil {
		m.faults.Report(ctx, "session_load", err)
	}

	if err := m.repo.Delete(ctx, key); err != nil {
		m.faults.Report(ctx, "session_delete", err)
		return nil
	}
	if sess != nil {
		m.metrics.ConversationEnded(sess.Flow, string(OutcomeCancelled))
		logger.Info().Str("session", key).Str("flow", sess.Flow).Str("run_id", sess.RunID).Msg("Conversation cancelled")
	}
	m.say(ctx, in.ChatID, m.msgs.Cancelled)
	return nil
}

func (m *Manager) apply(ctx context.Context, t *Turn, flow Flow, sess *Session, tr Transition) error {
	if err := checkTransition(flow.Order(), sess.State, tr.Next); err != nil {
		m.faults.Report(ctx, "transition", err)
		t.Say(ctx, m.msgs.InternalError)
		tr = Terminate(OutcomeFault, err)
	}

	if tr.Next == StateTerminated {
		ev := t.Log.Info()
		if tr.Cause != nil {
			ev = t.Log.Warn().Err(tr.Cause)
		}
		ev.Str("state", string(sess.State)).Str("outcome", string(tr.Outcome)).Msg("Conversation ended")
		m.metrics.ConversationEnded(sess.Flow, string(tr.Outcome))

		if err := m.repo.Delete(ctx, sess.Key); err != nil {
			m.faults.Report(ctx, "session_delete", err)
		}
		return nil
	}

	if tr.Next != sess.State {
		t.Log.Debug().Str("from", string(sess.State)).Str("to", string(tr.Next)).Msg("State advanced")
	}
	sess.State = tr.Next
	sess.Stage = tr.Stage
	if err := m.repo.Save(ctx, sess); err != nil {
		m.faults.Report(ctx, "session_save", err)
		t.Say(ctx, m.msgs.InternalError)
		t.Log.Warn().Err(err).Str("state", string(sess.State)).Str("outcome", string(OutcomeFault)).Msg("Conversation ended")
		m.metrics.ConversationEnded(sess.Flow, string(OutcomeFault))
		// the previous record must not outlive a conversation counted as ended
		if delErr := m.repo.Delete(ctx, sess.Key); delErr != nil {
			m.faults.Report(ctx, "session_delete", delErr)
		}
		return nil
	}
	return nil
}

func (m *Manager) say(ctx context.Context, chatID int64, text string) {
	if err := m.out.SendText(ctx, chatID, text); err != nil {
		m.faults.Report(ctx, "send_text", err)
	}
}
