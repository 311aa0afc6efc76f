package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"batch_txt_bot/src/access"
	"batch_txt_bot/src/logger"
)

// Command names handled outside any flow
const (
	CommandStart    = "start"
	CommandOnOwner  = "onowner"
	CommandOffOwner = "offowner"
	CommandEnable   = "on"
	CommandCancel   = "cancel"
)

// Service is the front door for the transport: it applies the access gate to
// commands, runs the owner commands itself and hands everything else to the
// Manager.
type Service struct {
	manager *Manager
	gate    *access.Gate
	out     Outbox
	msgs    Messages
}

func NewService(manager *Manager, gate *access.Gate) *Service {
	return &Service{
		manager: manager,
		gate:    gate,
		out:     manager.out,
		msgs:    manager.msgs,
	}
}

// Handle dispatches one inbound message
func (s *Service) Handle(ctx context.Context, in Inbound) error {
	if in.Command == "" {
		return s.manager.HandleText(ctx, in)
	}

	switch in.Command {
	case CommandOnOwner:
		return s.reply(ctx, in, s.gate.Restrict(in.UserID), s.msgs.Restricted, s.msgs.NotOwnerRestrict)
	case CommandOffOwner:
		return s.reply(ctx, in, s.gate.Unrestrict(in.UserID), s.msgs.Unrestricted, s.msgs.NotOwnerRelease)
	case CommandEnable:
		return s.enableHandler(ctx, in)
	case CommandCancel:
		return s.manager.Cancel(ctx, in)
	}

	if !s.gate.Allow(in.UserID, in.Command) {
		s.say(ctx, in.ChatID, s.msgs.Denied)
		return nil
	}

	if in.Command == CommandStart {
		s.say(ctx, in.ChatID, s.msgs.Start)
		return nil
	}
	if _, ok := s.manager.Flow(in.Command); ok {
		return s.manager.Begin(ctx, in.Command, in)
	}

	logger.Debug().Str("command", in.Command).Int64("chat_id", in.ChatID).Msg("Unknown command ignored")
	return nil
}

func (s *Service) enableHandler(ctx context.Context, in Inbound) error {
	name := strings.ToLower(strings.TrimSpace(in.Args))
	if fields := strings.Fields(name); len(fields) > 0 {
		name = fields[0]
	}

	if !s.gate.IsOwner(in.UserID) {
		s.say(ctx, in.ChatID, s.msgs.NotOwnerEnable)
		return nil
	}
	if name == "" {
		s.say(ctx, in.ChatID, s.msgs.HandlerMissing)
		return nil
	}

	err := s.gate.EnableHandler(in.UserID, name)
	switch {
	case err == nil:
		s.say(ctx, in.ChatID, fmt.Sprintf(s.msgs.HandlerEnabled, name))
	case errors.Is(err, access.ErrUnknownHandler):
		s.say(ctx, in.ChatID, fmt.Sprintf(s.msgs.HandlerUnknown, name))
	case errors.Is(err, access.ErrNotOwner):
		s.say(ctx, in.ChatID, s.msgs.NotOwnerEnable)
	default:
		return err
	}
	return nil
}

func (s *Service) reply(ctx context.Context, in Inbound, err error, ok, denied string) error {
	switch {
	case err == nil:
		s.say(ctx, in.ChatID, ok)
	case errors.Is(err, access.ErrNotOwner):
		s.say(ctx, in.ChatID, denied)
	default:
		return err
	}
	return nil
}

func (s *Service) say(ctx context.Context, chatID int64, text string) {
	if err := s.out.SendText(ctx, chatID, text); err != nil {
		s.manager.faults.Report(ctx, "send_text", err)
	}
}
