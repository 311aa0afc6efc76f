package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"batch_txt_bot/src/conversation"
	"batch_txt_bot/src/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const queueSize = 64

// Handler consumes inbound messages; *conversation.Service implements it
type Handler interface {
	Handle(ctx context.Context, in conversation.Inbound) error
}

// Dispatcher fans updates out to a fixed pool of workers keyed by chat id, so
// messages of one chat are handled one at a time and in order.
type Dispatcher struct {
	handler Handler
	faults  conversation.FaultReporter
	workers int
}

func NewDispatcher(handler Handler, faults conversation.FaultReporter, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if faults == nil {
		faults = conversation.LogFaults{}
	}
	return &Dispatcher{handler: handler, faults: faults, workers: workers}
}

// Run consumes updates until the channel closes or ctx is cancelled. Queued
// messages are still handled after the channel closes but dropped once ctx is
// cancelled.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	queues := make([]chan conversation.Inbound, d.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range queues {
		q := make(chan conversation.Inbound, queueSize)
		queues[i] = q
		g.Go(func() error {
			dropped := 0
			for in := range q {
				if ctx.Err() != nil {
					dropped++
					continue
				}
				d.handle(gctx, in)
			}
			if dropped > 0 {
				logger.Info().Int("dropped", dropped).Msg("Queued messages dropped on shutdown")
			}
			return nil
		})
	}

	for {
		select {
		case <-ctx.Done():
			return d.drain(g, queues)
		case u, ok := <-updates:
			if !ok {
				return d.drain(g, queues)
			}
			in, ok := ToInbound(u)
			if !ok {
				continue
			}
			select {
			case queues[shard(in.ChatID, d.workers)] <- in:
			case <-ctx.Done():
				return d.drain(g, queues)
			}
		}
	}
}

func (d *Dispatcher) drain(g *errgroup.Group, queues []chan conversation.Inbound) error {
	for _, q := range queues {
		close(q)
	}
	return g.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, in conversation.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("stack", string(debug.Stack())).Int64("chat_id", in.ChatID).Msg("Recovered panic in handler")
			d.faults.Report(ctx, "dispatch", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := d.handler.Handle(ctx, in); err != nil {
		d.faults.Report(ctx, "dispatch", err)
	}
}

func shard(chatID int64, n int) int {
	return int(uint64(chatID) % uint64(n))
}

// ToInbound converts a text message update. Other updates are skipped.
func ToInbound(u tgbotapi.Update) (conversation.Inbound, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return conversation.Inbound{}, false
	}

	in := conversation.Inbound{
		ChatID:   m.Chat.ID,
		UserID:   m.From.ID,
		Username: m.From.UserName,
	}
	if m.IsCommand() {
		in.Command = strings.ToLower(m.Command())
		in.Args = m.CommandArguments()
		return in, true
	}
	if m.Text == "" {
		return conversation.Inbound{}, false
	}
	in.Text = m.Text
	return in, true
}
