package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/conversation"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/project"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/whatsapp"
)

// DefaultSystemPrompt is used when a project carries no prompt of its own.
const DefaultSystemPrompt = "You are a helpful AI bot."

// ProjectResolver routes an inbound phone number id to its project.
type ProjectResolver interface {
	ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (project.Project, error)
}

// MessageWriter appends one row to the conversation log.
type MessageWriter interface {
	Append(ctx context.Context, input conversation.AppendInput) (conversation.Message, error)
}

// Completer generates reply text from a system prompt and user text.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// ReplySender delivers reply text back to the platform.
type ReplySender interface {
	Send(ctx context.Context, phoneNumberID, to, body, token string) error
}

// Processor drives one inbound event through resolve, persist, complete
// and deliver. The webhook transport has already been acknowledged when
// Handle runs, so every failure is terminal for the event: it is logged
// and the remaining steps are skipped, with no rollback of completed ones.
type Processor struct {
	logger        *slog.Logger
	projects      ProjectResolver
	messages      MessageWriter
	completer     Completer
	sender        ReplySender
	fallbackToken string
}

func NewProcessor(log *slog.Logger, projects ProjectResolver, messages MessageWriter, completer Completer, sender ReplySender, fallbackToken string) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		logger:        log.With(slog.String("component", "relay")),
		projects:      projects,
		messages:      messages,
		completer:     completer,
		sender:        sender,
		fallbackToken: strings.TrimSpace(fallbackToken),
	}
}

// Handle processes one decoded inbound event. Outcomes surface only through
// logs and persisted state; nothing propagates back to the transport.
func (p *Processor) Handle(ctx context.Context, evt whatsapp.Event) {
	log := p.logger.With(
		slog.String("phone_number_id", evt.PhoneNumberID),
		slog.String("from", evt.From),
	)

	proj, err := p.projects.ResolveByPhoneNumberID(ctx, evt.PhoneNumberID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			log.Info("inbound dropped: no project for phone number id")
		} else {
			log.Error("project lookup failed", slog.Any("error", err))
		}
		return
	}
	log = log.With(slog.Int64("project_id", proj.ID))

	eventTime := time.Now().UTC()
	if _, err := p.messages.Append(ctx, conversation.AppendInput{
		ProjectID: proj.ID,
		From:      evt.From,
		To:        proj.PhoneNumberID,
		Body:      evt.Body,
		Direction: conversation.DirectionIncoming,
		Timestamp: eventTime,
	}); err != nil {
		log.Error("persist inbound message failed", slog.Any("error", err))
		return
	}

	if p.completer == nil || !p.completer.Configured() {
		log.Info("no completion credential configured, skipping reply")
		return
	}

	systemPrompt := strings.TrimSpace(proj.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	reply, err := p.completer.Complete(ctx, systemPrompt, evt.Body)
	if err != nil {
		log.Error("completion failed", slog.Any("error", err))
		return
	}

	// A failed outbound write must not block delivery: the reply text is
	// already in hand.
	if _, err := p.messages.Append(ctx, conversation.AppendInput{
		ProjectID: proj.ID,
		From:      proj.PhoneNumberID,
		To:        evt.From,
		Body:      reply,
		Direction: conversation.DirectionOutgoing,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Error("persist outbound message failed", slog.Any("error", err))
	}

	token := strings.TrimSpace(proj.WhatsAppToken)
	if token == "" {
		token = p.fallbackToken
	}
	if token == "" {
		log.Error("no delivery token available, reply not sent")
		return
	}

	if err := p.sender.Send(ctx, proj.PhoneNumberID, evt.From, reply, token); err != nil {
		log.Error("reply delivery failed", slog.Any("error", err))
		return
	}
	log.Info("reply delivered")
}
