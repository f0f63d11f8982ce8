package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/identity"
	"github.com/intakelabs/waintake/internal/msglog"
	"github.com/intakelabs/waintake/internal/registry"
	"github.com/intakelabs/waintake/internal/routing"
	"github.com/intakelabs/waintake/internal/transport"
)

// Sender delivers outbound replies. Satisfied by the transport client.
type Sender interface {
	Send(ctx context.Context, to, text string) (string, error)
}

// EngineConfig carries the engine's collaborators and tunables.
type EngineConfig struct {
	Resolver    *routing.Resolver
	Contacts    *registry.Registry
	Log         *msglog.Logger
	Sessions    *SessionStore
	Sender      Sender
	CompanyName string

	// ReplyDelay paces step-advancing replies to feel less robotic.
	// Re-prompts go out immediately. Zero disables pacing.
	ReplyDelay time.Duration
}

// Engine walks each sender through the intake conversation. One call to
// HandleMessage processes one inbound turn to completion.
type Engine struct {
	resolver    *routing.Resolver
	contacts    *registry.Registry
	log         *msglog.Logger
	sessions    *SessionStore
	sender      Sender
	companyName string
	replyDelay  time.Duration
	ready       atomic.Bool
}

// NewEngine creates a flow engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		resolver:    cfg.Resolver,
		contacts:    cfg.Contacts,
		log:         cfg.Log,
		sessions:    cfg.Sessions,
		sender:      cfg.Sender,
		companyName: cfg.CompanyName,
		replyDelay:  cfg.ReplyDelay,
	}
}

// SetReady gates message intake. Messages arriving while not ready are
// dropped without logging: there is no connected session to attribute them to.
func (e *Engine) SetReady(ready bool) {
	e.ready.Store(ready)
}

// Ready reports whether the engine is accepting messages.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// HandleMessage processes one inbound turn: resolve the owning admin, load or
// create the contact and session, log the turn, then run the state machine.
// Every failure is returned to the caller; the caller abandons the turn and
// the next message from the same sender starts from persisted state.
func (e *Engine) HandleMessage(ctx context.Context, msg transport.Message) error {
	if !e.ready.Load() {
		return nil
	}
	if msg.FromSelf || msg.From == "" {
		return nil
	}
	if identity.IsGroupAddress(msg.From) {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)
	phone := identity.NormalizePhone(msg.From)

	admin, err := e.resolver.Resolve(ctx, msg.To)
	if err != nil {
		if errors.Is(err, routing.ErrNoAdmin) {
			slog.Warn("No active admin to assign sender, dropping message", "phone", phone)
			return nil
		}
		return fmt.Errorf("resolve admin: %w", err)
	}

	contact, err := e.contacts.GetOrCreate(ctx, phone, admin.ID)
	if err != nil {
		return fmt.Errorf("get or create contact: %w", err)
	}
	returning := contact.IsReturning()

	var media *domain.Media
	if msg.HasMedia && msg.Download != nil {
		media, err = msg.Download(ctx)
		if err != nil {
			slog.Warn("Failed to download media, continuing without it", "phone", phone, "error", err)
			media = nil
		}
	}

	sess := e.sessions.Get(phone)
	if sess == nil {
		sess = &Session{Step: StepStart, Returning: returning}
		if returning {
			sess.Step = StepMenu
			sess.Name = contact.Name
		}
		e.sessions.Put(phone, sess)
	}
	sess.ContactID = contact.ID
	sess.AdminID = admin.ID

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	meta := domain.IncomingMeta{
		MetaEnvelope: domain.MetaEnvelope{
			Direction: domain.DirectionIncoming,
			MessageID: msg.ID,
			From:      msg.From,
			To:        msg.To,
			Timestamp: ts.Unix(),
			Type:      msg.Kind,
			HasMedia:  media != nil,
			Body:      msg.Text,
			FlowStep:  string(sess.Step),
			Reason:    sess.Reason,
		},
		AdminPhone:    admin.Phone,
		ReturningUser: sess.Returning,
	}
	if _, err := e.log.Record(ctx, msglog.Turn{
		ContactID: contact.ID,
		AdminID:   admin.ID,
		Text:      text,
		Direction: domain.DirectionIncoming,
		Status:    domain.StatusDelivered,
		Metadata:  meta,
		Media:     media,
	}); err != nil {
		return fmt.Errorf("log incoming turn: %w", err)
	}

	return e.step(ctx, msg.From, phone, sess, text, lower, media != nil)
}

func (e *Engine) step(ctx context.Context, to, phone string, sess *Session, text, lower string, hasMedia bool) error {
	switch sess.Step {
	case StepStart:
		if lower != "hi" && lower != "hello" {
			return nil
		}
		if err := e.reply(ctx, to, sess, greetingMenu(e.companyName), true); err != nil {
			return err
		}
		sess.Step = StepMenu
		return nil

	case StepMenu:
		if sess.Returning && (lower == "hi" || lower == "hello") {
			return e.reply(ctx, to, sess, welcomeBackMenu(sess.Name), true)
		}
		switch lower {
		case "1":
			sess.Reason = ReasonServices
		case "2":
			sess.Reason = ReasonProducts
		case "3":
			sess.Reason = ReasonExecutive
		default:
			return e.reply(ctx, to, sess, menuRetryReply, false)
		}
		if sess.Returning {
			if err := e.reply(ctx, to, sess, askMessageTodayReply, true); err != nil {
				return err
			}
			sess.Step = StepAskMessage
			return nil
		}
		if err := e.reply(ctx, to, sess, askNameReply, true); err != nil {
			return err
		}
		sess.Step = StepAskName
		return nil

	case StepAskName:
		if text == "" {
			return e.reply(ctx, to, sess, nameRetryReply, false)
		}
		if err := e.contacts.UpdateProfileField(ctx, sess.ContactID, registry.FieldName, text); err != nil {
			return fmt.Errorf("persist name: %w", err)
		}
		sess.Name = text
		if err := e.reply(ctx, to, sess, askEmailReply(text), true); err != nil {
			return err
		}
		sess.Step = StepAskEmail
		return nil

	case StepAskEmail:
		if text == "" {
			return e.reply(ctx, to, sess, emailRetryReply, false)
		}
		if err := e.contacts.UpdateProfileField(ctx, sess.ContactID, registry.FieldEmail, text); err != nil {
			return fmt.Errorf("persist email: %w", err)
		}
		sess.Email = text
		if err := e.reply(ctx, to, sess, askMessageReply, true); err != nil {
			return err
		}
		sess.Step = StepAskMessage
		return nil

	case StepAskMessage:
		if text == "" && !hasMedia {
			return e.reply(ctx, to, sess, messageRetryReply, false)
		}
		sess.Request = text
		if err := e.reply(ctx, to, sess, thankYouReply(sess.Name), true); err != nil {
			return err
		}
		e.sessions.Delete(phone)
		slog.Info("Intake flow completed",
			"phone", phone, "contact_id", sess.ContactID, "reason", sess.Reason, "returning", sess.Returning)
		return nil
	}
	return nil
}

// reply sends one outbound message and logs it tagged with the step active at
// send time. Send failures propagate and abort the turn; the outbound record
// is only written for messages that actually went out.
func (e *Engine) reply(ctx context.Context, to string, sess *Session, text string, paced bool) error {
	if paced && e.replyDelay > 0 {
		select {
		case <-time.After(e.replyDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	id, err := e.sender.Send(ctx, to, text)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	meta := domain.OutgoingMeta{
		MetaEnvelope: domain.MetaEnvelope{
			Direction: domain.DirectionOutgoing,
			MessageID: id,
			To:        to,
			Timestamp: time.Now().Unix(),
			Body:      text,
			FlowStep:  string(sess.Step),
			Reason:    sess.Reason,
		},
	}
	if _, err := e.log.Record(ctx, msglog.Turn{
		ContactID: sess.ContactID,
		AdminID:   sess.AdminID,
		Text:      text,
		Direction: domain.DirectionOutgoing,
		Status:    domain.StatusSent,
		Metadata:  meta,
	}); err != nil {
		return fmt.Errorf("log outgoing turn: %w", err)
	}
	return nil
}
