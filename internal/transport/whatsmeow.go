package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/intakelabs/waintake/internal/domain"
)

// WhatsmeowClient adapts a whatsmeow session to the Client interface.
// Session credentials persist in a dedicated sqlite database, so a paired
// device reconnects without a new QR scan.
type WhatsmeowClient struct {
	cli       *whatsmeow.Client
	container *sqlstore.Container
	handler   Handler
}

// NewWhatsmeow opens (or creates) the session store at dbPath and prepares a
// client for the first stored device. It does not connect.
func NewWhatsmeow(ctx context.Context, dbPath string) (*WhatsmeowClient, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	container, err := sqlstore.New(ctx, "sqlite", dsn, waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	w := &WhatsmeowClient{
		cli:       whatsmeow.NewClient(device, waLog.Noop),
		container: container,
	}
	w.cli.AddEventHandler(w.dispatch)
	return w, nil
}

// SetHandler registers the event sink. Must be called before Connect.
func (w *WhatsmeowClient) SetHandler(h Handler) {
	w.handler = h
}

// Connect brings the session up. When no stored credentials exist the QR
// channel is consumed in the background and codes are forwarded to the
// handler as they rotate.
func (w *WhatsmeowClient) Connect(ctx context.Context) error {
	if w.cli.Store.ID == nil {
		qrChan, err := w.cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("open qr channel: %w", err)
		}
		go w.consumeQR(qrChan)
	}
	if err := w.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect tears the session down. Safe to call when not connected.
func (w *WhatsmeowClient) Disconnect() {
	w.cli.Disconnect()
}

// SelfPhone returns the paired phone number, or empty before pairing.
func (w *WhatsmeowClient) SelfPhone() string {
	id := w.cli.Store.ID
	if id == nil {
		return ""
	}
	return id.User
}

// Send delivers a plain text message and returns the provider message id.
func (w *WhatsmeowClient) Send(ctx context.Context, to, text string) (string, error) {
	jid, err := parseJID(to)
	if err != nil {
		return "", err
	}
	resp, err := w.cli.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return string(resp.ID), nil
}

// Close releases the session store. Call after Disconnect on shutdown.
func (w *WhatsmeowClient) Close() error {
	return w.container.Close()
}

func (w *WhatsmeowClient) consumeQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case "code":
			if w.handler != nil {
				w.handler.HandleQR(item.Code)
			}
		case "timeout":
			slog.Warn("QR pairing timed out")
			if w.handler != nil {
				w.handler.HandleAuthFailure()
			}
		}
	}
}

func (w *WhatsmeowClient) dispatch(evt interface{}) {
	if w.handler == nil {
		return
	}
	switch v := evt.(type) {
	case *events.Message:
		w.handler.HandleMessage(w.convert(v))
	case *events.Connected:
		w.handler.HandleConnected()
	case *events.Disconnected:
		w.handler.HandleDisconnected()
	case *events.LoggedOut:
		slog.Warn("Device logged out", "reason", v.Reason.String())
		w.handler.HandleAuthFailure()
	}
}

func (w *WhatsmeowClient) convert(evt *events.Message) Message {
	msg := Message{
		ID:        string(evt.Info.ID),
		From:      evt.Info.Chat.String(),
		Text:      extractText(evt.Message),
		Timestamp: evt.Info.Timestamp,
		Kind:      evt.Info.Type,
		FromSelf:  evt.Info.IsFromMe,
	}
	if id := w.cli.Store.ID; id != nil {
		msg.To = id.ToNonAD().String()
	}
	if mime, filename, ok := mediaInfoOf(evt.Message); ok {
		msg.HasMedia = true
		msg.Download = func(ctx context.Context) (*domain.Media, error) {
			data, err := w.cli.DownloadAny(ctx, evt.Message)
			if err != nil {
				return nil, fmt.Errorf("download media: %w", err)
			}
			return &domain.Media{MimeType: mime, Filename: filename, Data: data}, nil
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

func parseJID(addr string) (types.JID, error) {
	jid, err := types.ParseJID(addr)
	if err != nil || jid.Server == "" {
		return types.NewJID(addr, types.DefaultUserServer), nil
	}
	return jid, nil
}

// extractText pulls the human-readable body out of the message variants the
// flow cares about. Unknown variants yield an empty string.
func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage().GetText() != "":
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage().GetCaption() != "":
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage().GetCaption() != "":
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage().GetCaption() != "":
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

func mediaInfoOf(msg *waE2E.Message) (mime, filename string, ok bool) {
	if msg == nil {
		return "", "", false
	}
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetMimetype(), "", true
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetMimetype(), msg.GetDocumentMessage().GetFileName(), true
	case msg.GetAudioMessage() != nil:
		return msg.GetAudioMessage().GetMimetype(), "", true
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetMimetype(), "", true
	case msg.GetStickerMessage() != nil:
		return msg.GetStickerMessage().GetMimetype(), "", true
	}
	return "", "", false
}
