package transport

import (
	"strings"
	"testing"

	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

func TestQRDataURL(t *testing.T) {
	url, err := QRDataURL("2@abcdefg,hijklmn,opqrstu")
	if err != nil {
		t.Fatalf("QRDataURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("Expected PNG data URL, got %q", url[:32])
	}
	if len(url) <= len("data:image/png;base64,") {
		t.Error("Expected non-empty image payload")
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{
			"extended text",
			&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("quoted reply")}},
			"quoted reply",
		},
		{
			"image caption",
			&waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("see attached")}},
			"see attached",
		},
		{
			"captionless image",
			&waE2E.Message{ImageMessage: &waE2E.ImageMessage{Mimetype: proto.String("image/jpeg")}},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.msg); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMediaInfoOf(t *testing.T) {
	doc := &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
		Mimetype: proto.String("application/pdf"),
		FileName: proto.String("invoice.pdf"),
	}}
	mime, filename, ok := mediaInfoOf(doc)
	if !ok || mime != "application/pdf" || filename != "invoice.pdf" {
		t.Errorf("Expected pdf media info, got mime=%q filename=%q ok=%v", mime, filename, ok)
	}

	text := &waE2E.Message{Conversation: proto.String("hi")}
	if _, _, ok := mediaInfoOf(text); ok {
		t.Error("Expected no media info for plain text")
	}
}
