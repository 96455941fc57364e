// Package line talks to the LINE Messaging API: it decodes inbound webhook
// batches and sends reply and push messages.
package line

import (
	"encoding/json"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const maxReplyTextLength = 5000

type webhookBody struct {
	Destination string            `json:"destination"`
	Events      []json.RawMessage `json:"events"`
}

// ParseEvents decodes a webhook body. A malformed body, a missing events
// field and an empty events array all yield nil. An event that does not
// decode is kept as a nil entry so it is counted and then ignored.
func ParseEvents(body []byte) []webhook.EventInterface {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil
	}
	if len(wb.Events) == 0 {
		return nil
	}

	events := make([]webhook.EventInterface, len(wb.Events))
	for i, raw := range wb.Events {
		if ev, err := webhook.UnmarshalEvent(raw); err == nil {
			events[i] = ev
		}
	}
	return events
}

// TextEvent returns the reply token and text of a text message event. ok is
// false for every other event, including nil.
func TextEvent(ev webhook.EventInterface) (replyToken, text string, ok bool) {
	msg, isMessage := ev.(webhook.MessageEvent)
	if !isMessage {
		return "", "", false
	}
	content, isText := msg.Message.(webhook.TextMessageContent)
	if !isText {
		return "", "", false
	}
	return msg.ReplyToken, content.Text, true
}

// Describe returns log attributes for ev.
func Describe(ev webhook.EventInterface) []any {
	if ev == nil {
		return []any{"event_type", "undecodable"}
	}
	attrs := []any{"event_type", ev.GetType()}

	msg, ok := ev.(webhook.MessageEvent)
	if !ok {
		return attrs
	}
	if msg.Message != nil {
		attrs = append(attrs, "message_type", msg.Message.GetType())
	}
	switch src := msg.Source.(type) {
	case webhook.GroupSource:
		attrs = append(attrs, "source_type", "group", "group_id", src.GroupId)
	case webhook.RoomSource:
		attrs = append(attrs, "source_type", "room", "room_id", src.RoomId)
	case webhook.UserSource:
		attrs = append(attrs, "source_type", "user")
	}
	return attrs
}
