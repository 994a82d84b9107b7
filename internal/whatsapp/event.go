package whatsapp

import "encoding/json"

// Event is the single inbound message the relay acts on.
type Event struct {
	PhoneNumberID string
	From          string
	Body          string
}

// webhookPayload mirrors the Cloud API webhook envelope. Only the fields
// the relay consults are modelled; everything else is ignored.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// DecodeEvent extracts the first entry/change/message from a webhook
// payload. The decode is best-effort: malformed payloads, status-only
// notifications and anything missing a required field report ok=false and
// are dropped by the caller.
func DecodeEvent(payload []byte) (Event, bool) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return Event{}, false
	}
	if body.Object == "" || len(body.Entry) == 0 {
		return Event{}, false
	}
	entry := body.Entry[0]
	if len(entry.Changes) == 0 {
		return Event{}, false
	}
	value := entry.Changes[0].Value
	if value.Metadata.PhoneNumberID == "" || len(value.Messages) == 0 {
		return Event{}, false
	}
	msg := value.Messages[0]
	if msg.From == "" || msg.Text.Body == "" {
		return Event{}, false
	}
	return Event{
		PhoneNumberID: value.Metadata.PhoneNumberID,
		From:          msg.From,
		Body:          msg.Text.Body,
	}, true
}
