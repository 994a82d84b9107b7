package whatsapp

import "testing"

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	wellFormed := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"metadata": {"phone_number_id": "555000111"},
					"messages": [{"from": "15551234567", "text": {"body": "Hi"}}]
				}
			}]
		}]
	}`

	cases := []struct {
		name    string
		payload string
		want    Event
		ok      bool
	}{
		{
			name:    "well-formed single message",
			payload: wellFormed,
			want:    Event{PhoneNumberID: "555000111", From: "15551234567", Body: "Hi"},
			ok:      true,
		},
		{
			name: "only first message is consulted",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
				"metadata":{"phone_number_id":"555000111"},
				"messages":[{"from":"1","text":{"body":"first"}},{"from":"2","text":{"body":"second"}}]}}]}]}`,
			want: Event{PhoneNumberID: "555000111", From: "1", Body: "first"},
			ok:   true,
		},
		{
			name:    "not json",
			payload: `{{{`,
		},
		{
			name:    "missing object",
			payload: `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"x"},"messages":[{"from":"a","text":{"body":"b"}}]}}]}]}`,
		},
		{
			name:    "empty entries",
			payload: `{"object":"whatsapp_business_account","entry":[]}`,
		},
		{
			name:    "no changes",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[]}]}`,
		},
		{
			name:    "status-only notification without messages",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"555000111"}}}]}]}`,
		},
		{
			name:    "missing phone number id",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"a","text":{"body":"b"}}]}}]}]}`,
		},
		{
			name:    "missing text body",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"555000111"},"messages":[{"from":"a","text":{}}]}}]}]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeEvent([]byte(tc.payload))
			if ok != tc.ok {
				t.Fatalf("ok=%v want=%v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("event=%+v want=%+v", got, tc.want)
			}
		})
	}
}
