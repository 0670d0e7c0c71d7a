package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Account is a connected Instagram business account as reported by the backend.
type Account struct {
	ID                 int64   `json:"id"`
	Username           string  `json:"username"`
	PageName           *string `json:"page_name"`
	InstagramAccountID string  `json:"instagram_account_id"`
}

// Message is a received direct message. The backend owns its identity; the
// client never merges or deduplicates messages across loads.
type Message struct {
	ID        MessageID `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      *string   `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
	Replied   bool      `json:"replied"`
	ReplyText *string   `json:"reply_text"`
}

// MessageID is opaque: the backend may send it as a string or a number.
type MessageID string

func (id *MessageID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("message id: %w", err)
	}
	*id = MessageID(n.String())
	return nil
}

// Timestamp is an epoch-milliseconds instant that may be absent. The backend
// sends it as a JSON number or as a numeric string.
type Timestamp struct {
	ms    int64
	valid bool
}

// TimestampFromMillis builds a present timestamp.
func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{ms: ms, valid: true}
}

// Millis reports the raw value and whether it was present.
func (t Timestamp) Millis() (int64, bool) {
	return t.ms, t.valid
}

// IsZero is true when the timestamp is absent or zero.
func (t Timestamp) IsZero() bool {
	return !t.valid || t.ms == 0
}

func (t Timestamp) Time() time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.UnixMilli(t.ms)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.ms, 10)), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Timestamp{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	ms, ok := leadingInt(raw)
	if !ok {
		// Unparseable timestamps render as absent rather than failing the whole list.
		return nil
	}
	*t = Timestamp{ms: ms, valid: true}
	return nil
}

// leadingInt parses the integer prefix of s, ignoring a fractional part.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || (end == 0 && c == '-') {
			end++
			continue
		}
		break
	}
	if end == 0 || (end == 1 && s[0] == '-') {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SendMessageInput is the body of a send-message request.
type SendMessageInput struct {
	AccountID   int64  `json:"accountId"`
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
}

type accountsEnvelope struct {
	Accounts *[]Account `json:"accounts"`
}

type messagesEnvelope struct {
	Messages *[]Message `json:"messages"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
