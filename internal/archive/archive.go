// Package archive reads conversation documents from a messaging export.
//
// Fields are looked up lazily: a document is only malformed with respect to
// the keys a caller actually reads, which keeps unrelated schema drift in
// the export from rejecting whole files.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MessageTypeGeneric is the type tag of plain text and system messages.
const MessageTypeGeneric = "Generic"

var (
	// ErrInvalidDocument means the blob is not UTF-8 JSON with an object at the top level.
	ErrInvalidDocument = errors.New("not a valid export document")

	// ErrMalformed means a parsed document lacks a key, or holds a value of the wrong type.
	ErrMalformed = errors.New("malformed export document")
)

type object map[string]json.RawMessage

// Conversation is one parsed export file.
type Conversation struct {
	fields object
}

// Parse decodes the top level of an export file.
func Parse(data []byte) (*Conversation, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: content is not utf-8", ErrInvalidDocument)
	}
	var fields object
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	// "null" decodes into a nil map without error.
	if fields == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}
	return &Conversation{fields: fields}, nil
}

// Participants returns the conversation's participant entries.
func (c *Conversation) Participants() ([]*Participant, error) {
	items, err := c.fields.array("participants")
	if err != nil {
		return nil, err
	}
	out := make([]*Participant, len(items))
	for i, raw := range items {
		out[i] = &Participant{entry: entry{raw: raw}}
	}
	return out, nil
}

// Messages returns the conversation's messages in export order.
func (c *Conversation) Messages() ([]*Message, error) {
	items, err := c.fields.array("messages")
	if err != nil {
		return nil, err
	}
	out := make([]*Message, len(items))
	for i, raw := range items {
		out[i] = &Message{entry: entry{raw: raw}}
	}
	return out, nil
}

// Participant is a named member of a conversation.
type Participant struct {
	entry
}

// Name returns the participant's display name as stored in the export.
// ok is false when the name is present but not a string.
func (p *Participant) Name() (name string, ok bool, err error) {
	return p.text("name")
}

// Message is a single record of a conversation's message list.
type Message struct {
	entry
}

// Type returns the message type tag, e.g. "Generic" or "Share". ok is
// false when the tag is present but not a string.
func (m *Message) Type() (typ string, ok bool, err error) {
	return m.text("type")
}

// SenderName returns the display name of the author. ok is false when the
// name is present but not a string.
func (m *Message) SenderName() (name string, ok bool, err error) {
	return m.text("sender_name")
}

// Content returns the message text. ok is false when the message carries
// no content key at all (media, stickers, calls).
func (m *Message) Content() (text string, ok bool, err error) {
	fields, err := m.object()
	if err != nil {
		return "", false, err
	}
	if _, present := fields["content"]; !present {
		return "", false, nil
	}
	text, err = fields.str("content")
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// TimestampMs returns the message time in milliseconds since the epoch.
func (m *Message) TimestampMs() (int64, error) {
	fields, err := m.object()
	if err != nil {
		return 0, err
	}
	raw, err := fields.lookup("timestamp_ms")
	if err != nil {
		return 0, err
	}
	// json.Number also accepts quoted numbers.
	var n json.Number
	if len(raw) == 0 || raw[0] == '"' {
		return 0, fmt.Errorf("%w: timestamp_ms is not a number", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0, fmt.Errorf("%w: timestamp_ms is not a number", ErrMalformed)
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%w: timestamp_ms %s is not an integer", ErrMalformed, n)
	}
	return int64(f), nil
}

// entry is a JSON object inside an array, decoded on first access.
type entry struct {
	raw    json.RawMessage
	fields object
}

func (e *entry) object() (object, error) {
	if e.fields != nil {
		return e.fields, nil
	}
	var fields object
	if err := json.Unmarshal(e.raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: entry is not an object", ErrMalformed)
	}
	e.fields = fields
	return fields, nil
}

func (e *entry) text(key string) (string, bool, error) {
	fields, err := e.object()
	if err != nil {
		return "", false, err
	}
	return fields.text(key)
}

func (o object) lookup(key string) (json.RawMessage, error) {
	raw, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrMalformed, key)
	}
	return raw, nil
}

func (o object) str(key string) (string, error) {
	raw, err := o.lookup(key)
	if err != nil {
		return "", err
	}
	if isNull(raw) {
		return "", fmt.Errorf("%w: %q is null", ErrMalformed, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformed, key)
	}
	return s, nil
}

// text is the lenient form of str: only a missing key is an error, any
// other non-string value (null included) reports ok == false.
func (o object) text(key string) (string, bool, error) {
	raw, err := o.lookup(key)
	if err != nil {
		return "", false, err
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", false, nil
	}
	return s, true, nil
}

func (o object) array(key string) ([]json.RawMessage, error) {
	raw, err := o.lookup(key)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("%w: %q is null", ErrMalformed, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not an array", ErrMalformed, key)
	}
	return items, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
