package finder

import (
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/nickfinder/internal/archive"
	"github.com/MikeSquared-Agency/nickfinder/internal/mojibake"
)

// MatchPhrase is the text the export uses for a nickname change aimed at
// the account owner: "<actor> set your nickname to <nickname>."
const MatchPhrase = " set your nickname to "

// The match runs greedily to the end of the content, so with several
// phrases in one message the leftmost one wins and swallows the rest.
var matchRe = regexp.MustCompile(regexp.QuoteMeta(MatchPhrase) + `.+\z`)

// Record is one nickname occurrence.
type Record struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Nickname    string `json:"nickname"`
}

// Finder extracts nickname changes from export files.
type Finder struct {
	// username is kept in the export's broken encoding so it compares
	// directly against raw sender and participant names.
	username string
	observer Observer
	logger   *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithObserver reports every record to o as soon as it is found.
func WithObserver(o Observer) Option {
	return func(f *Finder) { f.observer = o }
}

// New creates a Finder. A non-empty username skips conversations the user
// is not part of, and messages the user sent.
func New(username string, logger *slog.Logger, opts ...Option) *Finder {
	f := &Finder{logger: logger}
	if username != "" {
		logger.Info("skipping messages from user", "username", username)
		f.username = mojibake.Unfix(username)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// outcome classifies how far a blob got through scanning.
type outcome int

const (
	outcomeScanned outcome = iota
	outcomeFiltered
	outcomeInvalid
	outcomeFailed
)

// ProcessBlob extracts nickname records from the content of one export file.
//
// An error wrapping archive.ErrInvalidDocument means the blob should be
// ignored. Any other error abandons the file part way through; the records
// found before it are still returned.
func (f *Finder) ProcessBlob(data []byte) ([]Record, error) {
	records, _, _, err := f.scan(data)
	return records, err
}

func (f *Finder) scan(data []byte) (records []Record, scanned int, out outcome, err error) {
	conv, err := archive.Parse(data)
	if err != nil {
		return nil, 0, outcomeInvalid, err
	}

	if f.username != "" {
		ok, err := f.isParticipant(conv)
		if err != nil {
			return nil, 0, outcomeFailed, err
		}
		if !ok {
			return nil, 0, outcomeFiltered, nil
		}
	}

	msgs, err := conv.Messages()
	if err != nil {
		return nil, 0, outcomeFailed, err
	}

	for i, m := range msgs {
		rec, found, err := f.scanMessage(m)
		if err != nil {
			return records, scanned, outcomeFailed, fmt.Errorf("message %d: %w", i, err)
		}
		scanned++
		if found {
			records = append(records, rec)
		}
	}
	return records, scanned, outcomeScanned, nil
}

func (f *Finder) scanMessage(m *archive.Message) (Record, bool, error) {
	if f.username != "" {
		sender, ok, err := m.SenderName()
		if err != nil {
			return Record{}, false, err
		}
		if ok && sender == f.username {
			return Record{}, false, nil
		}
	}

	typ, ok, err := m.Type()
	if err != nil {
		return Record{}, false, err
	}
	if !ok || typ != archive.MessageTypeGeneric {
		return Record{}, false, nil
	}
	content, ok, err := m.Content()
	if err != nil {
		return Record{}, false, err
	}
	if !ok {
		return Record{}, false, nil
	}

	nickname, ok := matchNickname(content)
	if !ok {
		return Record{}, false, nil
	}
	fixed, err := mojibake.Fix(nickname)
	if err != nil {
		return Record{}, false, fmt.Errorf("repair nickname: %w", err)
	}
	ts, err := m.TimestampMs()
	if err != nil {
		return Record{}, false, err
	}
	return Record{TimestampMs: ts, Nickname: fixed}, true, nil
}

// matchNickname returns the raw nickname from a "<actor> set your nickname
// to <nickname>." message. Content that opens with the phrase has no actor
// and does not count.
func matchNickname(content string) (string, bool) {
	loc := matchRe.FindStringIndex(content)
	if loc == nil || loc[0] == 0 {
		return "", false
	}
	raw := content[loc[0]+len(MatchPhrase) : loc[1]]
	// Drop the closing full stop.
	_, size := utf8.DecodeLastRuneInString(raw)
	return raw[:len(raw)-size], true
}

func (f *Finder) isParticipant(conv *archive.Conversation) (bool, error) {
	participants, err := conv.Participants()
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		name, ok, err := p.Name()
		if err != nil {
			return false, err
		}
		if ok && name == f.username {
			return true, nil
		}
	}
	return false, nil
}
