// internal/realtime/change.go
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type ChangeKind string

const (
	Inserted ChangeKind = "inserted"
	Updated  ChangeKind = "updated"
	Deleted  ChangeKind = "deleted"
	// Resync is published after the feed reconnects; events may have been missed.
	Resync ChangeKind = "resync"
)

// Change is one row event from the store's change feed.
type Change struct {
	Table      string          `json:"table"`
	Kind       ChangeKind      `json:"type"`
	Old        json.RawMessage `json:"old,omitempty"`
	New        json.RawMessage `json:"new,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
}

var ErrNoRow = errors.New("change has no row snapshot")

type notifyPayload struct {
	Table string          `json:"table"`
	Type  string          `json:"type"`
	Old   json.RawMessage `json:"old"`
	New   json.RawMessage `json:"new"`
}

// ParseChange decodes a pg_notify payload produced by the change-feed trigger.
func ParseChange(payload []byte) (Change, error) {
	var p notifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Change{}, fmt.Errorf("failed to decode change payload: %w", err)
	}
	if p.Table == "" {
		return Change{}, errors.New("change payload missing table")
	}

	var kind ChangeKind
	switch strings.ToUpper(p.Type) {
	case "INSERT":
		kind = Inserted
	case "UPDATE":
		kind = Updated
	case "DELETE":
		kind = Deleted
	default:
		return Change{}, fmt.Errorf("unknown change type %q", p.Type)
	}

	return Change{
		Table:      p.Table,
		Kind:       kind,
		Old:        present(p.Old),
		New:        present(p.New),
		ReceivedAt: time.Now(),
	}, nil
}

func present(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// DecodeNew unmarshals the after snapshot into v.
func (c Change) DecodeNew(v interface{}) error {
	if c.New == nil {
		return ErrNoRow
	}
	return json.Unmarshal(c.New, v)
}

// DecodeOld unmarshals the before snapshot into v.
func (c Change) DecodeOld(v interface{}) error {
	if c.Old == nil {
		return ErrNoRow
	}
	return json.Unmarshal(c.Old, v)
}
