package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// ConversationID is always present to identify the target.
	ConversationID string `json:"conversation_id"`

	// Appended holds messages added after the old list.
	Appended []Message `json:"appended,omitempty"`

	// Replaced holds messages whose content changed, keyed by index. State
	// patches and heals land here.
	Replaced map[int]Message `json:"replaced,omitempty"`

	// Streaming is set when the live tree changed; a nil Tree clears it.
	Streaming *StreamingDelta `json:"streaming,omitempty"`

	Loading  *bool   `json:"loading,omitempty"`
	EditMode *bool   `json:"edit_mode,omitempty"`
	Selected *string `json:"selected,omitempty"`

	// Reset is true when the message list was rewritten rather than appended
	// to; Appended then carries the whole list.
	Reset bool `json:"reset,omitempty"`
}

// StreamingDelta carries the new live tree.
type StreamingDelta struct {
	Tree any `json:"tree"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{
		ConversationID: newSnap.ConversationID,
	}

	diffMessages(diff, oldSnap, newSnap)

	if oldSnap == nil {
		if newSnap.Streaming != nil {
			diff.Streaming = &StreamingDelta{Tree: newSnap.Streaming}
		}
		if newSnap.Loading {
			diff.Loading = &newSnap.Loading
		}
		if newSnap.EditMode {
			diff.EditMode = &newSnap.EditMode
		}
		if newSnap.Selected != "" {
			diff.Selected = &newSnap.Selected
		}
	} else {
		if !reflect.DeepEqual(oldSnap.Streaming, newSnap.Streaming) {
			diff.Streaming = &StreamingDelta{Tree: newSnap.Streaming}
		}
		if oldSnap.Loading != newSnap.Loading {
			diff.Loading = &newSnap.Loading
		}
		if oldSnap.EditMode != newSnap.EditMode {
			diff.EditMode = &newSnap.EditMode
		}
		if oldSnap.Selected != newSnap.Selected {
			diff.Selected = &newSnap.Selected
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffMessages(diff *SnapshotDiff, old, new *Snapshot) {
	if old == nil {
		if len(new.Messages) > 0 {
			diff.Appended = new.Messages
		}
		return
	}

	// Messages are append-only except for tree replacement in place; a
	// shorter list or a different ID at the same index means a rewrite.
	if len(new.Messages) < len(old.Messages) {
		diff.Reset = true
		diff.Appended = new.Messages
		return
	}
	for i, prev := range old.Messages {
		cur := new.Messages[i]
		if cur.ID != prev.ID {
			diff.Reset = true
			diff.Appended = new.Messages
			diff.Replaced = nil
			return
		}
		if !reflect.DeepEqual(prev, cur) {
			if diff.Replaced == nil {
				diff.Replaced = make(map[int]Message)
			}
			diff.Replaced[i] = cur
		}
	}
	if len(new.Messages) > len(old.Messages) {
		diff.Appended = new.Messages[len(old.Messages):]
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return len(d.Appended) == 0 &&
		len(d.Replaced) == 0 &&
		!d.Reset &&
		d.Streaming == nil &&
		d.Loading == nil &&
		d.EditMode == nil &&
		d.Selected == nil
}
