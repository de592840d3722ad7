package api

import (
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
)

// FromContentItem converts a store record into the transport DTO. The script
// body is included only when includeBody is set; list endpoints omit it.
func FromContentItem(item *content.Item, includeBody bool) ContentItem {
	if item == nil {
		return ContentItem{}
	}
	dto := ContentItem{
		ID:             item.ID,
		Title:          item.Title,
		State:          string(item.State),
		VideoRef:       item.VideoRef,
		RemoteID:       item.RemoteID,
		ErrorDetail:    item.ErrorDetail,
		ErrorState:     string(item.ErrorState),
		Version:        item.Version,
		HasUploadToken: item.IdempotencyToken != "",
	}
	if item.ScheduledAt != nil {
		dto.ScheduledAt = item.ScheduledAt.UTC().Format(time.RFC3339)
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if includeBody {
		dto.Body = item.Body
		dto.SectionsJSON = item.SectionsJSON
	}
	return dto
}

// FromContentItems converts a slice of store records, without bodies.
func FromContentItems(items []*content.Item) []ContentItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]ContentItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromContentItem(item, false))
	}
	return out
}

// FromEvent converts a bus event into the transport DTO.
func FromEvent(evt events.Event) TransitionEvent {
	return TransitionEvent{
		Sequence:  evt.Sequence,
		ItemID:    evt.ItemID,
		Prev:      string(evt.Prev),
		Next:      string(evt.Next),
		Version:   evt.Version,
		Detail:    evt.Detail,
		Timestamp: evt.Timestamp,
	}
}

// FromEvents converts a batch of bus events.
func FromEvents(evts []events.Event) []TransitionEvent {
	if len(evts) == 0 {
		return nil
	}
	out := make([]TransitionEvent, 0, len(evts))
	for _, evt := range evts {
		out = append(out, FromEvent(evt))
	}
	return out
}

// MergeStats converts per-state counts to string keys, filling zero entries
// for every known state so consumers always see the full set.
func MergeStats(stats map[content.State]int) map[string]int {
	out := make(map[string]int, len(content.AllStates()))
	for _, state := range content.AllStates() {
		out[string(state)] = stats[state]
	}
	return out
}
