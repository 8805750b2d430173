package pipeline

import (
	"context"
	"strings"
)

// newFilterStage drops entries no later stage can do anything with: hidden
// and system files, and entries with no media-relevant extension.
func newFilterStage() Stage {
	return Stage{
		Name:  "filter",
		Order: orderFilter,
		Kinds: Kinds(EntryAll),
		Run: func(_ context.Context, item *Item) (Status, error) {
			name := item.Entry.Name
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "._") {
				item.Filtered = true
				return StatusSkipped, nil
			}
			if item.Kind == EntryOther {
				item.Filtered = true
				return StatusSkipped, nil
			}
			return StatusSuccess, nil
		},
	}
}

// newPassthroughStage ends the chain for sidecar entries: descriptors,
// images, and subtitles are acquired through their video sibling's priority
// resolution, never processed standalone.
func newPassthroughStage() Stage {
	return Stage{
		Name:  "sidecar-passthrough",
		Order: orderPassthrough,
		Kinds: Kinds(EntryDescriptor, EntryImage, EntrySubtitle),
		Run: func(_ context.Context, item *Item) (Status, error) {
			item.Filtered = true
			return StatusSkipped, nil
		},
	}
}
