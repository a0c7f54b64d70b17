package activity

import (
	"strings"
	"time"
)

const (
	VerbSelectionChanged = "cascader.selection.changed"
	VerbFocusChanged     = "cascader.focus.changed"
	VerbTreeReplaced     = "cascader.tree.replaced"

	// ObjectTypeView identifies picker views as event objects.
	ObjectTypeView = "cascader.view"
)

// ViewEventInput describes the common fields of picker lifecycle events.
// Path values are pre-rendered to strings by the caller.
type ViewEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any

	Path          []string
	PreviousPath  []string
	Depth         int
	Leaf          bool
	Source        string
	Levels        int
	ActiveIndex   int
	PreviousFocus int
	Rule          string

	OccurredAt time.Time
}

// BuildSelectionChangedEvent describes a committed path change.
func BuildSelectionChangedEvent(input ViewEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["path"] = clonePath(input.Path)
	metadata["previous_path"] = clonePath(input.PreviousPath)
	metadata["depth"] = input.Depth
	metadata["leaf"] = input.Leaf
	metadata["levels"] = input.Levels
	metadata["active_index"] = input.ActiveIndex
	if input.Source != "" {
		metadata["source"] = input.Source
	}
	return buildViewEvent(VerbSelectionChanged, input, metadata)
}

// BuildFocusChangedEvent describes a move of the active level.
func BuildFocusChangedEvent(input ViewEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["active_index"] = input.ActiveIndex
	metadata["previous_index"] = input.PreviousFocus
	metadata["levels"] = input.Levels
	if input.Rule != "" {
		metadata["rule"] = input.Rule
	}
	return buildViewEvent(VerbFocusChanged, input, metadata)
}

// BuildTreeReplacedEvent describes an option tree swap.
func BuildTreeReplacedEvent(input ViewEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["path"] = clonePath(input.Path)
	metadata["levels"] = input.Levels
	metadata["active_index"] = input.ActiveIndex
	return buildViewEvent(VerbTreeReplaced, input, metadata)
}

func buildViewEvent(verb string, input ViewEventInput, metadata map[string]any) Event {
	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = ObjectTypeView
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeView,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}
