package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " cascader.selection.changed ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " cascader.view ",
		ObjectID:       " view-1 ",
		Channel:        " cascader ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbSelectionChanged || got.ObjectType != ObjectTypeView || got.ObjectID != "view-1" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "cascader" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyDropsUnroutableEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: "x", ObjectType: "y"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbFocusChanged, ObjectType: ObjectTypeView, ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestHooksCompact(t *testing.T) {
	if got := (Hooks{nil, nil}).Compact(); got != nil {
		t.Fatalf("expected nil for all-nil hooks, got %+v", got)
	}
	capture := &CaptureHook{}
	got := Hooks{nil, capture}.Compact()
	if len(got) != 1 || got[0] != capture {
		t.Fatalf("expected single capture hook, got %+v", got)
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbSelectionChanged, ObjectType: ObjectTypeView, ObjectID: "1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, UserID: " u1 "})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	last, ok := capture.Last()
	if !ok {
		t.Fatalf("expected one event captured")
	}
	if last.Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", last.Channel)
	}
	if last.UserID != "u1" {
		t.Fatalf("expected default user stamped, got %q", last.UserID)
	}
}

func TestEmitterPreservesExplicitFields(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default", UserID: "fallback"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbTreeReplaced,
		ObjectType: ObjectTypeView,
		ObjectID:   "1",
		Channel:    "custom",
		UserID:     "explicit",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events[0]
	if got.Channel != "custom" || got.UserID != "explicit" {
		t.Fatalf("expected explicit fields preserved, got %+v", got)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
	}
}

func TestOnlyForwardsListedVerbs(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{Only(capture, " "+VerbTreeReplaced, "")}
	for _, verb := range []string{VerbSelectionChanged, VerbTreeReplaced, VerbFocusChanged} {
		if err := hooks.Notify(context.Background(), Event{Verb: verb, ObjectType: ObjectTypeView, ObjectID: "1"}); err != nil {
			t.Fatalf("notify %s: %v", verb, err)
		}
	}
	verbs := capture.Verbs()
	if len(verbs) != 1 || verbs[0] != VerbTreeReplaced {
		t.Fatalf("expected only tree events, got %v", verbs)
	}
	if err := Only(nil, VerbTreeReplaced).Notify(context.Background(), Event{Verb: VerbTreeReplaced}); err != nil {
		t.Fatalf("nil hook should be ignored, got %v", err)
	}
}
