package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseEventFilter_TypeEquals(t *testing.T) {
	cond, err := ParseEventFilter(`type = "participant.joined"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "event_type = ?" {
		t.Errorf("expected 'event_type = ?', got %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"participant.joined"}) {
		t.Fatalf("Params = %v", cond.Params)
	}
}

func TestParseEventFilter_Empty(t *testing.T) {
	cond, err := ParseEventFilter(" ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !cond.Empty() || cond.Params != nil {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseEventFilter_AndOr(t *testing.T) {
	cond, err := ParseEventFilter(`type = "participant.joined" AND entity_id = "p-1"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "(event_type = ? AND entity_id = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"participant.joined", "p-1"}) {
		t.Fatalf("Params = %v", cond.Params)
	}

	cond, err = ParseEventFilter(`type = "participant.joined" OR type = "participant.left"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "(event_type = ? OR event_type = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
}

func TestParseEventFilter_Not(t *testing.T) {
	cond, err := ParseEventFilter(`NOT actor_type = "system"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "NOT actor_type = ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
}

func TestParseEventFilter_SeqAndTimestamp(t *testing.T) {
	cond, err := ParseEventFilter(`seq >= 3`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "seq >= ?" || !reflect.DeepEqual(cond.Params, []any{int64(3)}) {
		t.Fatalf("cond = %+v", cond)
	}

	cond, err = ParseEventFilter(`ts > timestamp("2026-01-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cond.Clause != "timestamp > ?" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if !reflect.DeepEqual(cond.Params, []any{want}) {
		t.Fatalf("Params = %v, want [%d]", cond.Params, want)
	}
}

func TestParseEventFilter_Errors(t *testing.T) {
	for _, input := range []string{
		`session_id = "s-1"`,
		`type = `,
		`ts > timestamp("yesterday")`,
	} {
		if _, err := ParseEventFilter(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
