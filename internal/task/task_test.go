package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d != date(2024, time.February, 29) {
		t.Fatalf("ParseDate = %+v", d)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("String = %q", d.String())
	}

	empty, err := ParseDate("")
	if err != nil || !empty.IsZero() {
		t.Fatalf("ParseDate(\"\") = %+v, %v; want zero, nil", empty, err)
	}

	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatal("ParseDate accepted a non ISO date")
	}
}

func TestDate_JSON(t *testing.T) {
	fields := Fields{Text: "buy milk", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 6e6, time.UTC)}
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"deadline":null`) {
		t.Fatalf("zero deadline encoded as %s, want null", data)
	}

	var decoded Fields
	if err := json.Unmarshal([]byte(`{"text":"x","completed":true,"deadline":"2024-05-06","createdAt":"2024-01-02T03:04:05.006Z"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Deadline != date(2024, time.May, 6) || !decoded.Completed {
		t.Fatalf("decoded = %+v", decoded)
	}
	if !decoded.CreatedAt.Equal(fields.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", decoded.CreatedAt, fields.CreatedAt)
	}
}

func TestPatch_JSONOnlySetFields(t *testing.T) {
	done := true
	data, err := json.Marshal(Patch{Completed: &done})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"completed":true}` {
		t.Fatalf("patch json = %s", data)
	}

	none := Date{}
	data, err = json.Marshal(Patch{Deadline: &none})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"deadline":null}` {
		t.Fatalf("patch json = %s", data)
	}

	var p Patch
	if err := json.Unmarshal([]byte(`{"text":"new","deadline":null}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Text == nil || *p.Text != "new" || p.Deadline == nil || !p.Deadline.IsZero() || p.Completed != nil {
		t.Fatalf("decoded patch = %+v", p)
	}
	if got := p.FieldPaths(); len(got) != 2 || got[0] != "text" || got[1] != "deadline" {
		t.Fatalf("FieldPaths = %v", got)
	}

	if err := json.Unmarshal([]byte(`{"txet":"oops"}`), &p); err == nil {
		t.Fatal("Unmarshal accepted unknown field")
	}
}

func TestPatch_Apply(t *testing.T) {
	base := Fields{Text: "a", Deadline: date(2024, time.June, 1)}
	text := "b"
	none := Date{}
	got := Patch{Text: &text, Deadline: &none}.Apply(base)
	if got.Text != "b" || !got.Deadline.IsZero() || got.Completed {
		t.Fatalf("Apply = %+v", got)
	}
	if !(Patch{}).IsEmpty() {
		t.Fatal("empty patch reported non-empty")
	}
}
