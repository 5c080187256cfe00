package normalize

import (
	"testing"
	"time"
)

func TestTimeRoundTrip(t *testing.T) {
	orig := NewTime(time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.FixedZone("CET", 3600)))

	data, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `"2026-03-14T08:26:53Z"`; got != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}

	var back Time
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(orig) {
		t.Errorf("round-trip changed value: %v != %v", back, orig)
	}
}

func TestTimeDropsSubSecond(t *testing.T) {
	a := NewTime(time.Date(2026, 1, 1, 12, 0, 0, 1, time.UTC))
	b := NewTime(time.Date(2026, 1, 1, 12, 0, 0, 999999999, time.UTC))
	if !a.Equal(b) {
		t.Error("timestamps differing only below the second should be equal")
	}
}

func TestTimeLexicalOrderMatchesChronological(t *testing.T) {
	// The store compares stored timestamps as strings, so the encoded
	// form must sort the same way the instants do.
	times := []time.Time{
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 1, 0, time.UTC),
		time.Date(2026, 11, 30, 8, 15, 0, 0, time.UTC),
	}
	var prev string
	for i, tm := range times {
		data, err := NewTime(tm).MarshalJSON()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if i > 0 && string(data) <= prev {
			t.Errorf("encoded %s does not sort after %s", data, prev)
		}
		prev = string(data)
	}
}

func TestTimeUnmarshalAcceptsOffsets(t *testing.T) {
	var tt Time
	if err := tt.UnmarshalJSON([]byte(`"2026-06-01T14:30:00+02:00"`)); err != nil {
		t.Fatalf("unmarshal offset form: %v", err)
	}
	want := NewTime(time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC))
	if !tt.Equal(want) {
		t.Errorf("got %v, want %v", tt, want)
	}

	if err := tt.UnmarshalJSON([]byte(`not json`)); err == nil {
		t.Error("expected error for unquoted input")
	}
}

func TestToDocStripsEmpty(t *testing.T) {
	type inner struct {
		Note string `json:"note,omitempty"`
	}
	type payload struct {
		Name  string         `json:"name"`
		Blank string         `json:"blank"`
		Count int            `json:"count"`
		Tags  []string       `json:"tags"`
		Meta  map[string]any `json:"meta"`
		Inner inner          `json:"inner"`
		Ptr   *inner         `json:"ptr"`
	}

	doc, err := ToDoc(payload{Name: "lyon", Tags: []string{}, Meta: map[string]any{}})
	if err != nil {
		t.Fatalf("ToDoc: %v", err)
	}

	// Empty strings and zero numbers survive; nils, empty maps and empty
	// slices do not.
	if doc["name"] != "lyon" {
		t.Errorf("name = %v", doc["name"])
	}
	if v, ok := doc["blank"]; !ok || v != "" {
		t.Errorf("blank string should be kept, got %v (present=%v)", v, ok)
	}
	if v, ok := doc["count"]; !ok || v != float64(0) {
		t.Errorf("zero count should be kept, got %v (present=%v)", v, ok)
	}
	for _, key := range []string{"tags", "meta", "inner", "ptr"} {
		if _, ok := doc[key]; ok {
			t.Errorf("%s should have been stripped", key)
		}
	}
}

func TestFromDocRoundTrip(t *testing.T) {
	type payload struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags,omitempty"`
		Views int      `json:"views"`
	}

	doc, err := ToDoc(payload{Title: "Vieux Lyon", Tags: []string{"a", "b"}, Views: 7})
	if err != nil {
		t.Fatalf("ToDoc: %v", err)
	}

	var back payload
	if err := FromDoc(doc, &back); err != nil {
		t.Fatalf("FromDoc: %v", err)
	}
	if back.Title != "Vieux Lyon" || back.Views != 7 || len(back.Tags) != 2 {
		t.Errorf("round-trip mismatch: %+v", back)
	}
}
