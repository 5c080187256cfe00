package ai

import "testing"

func TestParseJSONStripsFences(t *testing.T) {
	var out struct {
		Title string `json:"title"`
	}

	inputs := []string{
		`{"title": "ok"}`,
		"```json\n{\"title\": \"ok\"}\n```",
		"```\n{\"title\": \"ok\"}\n```",
		"  \n{\"title\": \"ok\"}\n  ",
	}
	for _, in := range inputs {
		out.Title = ""
		if err := parseJSON(in, &out); err != nil {
			t.Errorf("parseJSON(%q): %v", in, err)
			continue
		}
		if out.Title != "ok" {
			t.Errorf("parseJSON(%q) title = %q", in, out.Title)
		}
	}

	if err := parseJSON("the model rambled instead", &out); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
