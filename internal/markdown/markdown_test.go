// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	html, err := ToHTML("## Les bouchons lyonnais\n\nUn **classique** de la ville.")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(html, `<h2 id="les-bouchons-lyonnais">`) {
		t.Errorf("missing heading with auto id: %s", html)
	}
	if !strings.Contains(html, "<strong>classique</strong>") {
		t.Errorf("missing bold rendering: %s", html)
	}
}

func TestToHTMLPassesRawHTML(t *testing.T) {
	// Legacy articles imported from the previous site contain raw HTML.
	html, err := ToHTML(`<div class="encart">Infos pratiques</div>`)
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(html, `<div class="encart">`) {
		t.Errorf("raw HTML was escaped: %s", html)
	}
}

func TestToHTMLTables(t *testing.T) {
	html, err := ToHTML("| Quartier | Arrondissement |\n|---|---|\n| Croix-Rousse | 4e |")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "Croix-Rousse") {
		t.Errorf("table not rendered: %s", html)
	}
}
