// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseJSON unmarshals an LLM response into v. Models wrap JSON in
// markdown code fences often enough that we strip them first, even when
// the request asked for a bare JSON object.
func parseJSON(response string, v any) error {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse ai response: %w", err)
	}
	return nil
}
