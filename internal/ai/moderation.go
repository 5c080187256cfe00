// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ModerationResult is the outcome of a content safety check.
type ModerationResult struct {
	Safe       bool
	Categories []string
}

// Moderator screens reader-submitted comments before they reach the
// moderation queue. A flagged comment is stored as spam rather than
// pending so editors never see it by default.
type Moderator interface {
	Check(ctx context.Context, text string) (ModerationResult, error)
}

// openAIModerator implements Moderator using the OpenAI moderations API.
type openAIModerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewModerator returns an OpenAI-backed moderator, or nil when no API key
// is configured. Callers must treat a nil Moderator as "always safe".
func NewModerator(cfg ProviderConfig) Moderator {
	if cfg.APIKey == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIModerator{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *openAIModerator) Check(ctx context.Context, text string) (ModerationResult, error) {
	payload, err := json.Marshal(map[string]string{
		"model": "omni-moderation-latest",
		"input": text,
	})
	if err != nil {
		return ModerationResult{}, fmt.Errorf("moderation marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/moderations", bytes.NewReader(payload))
	if err != nil {
		return ModerationResult{}, fmt.Errorf("moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return ModerationResult{}, fmt.Errorf("moderation http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ModerationResult{}, fmt.Errorf("moderation read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ModerationResult{}, fmt.Errorf("moderation API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result moderationResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return ModerationResult{}, fmt.Errorf("moderation unmarshal: %w", err)
	}

	if len(result.Results) == 0 {
		return ModerationResult{}, fmt.Errorf("moderation: empty results")
	}

	r := result.Results[0]
	out := ModerationResult{Safe: !r.Flagged}
	for category, flagged := range r.Categories {
		if flagged {
			out.Categories = append(out.Categories, category)
		}
	}
	return out, nil
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}
