// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const yandexEndpoint = "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"

type YandexConfig struct {
	APIKey   string
	FolderID string
	Voice    string  // default: "john"
	Speed    float64 // default: 0.8
	Endpoint string
}

// Yandex synthesizes speech with Yandex SpeechKit.
type Yandex struct {
	cfg        YandexConfig
	httpClient *http.Client
}

// NewYandex returns nil, ErrNotConfigured when the API key or folder is missing.
func NewYandex(cfg YandexConfig) (*Yandex, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.FolderID = strings.TrimSpace(cfg.FolderID)
	if cfg.APIKey == "" || cfg.FolderID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Voice == "" {
		cfg.Voice = "john"
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 0.8
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = yandexEndpoint
	}
	return &Yandex{cfg: cfg, httpClient: &http.Client{}}, nil
}

func (y *Yandex) Name() string { return "yandex" }

func (y *Yandex) Synthesize(ctx context.Context, text string) ([]byte, error) {
	form := url.Values{
		"text":     {text},
		"voice":    {y.cfg.Voice},
		"folderId": {y.cfg.FolderID},
		"format":   {"mp3"},
		"speed":    {strconv.FormatFloat(y.cfg.Speed, 'f', -1, 64)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Api-Key "+y.cfg.APIKey)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return data, nil
}
