// Package tts synthesizes audio for imported notes through an Azure-style
// speech endpoint and attaches sound markers to the notes' fields.
package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deckfile/deckfile/internal/config"
)

// MediaFileName derives the deterministic media file name for one
// voice/text pair, so regenerating the same content is a no-op.
func MediaFileName(voice, text string) string {
	sum := md5.Sum([]byte(voice + "|" + text))
	return fmt.Sprintf("tts_%x.mp3", sum)
}

// Client calls the speech synthesis endpoint.
type Client struct {
	settings   config.TTSSettings
	httpClient *http.Client
}

// NewClient creates a synthesis client from the TTS settings.
func NewClient(settings config.TTSSettings) *Client {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize renders the text with the given voice and returns the audio
// bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if c.settings.BaseURL == "" {
		return nil, fmt.Errorf("tts: base_url is not configured")
	}

	body := c.buildSSML(text, voice)
	url := strings.TrimSuffix(c.settings.BaseURL, "/") + c.settings.SynthesizePath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.settings.OutputFormat)
	if c.settings.SubscriptionKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.settings.SubscriptionKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: synthesis request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: synthesis returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: failed to read audio body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts: synthesis returned empty audio")
	}
	return audio, nil
}

// buildSSML substitutes the named placeholders of the configured template.
func (c *Client) buildSSML(text, voice string) string {
	replacer := strings.NewReplacer(
		"{lang}", c.settings.Lang,
		"{voice_name}", voice,
		"{rate}", c.settings.Rate,
		"{text}", escapeXML(text),
	)
	return replacer.Replace(c.settings.SSMLTemplate)
}

func escapeXML(text string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(text)
}
