// Package google is a thin client for the Google Cloud Text-to-Speech REST
// API.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mimirquiz/mimir/internal/speech"
)

type Client struct {
	APIKey  string
	BaseURL string
	http    *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://texttospeech.googleapis.com"
	}
	return &Client{APIKey: apiKey, BaseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 20 * time.Second}}
}

func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, errors.New("missing TTS_API_KEY")
	}
	if voice == "" {
		voice = "en-US-Neural2-D"
	}
	languageCode := voice
	if parts := strings.SplitN(voice, "-", 3); len(parts) >= 2 {
		languageCode = parts[0] + "-" + parts[1]
	}

	payload := map[string]any{
		"input": map[string]string{"text": text},
		"voice": map[string]string{
			"languageCode": languageCode,
			"name":         voice,
		},
		"audioConfig": map[string]string{"audioEncoding": "MP3"},
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/text:synthesize?key="+c.APIKey, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("tts status %d", resp.StatusCode)
	}
	var out struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.AudioContent == "" {
		return nil, errors.New("no audio content")
	}
	return base64.StdEncoding.DecodeString(out.AudioContent)
}

func (c *Client) Voices(ctx context.Context) ([]speech.Voice, error) {
	if c.APIKey == "" {
		return nil, errors.New("missing TTS_API_KEY")
	}
	req, _ := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/voices?key="+c.APIKey, nil)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("tts status %d", resp.StatusCode)
	}
	var out struct {
		Voices []struct {
			Name          string   `json:"name"`
			LanguageCodes []string `json:"languageCodes"`
			SSMLGender    string   `json:"ssmlGender"`
		} `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	voices := make([]speech.Voice, 0, len(out.Voices))
	for _, v := range out.Voices {
		lang := ""
		if len(v.LanguageCodes) > 0 {
			lang = v.LanguageCodes[0]
		}
		voices = append(voices, speech.Voice{Name: v.Name, LanguageCode: lang, Gender: v.SSMLGender})
	}
	return voices, nil
}
