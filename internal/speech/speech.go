// Package speech holds the narrow interfaces to the voice collaborators.
// The core only consumes their results; synthesis and recognition stay
// outside the state machine.
package speech

import "context"

type Voice struct {
	Name         string `json:"name"`
	LanguageCode string `json:"languageCode"`
	Gender       string `json:"gender"`
}

// Synthesizer turns question text into audio for playback on the host
// device.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Voices(ctx context.Context) ([]Voice, error)
}
