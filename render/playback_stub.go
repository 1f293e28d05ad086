//go:build !portaudio

package render

import "context"

// PlaybackAvailable reports whether this build can play to an audio device.
const PlaybackAvailable = false

// Play always fails with ErrPlaybackUnavailable in builds without the
// portaudio tag.
func Play(ctx context.Context, r *Renderer, frames int) error {
	return ErrPlaybackUnavailable
}
