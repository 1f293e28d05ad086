package render

import "errors"

// ErrPlaybackUnavailable is returned by Play in builds without audio output.
var ErrPlaybackUnavailable = errors.New("live playback not available: rebuild with -tags portaudio")

// playbackBufferFrames is the number of frames handed to the device per write.
const playbackBufferFrames = 512
