//go:build !portaudio

package capture

import "fmt"

func newPortAudioBackend() (Capturer, error) {
	return nil, fmt.Errorf("%w: portaudio support not built in, rebuild with -tags portaudio", ErrUnknownBackend)
}
