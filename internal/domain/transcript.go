package domain

// AudioFormat is the container of a recorded call.
type AudioFormat string

const (
	AudioFormatWebM AudioFormat = "webm"
	AudioFormatM4A  AudioFormat = "m4a"
)

func (f AudioFormat) Supported() bool {
	return f == AudioFormatWebM || f == AudioFormatM4A
}

// MimeType returns the content type sent to recognizers.
func (f AudioFormat) MimeType() string {
	if f == AudioFormatWebM {
		return "audio/webm"
	}
	return "audio/m4a"
}

// TranscriptSegment is one recognised chunk, in service order.
// Confidence is nil when the provider does not report one.
type TranscriptSegment struct {
	Text       string
	Confidence *float32
}
