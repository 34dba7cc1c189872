// Package audio turns caller supplied byte buffers into mono float samples.
//
// RIFF/WAVE input is decoded in process with go-audio. Other containers are
// piped through ffmpeg when a Decoder is configured to allow it.
package audio
