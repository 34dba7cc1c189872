// Command clipsync analyzes audio tracks into beat grids, song structure,
// mood, and beat-aligned clip boundaries for music video assembly.
//
// Usage:
//
//	clipsync analyze song.wav --breakpoints 32.5,64 --words words.json
//	clipsync analyze *.wav --json
//	clipsync cache stats
//	clipsync config init
//	clipsync doctor
package main
