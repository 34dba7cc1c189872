// Package lyrics normalizes externally transcribed, timestamped words and
// aligns them onto clip intervals.
package lyrics
