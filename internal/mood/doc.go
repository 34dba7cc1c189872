// Package mood scores the four mood categories from tempo, segment energy,
// and spectral summary statistics using a fixed rule table.
package mood
