// Package querytext pulls the sentence of interest out of text pasted into the
// submission form and normalizes it into the key used across every table.
//
// Pasted text comes in three shapes. Rater exports carry a fixed header block
// followed by the sentence and a triple line break. Review exports quote the
// sentence between a start phrase and an end phrase. Anything else is taken
// verbatim.
package querytext
