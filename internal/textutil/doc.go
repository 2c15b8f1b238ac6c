// Package textutil provides the text normalization and lexical comparison used
// to recognise the same words transcribed twice at a chunk seam.
//
// Normalize relies on golang.org/x/text for Unicode decomposition and case
// folding, so accented and differently-cased transcriptions of the same word
// compare equal. Compare grades a pair of texts as exact, containment or
// partial word overlap.
package textutil
