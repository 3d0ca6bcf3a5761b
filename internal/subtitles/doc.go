// Package subtitles parses SRT caption files into blocks and translates them
// block by block.
//
// Index and timing lines are carried through untouched; only the text lines of
// a block are joined and handed to the caller's translate function. A failed
// block keeps its original text.
package subtitles
