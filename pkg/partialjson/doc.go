// Package partialjson turns a prefix of a JSON document into the value the
// complete document is converging toward.
//
// It is meant to be called on the whole accumulated text of a token stream at
// every chunk boundary:
//
//	buf.WriteString(chunk)
//	if v, ok := partialjson.Parse(buf.String()); ok {
//	    frame = v
//	}
//
// Unterminated strings are closed, open objects and arrays are balanced, and
// members that are still being typed (a key without a value, a half-written
// number or literal, a trailing comma) are dropped. Values are never guessed.
// A markdown code fence around the document is ignored.
package partialjson
