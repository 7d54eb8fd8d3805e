package isp

import (
	"bytes"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var vendorPrefixes = [][]byte{
	[]byte("-webkit-"),
	[]byte("-moz-"),
	[]byte("-ms-"),
	[]byte("-o-"),
}

var importKeyword = []byte("@import")

func scanTokens(src []byte, fn func(tt css.TokenType, data []byte)) error {
	l := css.NewLexer(parse.NewInput(bytes.NewReader(src)))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		}
		fn(tt, data)
	}
}

// CountImports returns the number of @import at-rules in src. Occurrences
// inside strings and comments are not counted.
func CountImports(src []byte) int {
	n := 0
	_ = scanTokens(src, func(tt css.TokenType, data []byte) {
		if tt == css.AtKeywordToken && bytes.EqualFold(data, importKeyword) {
			n++
		}
	})
	return n
}

// CountVendorPrefixes returns the number of vendor-prefixed identifiers,
// functions and at-rules in src (e.g. -webkit-user-select,
// -moz-linear-gradient(, @-webkit-keyframes).
func CountVendorPrefixes(src []byte) int {
	n := 0
	_ = scanTokens(src, func(tt css.TokenType, data []byte) {
		switch tt {
		case css.AtKeywordToken:
			data = data[1:]
		case css.IdentToken, css.FunctionToken:
		default:
			return
		}
		if hasVendorPrefix(data) {
			n++
		}
	})
	return n
}

func hasVendorPrefix(ident []byte) bool {
	lower := bytes.ToLower(ident)
	for _, p := range vendorPrefixes {
		if bytes.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
