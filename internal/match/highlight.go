package match

import (
	"github.com/dlclark/regexp2"
)

// Marker is the pair of strings wrapped around each highlighted occurrence
type Marker struct {
	Open  string
	Close string
}

// DefaultMarker emphasizes matches with HTML-style bold tags
var DefaultMarker = Marker{Open: "<b>", Close: "</b>"}

// BoldMatchText wraps every case-insensitive occurrence of every query token
// in text with marker.
//
// Tokens are applied one after another over the text as rewritten by the
// previous tokens, so overlapping tokens can wrap already-marked text again
// (query "ap p" on "apple" nests a marker inside the "ap" one). Tokens can
// also match the marker text itself. Callers rendering the result must
// tolerate nested markers.
func BoldMatchText(text, query string, marker Marker) string {
	for _, token := range Tokens(query) {
		re, err := compileLiteral(token)
		if err != nil {
			continue
		}
		replaced, err := re.ReplaceFunc(text, func(m regexp2.Match) string {
			return marker.Open + m.String() + marker.Close
		}, -1, -1)
		if err != nil {
			continue
		}
		text = replaced
	}
	return text
}
