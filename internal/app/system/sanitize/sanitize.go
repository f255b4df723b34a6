// Package sanitize strips hostile markup from user-supplied text before it is
// stored. Knowledge base content may carry basic formatting; everything else
// is treated as plain text.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Text removes all HTML, leaving plain text. Use for titles, remarks,
// purposes, and other single-line fields.
func Text(s string) string {
	return strict.Sanitize(s)
}

// Rich keeps user-generic formatting (paragraphs, emphasis, safe links) and
// removes scripts and event handlers. Use for knowledge base content and long
// narrative fields.
func Rich(s string) string {
	return ugc.Sanitize(s)
}
