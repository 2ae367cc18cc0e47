package web

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/R0KG/price-updater/scan"
)

// renderSummary builds a Markdown report of the scan and converts it to
// HTML for the review page.
func renderSummary(occs []scan.Occurrence, markup float64) template.HTML {
	var md strings.Builder
	if len(occs) == 0 {
		md.WriteString("## No prices found\n\n")
		md.WriteString("The catalog contains no recognizable price tokens. ")
		md.WriteString("Nothing will be changed on generation.\n")
	} else {
		pages := map[int]bool{}
		for _, occ := range occs {
			pages[occ.PageIndex] = true
		}
		fmt.Fprintf(&md, "## Detected %d price(s) on %d page(s)\n\n", len(occs), len(pages))
		fmt.Fprintf(&md, "- default markup: **%.1f%%**\n", markup)
		fmt.Fprintf(&md, "- edit any value below, or leave a row unchanged to keep the original\n")
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md.String()))
	}
	return template.HTML(buf.String())
}
