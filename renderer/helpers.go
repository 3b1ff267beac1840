package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// cell escapes the characters that would break a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// orDash returns "-" for an empty string.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// tableHeader prints a markdown table header, the alignment of each column
// is given by the first character of its name: '<' left, '>' right.
func tableHeader(w io.Writer, columns ...string) {
	var names, rules []string
	for _, s := range columns {
		align, name := s[0], s[1:]
		names = append(names, name)
		if align == '>' {
			rules = append(rules, "---:")
		} else {
			rules = append(rules, ":---")
		}
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(names, " | "))
	fmt.Fprintf(w, "|%s|\n", strings.Join(rules, "|"))
}

// tableRow prints a markdown table row.
func tableRow(w io.Writer, cells ...string) {
	for i := range cells {
		cells[i] = cell(cells[i])
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}
