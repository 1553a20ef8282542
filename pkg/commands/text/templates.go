// Package text provides text formatting utilities for CLI commands.
package text

import (
	"strings"
)

// Indentation is the standard indentation for CLI help text.
const Indentation = `  `

// LongDesc normalizes a command's long description: surrounding blank lines are dropped and the
// indentation shared by every line is removed, so descriptions can be written as indented raw
// strings.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}

	return strings.Join(dedent(lines(s)), "\n")
}

// Examples normalizes a command's examples like LongDesc and indents every line.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}

	out := dedent(lines(s))
	for i, line := range out {
		if line != "" {
			out[i] = Indentation + line
		}
	}

	return strings.Join(out, "\n")
}

// lines splits s into lines without the leading and trailing blank lines.
func lines(s string) []string {
	all := strings.Split(strings.TrimRight(s, " \t\n"), "\n")
	for len(all) > 0 && strings.TrimSpace(all[0]) == "" {
		all = all[1:]
	}

	return all
}

// dedent removes the longest whitespace prefix shared by every non-blank line and the trailing
// whitespace of each line.
func dedent(in []string) []string {
	prefix := ""
	first := true
	for _, line := range in {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	out := make([]string, len(in))
	for i, line := range in {
		out[i] = strings.TrimRight(strings.TrimPrefix(line, prefix), " \t")
	}

	return out
}
