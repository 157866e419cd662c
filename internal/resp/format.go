package resp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format writes v the way redis-cli prints replies, one line per scalar
func Format(w io.Writer, v Value) error {
	for _, line := range formatLines(v) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatString returns the Format rendering of v without the trailing newline
func FormatString(v Value) string {
	return strings.Join(formatLines(v), "\n")
}

func formatLines(v Value) []string {
	switch v.Type {
	case TypeSimpleString:
		return []string{string(v.String)}
	case TypeError:
		return []string{"(error) " + string(v.String)}
	case TypeInteger:
		return []string{"(integer) " + strconv.FormatInt(v.Integer, 10)}
	case TypeBulkString:
		if v.IsNull {
			return []string{"(nil)"}
		}
		return []string{strconv.Quote(string(v.String))}
	case TypeArray:
		if v.IsNull {
			return []string{"(nil)"}
		}
		if len(v.Array) == 0 {
			return []string{"(empty array)"}
		}
		return formatArray(v.Array)
	}
	return []string{fmt.Sprintf("(unknown %q)", v.Type)}
}

// formatArray numbers the elements and indents nested lines under their label
func formatArray(elems []Value) []string {
	width := len(strconv.Itoa(len(elems)))
	pad := strings.Repeat(" ", width+2)

	var out []string
	for i, el := range elems {
		label := fmt.Sprintf("%*d) ", width, i+1)
		for j, line := range formatLines(el) {
			if j == 0 {
				out = append(out, label+line)
			} else {
				out = append(out, pad+line)
			}
		}
	}
	return out
}
