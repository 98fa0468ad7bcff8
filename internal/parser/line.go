package parser

import (
	"encoding/csv"
	"strings"
)

// trySplitTypeLine reports whether line is a type marker. It scans left to
// right tracking quoted-field state (a doubled quote inside a quoted span is
// an escaped literal, not a closer) and takes the first recognized colon
// outside quotes as the delimiter. When an out-of-quote comma also occurs,
// the line only counts as a type marker if the remainder starts with a quote
// character; otherwise it is an ordinary CSV row that happens to contain a
// colon.
func trySplitTypeLine(line string, allowASCIIColon bool) (name, rest string, ok bool) {
	runes := []rune(line)
	inQuotes := false
	commaOutside := false
	colonIndex := -1

	for i := 0; i < len(runes); {
		ch := runes[i]
		if ch == '"' {
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				i += 2
				continue
			}
			inQuotes = !inQuotes
			i++
			continue
		}
		if !inQuotes {
			if ch == ',' {
				commaOutside = true
			}
			if colonIndex < 0 && (ch == '：' || (allowASCIIColon && ch == ':')) {
				colonIndex = i
			}
		}
		i++
	}

	if colonIndex < 0 {
		return "", "", false
	}

	name = strings.TrimSpace(string(runes[:colonIndex]))
	rest = strings.TrimSpace(string(runes[colonIndex+1:]))
	if commaOutside && !strings.HasPrefix(rest, `"`) {
		return "", "", false
	}
	return name, rest, true
}

// parseCSVLine parses one physical line with standard delimited-field
// semantics: comma separated, double-quote quoting, doubled quote as a
// literal quote. Fields are trimmed of surrounding whitespace. Malformed
// quoting returns ok=false; the caller records a warning and drops the line.
func parseCSVLine(raw string) ([]string, bool) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	record, err := reader.Read()
	if err != nil {
		return nil, false
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, true
}
