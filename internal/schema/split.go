package schema

// slot is one comma-separated element of a raw value, with its byte offset.
type slot struct {
	text  string
	start int
}

// splitValues splits raw on top-level commas. A comma inside a quoted span
// does not split; single and double quotes are treated alike, so a comma
// splits only when an even number of quote characters follows it.
func splitValues(raw string) []slot {
	after := 0
	for i := 0; i < len(raw); i++ {
		if isQuote(raw[i]) {
			after++
		}
	}

	var out []slot
	start := 0
	for i := 0; i < len(raw); i++ {
		switch {
		case isQuote(raw[i]):
			after--
		case raw[i] == ',' && after%2 == 0:
			out = append(out, slot{text: raw[start:i], start: start})
			start = i + 1
		}
	}
	return append(out, slot{text: raw[start:], start: start})
}

func isQuote(b byte) bool { return b == '"' || b == '\'' }
