package stopwords

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

const fileExt = ".txt"

// ParseWords reads a stopword list. Blank lines, lines starting with
// whitespace and lines starting with '|' are skipped; every other line
// contributes its first whitespace-delimited token, lower-cased. Order is
// kept and duplicates are not removed. A read error ends the list early
// without being reported.
func ParseWords(r io.Reader, logger *slog.Logger) []string {
	words := make([]string, 0, 128)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if skipLine(line) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		words = append(words, strings.TrimSpace(strings.ToLower(fields[0])))
	}
	if err := scanner.Err(); err != nil && logger != nil {
		logger.Warn("stopword list truncated by read error", "words", len(words), "error", err)
	}
	return words
}

func skipLine(line string) bool {
	if line == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(line)
	return first == '|' || unicode.IsSpace(first)
}
