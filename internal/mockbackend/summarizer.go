package mockbackend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Summarizer produces the markdown summary of an uploaded lecture file.
type Summarizer interface {
	Summarize(ctx context.Context, lectureName string, content []byte) (string, error)
}

// ExtractiveSummarizer builds a bullet list from the first readable lines
// of the file. Binary documents usually yield nothing readable, in which
// case a placeholder body is returned.
type ExtractiveSummarizer struct {
	MaxBullets int
}

func (s ExtractiveSummarizer) Summarize(ctx context.Context, lectureName string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	limit := s.MaxBullets
	if limit <= 0 {
		limit = 5
	}

	var bullets []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() && len(bullets) < limit {
		line := strings.TrimSpace(sc.Text())
		if readable(line) {
			bullets = append(bullets, truncateString(line, 200))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", lectureName)
	if len(bullets) == 0 {
		b.WriteString("_No extractable text in the uploaded file._\n")
		return b.String(), nil
	}
	b.WriteString("Key points:\n\n")
	for _, line := range bullets {
		b.WriteString("- " + line + "\n")
	}
	return b.String(), nil
}

// readable accepts valid UTF-8 lines that are mostly letters and spaces.
func readable(line string) bool {
	if len(line) < 3 || !utf8.ValidString(line) {
		return false
	}
	letters, total := 0, 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			letters++
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return letters*10 >= total*7
}

func truncateString(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "..."
}
