// Package papertext parses plain-text objective exam papers into structured
// questions. The grammar is line oriented and forgiving: malformed input
// produces a best-effort question list instead of an error, and the approval
// step's mark-cap check catches papers that parsed badly.
package papertext

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Question is one parsed question with its lettered options.
type Question struct {
	Number  int
	Text    string
	Options map[string]string // "A".."E"
}

var (
	questionRe = regexp.MustCompile(`^(\d+)[.)]\s*(.+)$`)
	optionRe   = regexp.MustCompile(`^([A-Ea-e])[.)]\s*(.+)$`)
)

// Parse scans the paper source in a single greedy pass.
//
// A line matching `^\d+[.)]` starts a new question and flushes the previous
// one. A line matching `^[A-Ea-e][.)]` records that option letter, but only
// while inside a question. Any other non-blank line is a continuation: it is
// space-joined onto the last-seen option if the current question has one,
// otherwise onto the question text. Blank lines are skipped and end of input
// flushes the final question. There is no backtracking, so a stray option
// line before the first question is dropped and ambiguous continuations
// attach to the nearest preceding field.
func Parse(source string) []Question {
	var (
		questions  []Question
		current    *Question
		lastOption string
	)

	flush := func() {
		if current != nil {
			questions = append(questions, *current)
			current = nil
			lastOption = ""
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := questionRe.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			current = &Question{
				Number:  number,
				Text:    strings.TrimSpace(m[2]),
				Options: map[string]string{},
			}
			continue
		}

		if m := optionRe.FindStringSubmatch(line); m != nil && current != nil {
			letter := strings.ToUpper(m[1])
			current.Options[letter] = strings.TrimSpace(m[2])
			lastOption = letter
			continue
		}

		if current == nil {
			// Text before the first question line has nowhere to go.
			continue
		}
		if lastOption != "" {
			current.Options[lastOption] += " " + line
		} else {
			current.Text += " " + line
		}
	}
	flush()

	return questions
}
