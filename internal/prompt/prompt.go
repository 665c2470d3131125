// Package prompt asks yes/no questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const retryMessage = "Please respond with either Y or N!"

var answerPattern = regexp.MustCompile(`[yYnN]`)

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// New returns a Prompter. With assumeYes every question is answered Y
// without reading input.
func New(in io.Reader, out io.Writer, assumeYes bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Match returns the first y or n in answer, upper-cased, and whether one
// was found.
func Match(answer string) (string, bool) {
	m := answerPattern.FindString(answer)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// Confirm asks question until the answer contains a y or an n. It returns
// io.ErrUnexpectedEOF when input ends first.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.assumeYes {
		fmt.Fprintf(p.out, "%s [Y/N] Y\n", question)
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [Y/N] ", question)
	for {
		line, err := p.in.ReadString('\n')
		if answer, ok := Match(line); ok {
			return answer == "Y", nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, io.ErrUnexpectedEOF
			}
			return false, err
		}
		fmt.Fprintf(p.out, "%s ", retryMessage)
	}
}
