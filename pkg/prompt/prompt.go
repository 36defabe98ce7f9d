// Package prompt asks the user yes or no questions on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/buger/goterm"

	"github.com/sidkik/mcsync/pkg/errors"
)

// Prompter reads answers from `in` and writes questions to `out`.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// YesOrNo asks `question` until the user answers yes or no.
func (p *Prompter) YesOrNo(question string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s (y/n) ", question)
		line, err := p.in.ReadString('\n')

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if err != nil {
			fmt.Fprintln(p.out)
			return false, errors.WithContext(err, "read answer")
		}
		fmt.Fprintln(p.out, goterm.Color("Please give a valid response", goterm.YELLOW))
	}
}

// Phrase returns the question asked in the given round of an escalating
// confirmation, starting from 1: "are you really sure?", then
// "are you really really sure?", and so on.
func Phrase(round int) string {
	if round < 1 {
		round = 1
	}
	return "are you " + strings.Repeat("really ", round) + "sure?"
}

// Escalate asks Phrase(1) through Phrase(rounds), and returns false as soon
// as one is declined.
func (p *Prompter) Escalate(rounds int) (bool, error) {
	for round := 1; round <= rounds; round++ {
		ok, err := p.YesOrNo(Phrase(round))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Confirm asks `question`, followed by `rounds` escalating confirmations.
func (p *Prompter) Confirm(question string, rounds int) (bool, error) {
	ok, err := p.YesOrNo(question)
	if err != nil || !ok {
		return false, err
	}
	return p.Escalate(rounds)
}
