package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TitleSource supplies titles typed by an operator when automated listing
// extraction comes up short. io.EOF means no more answers will come.
type TitleSource interface {
	Prompt(slot int) (string, error)
}

// StdinSource prompts on out and reads one line per slot from in
type StdinSource struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinSource creates a line-oriented prompt source
func NewStdinSource(in io.Reader, out io.Writer) *StdinSource {
	return &StdinSource{in: bufio.NewReader(in), out: out}
}

// Prompt asks for title number slot and returns the trimmed answer
func (s *StdinSource) Prompt(slot int) (string, error) {
	fmt.Fprintf(s.out, "Enter movie #%d: ", slot)

	line, err := s.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// FixedSource answers prompts from a fixed list, then reports io.EOF
type FixedSource struct {
	answers []string
	next    int
}

// NewFixedSource creates a source that replays answers in order
func NewFixedSource(answers ...string) *FixedSource {
	return &FixedSource{answers: answers}
}

// Prompt returns the next canned answer
func (f *FixedSource) Prompt(int) (string, error) {
	if f.next >= len(f.answers) {
		return "", io.EOF
	}
	answer := f.answers[f.next]
	f.next++
	return strings.TrimSpace(answer), nil
}

type noInput struct{}

func (noInput) Prompt(int) (string, error) { return "", io.EOF }

// NoInput is a TitleSource for unattended runs
var NoInput TitleSource = noInput{}
