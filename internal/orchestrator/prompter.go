package orchestrator

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type stdioPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdioPrompter returns a Prompter that asks on out and reads a
// y/N answer from in.
func NewStdioPrompter(in io.Reader, out io.Writer) Prompter {
	return &stdioPrompter{in: bufio.NewReader(in), out: out}
}

func (p *stdioPrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
