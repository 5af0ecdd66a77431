package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"truck-scraper/scraper"
)

// TerminalPrompter asks the operator to log in using the visible browser
// and waits for Enter.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

var _ scraper.LoginPrompter = (*TerminalPrompter)(nil)

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

func (p *TerminalPrompter) WaitForLogin(ctx context.Context, siteURL string) error {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "A browser window is open at %s\n", siteURL)
	fmt.Fprintln(p.out, "Log in there (including any two-factor step), then press Enter here.")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(p.in).ReadString('\n')
		if err == io.EOF {
			err = fmt.Errorf("no input: %w", err)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
