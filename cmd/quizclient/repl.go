package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/result"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

const help = `commands:
  a | b | c | d     select an answer
  n, next           next question
  p, prev           previous question
  s, submit         submit the quiz
  r, restart        start over after a result
  q, quit           leave (an unsubmitted session is discarded)`

type repl struct {
	r   *session.Runner
	out io.Writer

	confirming bool
	submitting bool
	submitErrs chan error
}

// run drives r from line commands on in until quit, EOF or ctx is done.
// All output happens on the calling goroutine.
func run(ctx context.Context, r *session.Runner, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-r.Done()
	}()

	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	s, err := r.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, session.ErrStopped) {
			err = <-errc
		}
		if errors.Is(err, session.ErrCatalogUnavailable) {
			fmt.Fprintln(out, "No quiz is available for this material yet.")
		}
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	p := &repl{r: r, out: out, submitErrs: make(chan error, 1)}
	fmt.Fprintf(out, "%d questions, %s on the clock. Type 'help' for commands.\n", len(s.Questions), clock(s.Countdown))
	p.show(s)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case err := <-p.submitErrs:
			if !errors.Is(err, session.ErrAlreadySubmitting) {
				p.submitting = false
				fmt.Fprintf(out, "Submit failed: %v\n", err)
			}
		case s := <-r.Completed():
			p.submitting = false
			p.confirming = false
			printResult(out, s.Result)
		case line, ok := <-lines:
			if !ok {
				return p.drain(ctx)
			}
			if quit := p.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// drain waits for an in-flight submission so its result is not lost on EOF.
func (p *repl) drain(ctx context.Context) error {
	if !p.submitting {
		return nil
	}
	select {
	case s := <-p.r.Completed():
		printResult(p.out, s.Result)
		return nil
	case err := <-p.submitErrs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *repl) handle(ctx context.Context, line string) (quit bool) {
	cmd := strings.ToLower(strings.TrimSpace(line))

	if p.confirming {
		p.confirming = false
		if cmd == "y" || cmd == "yes" {
			p.submit(ctx)
		} else {
			fmt.Fprintln(p.out, "Submit cancelled.")
		}
		return false
	}

	switch cmd {
	case "a", "b", "c", "d":
		p.apply(p.r.Select(ctx, quiz.Label(strings.ToUpper(cmd))))
	case "n", "next":
		p.apply(p.r.Advance(ctx, session.Next))
	case "p", "prev":
		p.apply(p.r.Advance(ctx, session.Previous))
	case "s", "submit":
		s, err := p.r.Snapshot(ctx)
		if err != nil {
			p.fail(err)
			return false
		}
		if s.State == session.StateActive {
			if n := s.Unanswered(); n > 0 {
				p.confirming = true
				fmt.Fprintf(p.out, "%d of %d questions unanswered. Submit anyway? (y/n)\n", n, len(s.Questions))
				return false
			}
		}
		p.submit(ctx)
	case "r", "restart":
		p.apply(p.r.Restart(ctx))
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		fmt.Fprintln(p.out, help)
	case "":
		if s, err := p.r.Snapshot(ctx); err == nil {
			p.show(s)
		}
	default:
		fmt.Fprintf(p.out, "Unknown command %q. Type 'help'.\n", cmd)
	}
	return false
}

// submit grades off the loop; the result arrives on Completed.
func (p *repl) submit(ctx context.Context) {
	if p.submitting {
		return
	}
	p.submitting = true
	fmt.Fprintln(p.out, "Submitting...")
	go func() {
		if _, err := p.r.Submit(ctx); err != nil {
			p.submitErrs <- err
		}
	}()
}

func (p *repl) apply(s session.Session, err error) {
	if err != nil {
		p.fail(err)
		return
	}
	p.show(s)
}

func (p *repl) fail(err error) {
	switch {
	case errors.Is(err, session.ErrAlreadySubmitting):
		fmt.Fprintln(p.out, "Submitting...")
	case errors.Is(err, session.ErrInvalidState):
		fmt.Fprintln(p.out, "Not available right now.")
	case errors.Is(err, session.ErrCatalogUnavailable):
		fmt.Fprintln(p.out, "No quiz is available for this material.")
	default:
		fmt.Fprintf(p.out, "Error: %v\n", err)
	}
}

func (p *repl) show(s session.Session) {
	if s.State != session.StateActive {
		return
	}
	q := s.Current()
	sel, _ := s.Selected()
	fmt.Fprintf(p.out, "\n[%d/%d]  %s left  (%d answered)\n%s\n",
		s.Position+1, len(s.Questions), clock(s.Countdown), len(s.Answers), q.Text)
	for _, l := range quiz.Labels {
		mark := " "
		if l == sel {
			mark = "*"
		}
		fmt.Fprintf(p.out, " %s %s) %s\n", mark, l, q.Option(l))
	}
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func printResult(out io.Writer, r *result.Result) {
	if r == nil {
		return
	}
	fmt.Fprintf(out, "\nScore: %d%%  (%d of %d correct, %d answered)\n",
		r.Score, r.CorrectAnswers, r.TotalQuestions, r.AnsweredQuestions)
	for i, d := range r.Details {
		status := "wrong"
		switch {
		case d.IsCorrect:
			status = "right"
		case !d.Answered():
			status = "skipped"
		}
		fmt.Fprintf(out, "%2d. [%s] %s\n", i+1, status, d.Question)
		if d.Answered() {
			fmt.Fprintf(out, "    your answer: %s. %s\n", d.Selected, d.Feedback)
		} else {
			fmt.Fprintf(out, "    %s\n", d.Feedback)
		}
	}
	fmt.Fprintln(out, "Type 'restart' to try again or 'quit' to leave.")
}
