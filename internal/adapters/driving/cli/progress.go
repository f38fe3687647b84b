package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/events"
)

// eventPrinter renders job events as terminal output. On an interactive
// terminal, page progress rewrites a single status line.
type eventPrinter struct {
	out         io.Writer
	interactive bool
	statusLine  bool
	streaming   bool
}

func newEventPrinter(out io.Writer) *eventPrinter {
	return &eventPrinter{out: out, interactive: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *eventPrinter) print(ev domain.Event) {
	switch ev.Type {
	case domain.EventLog:
		p.line("%s", ev.Message)

	case domain.EventProgress:
		if p.interactive {
			fmt.Fprintf(p.out, "\r\033[KProcessing %s (%d/%d), page %d",
				ev.Document, ev.DocIndex, ev.DocTotal, ev.Page)
			p.statusLine = true
		}

	case domain.EventDocument:
		p.line("Processed %s (%d/%d): %d chunks", ev.Document, ev.DocIndex, ev.DocTotal, ev.Chunks)

	case domain.EventSkip, domain.EventWarning:
		p.line("Warning: %s", ev.Message)

	case domain.EventToken:
		p.clearStatus()
		fmt.Fprint(p.out, ev.Token)
		p.streaming = true

	case domain.EventSummary:
		s := ev.Summary
		p.line("Indexed %d chunks from %d pages into %s (%d skipped)",
			s.TotalChunks, s.PagesSeen, s.Collection, s.Skipped)
		if s.Fallbacks > 0 {
			p.line("Warning: %d chunks were stored with zero vectors and will not match queries", s.Fallbacks)
		}

	case domain.EventAnswer:
		if ev.Answer.NoRelevantInfo {
			return
		}
		p.endStream()
		if len(ev.Answer.Sources) > 0 {
			p.line("")
			p.line("Sources:")
			for _, l := range ev.Answer.SourceLines() {
				p.line("%s", l)
			}
		}

	case domain.EventError:
		p.line("Error: %s", ev.Message)

	case domain.EventState:
		if ev.State == domain.StateCancelled {
			p.line("Cancelled.")
		}
	}
}

// line writes a full line, first ending any status line or token stream.
func (p *eventPrinter) line(format string, args ...any) {
	p.clearStatus()
	p.endStream()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *eventPrinter) clearStatus() {
	if p.statusLine {
		fmt.Fprint(p.out, "\r\033[K")
		p.statusLine = false
	}
}

func (p *eventPrinter) endStream() {
	if p.streaming {
		fmt.Fprintln(p.out)
		p.streaming = false
	}
}

// jobResult collects what a job reported.
type jobResult struct {
	State   domain.JobState
	Err     error
	Summary *domain.IngestionSummary
	Answer  *domain.Answer
}

// follow polls sub until job id reaches a terminal state, passing each of
// its events to fn. Polling outlives ctx so a cancelled job still reports
// its terminal state.
func follow(ctx context.Context, sub driving.EventSubscription, id string, fn func(domain.Event)) (jobResult, error) {
	var res jobResult
	err := sub.Poll(context.WithoutCancel(ctx), events.DefaultPollInterval, func(batch []domain.Event) bool {
		for _, ev := range batch {
			if ev.JobID != id {
				continue
			}
			if fn != nil {
				fn(ev)
			}
			switch ev.Type {
			case domain.EventError:
				res.Err = ev.Err
			case domain.EventSummary:
				res.Summary = ev.Summary
			case domain.EventAnswer:
				res.Answer = ev.Answer
			}
			if ev.IsTerminal() {
				res.State = ev.State
				return false
			}
		}
		return true
	})
	return res, err
}

// runJob subscribes, starts a job and follows it to completion. A failed
// job is returned as an error.
func runJob(ctx context.Context, jobs driving.JobController, start func(context.Context) (string, error), fn func(domain.Event)) (jobResult, error) {
	sub := jobs.Subscribe()
	defer sub.Close()

	id, err := start(ctx)
	if err != nil {
		return jobResult{}, err
	}

	res, err := follow(ctx, sub, id, fn)
	if err != nil {
		return res, err
	}
	if res.State == domain.StateFailed {
		if res.Err == nil {
			res.Err = fmt.Errorf("job %s failed", id)
		}
		return res, res.Err
	}
	return res, nil
}
