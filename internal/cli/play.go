package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-player/internal/config"
	"quiz-player/internal/domain"
	"quiz-player/internal/play"
	"github.com/spf13/cobra"
)

// NewPlayCmd builds the CLI subcommand that plays one quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play <quiz-id>",
		Short: "Play a quiz session in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, configPath, quizID string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctrl := deps.newEngine(quizID)
	defer ctrl.Close()

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	startErr := make(chan error, 1)
	go func() { startErr <- ctrl.Start(ctx, quizID) }()

	var view playView
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			view.render(out, snap)
			if snap.Phase.Terminal() {
				return nil
			}
		case err := <-startErr:
			if err != nil && !errors.Is(err, domain.ErrSessionAlreadyActive) {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			view.handle(ctx, out, ctrl, line)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// playView tracks what has already been printed so snapshot updates only
// render changes.
type playView struct {
	phase      play.Phase
	questionID string
	feedbackID string
	notice     string
	remaining  int
}

func (v *playView) render(out io.Writer, snap play.Snapshot) {
	if snap.Notice != "" && snap.Notice != v.notice {
		fmt.Fprintf(out, "! %s\n", snap.Notice)
	}
	v.notice = snap.Notice

	switch snap.Phase {
	case play.PhaseResumeChoice:
		if v.phase != play.PhaseResumeChoice {
			fmt.Fprintln(out, "A session is already in progress. Type 'resume' to continue it or 'cancel' to quit.")
		}
	case play.PhasePlaying:
		if snap.Question != nil && snap.Question.ID != v.questionID {
			v.questionID = snap.Question.ID
			v.remaining = snap.RemainingSeconds
			fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", snap.Cursor+1, snap.TotalQuestions, snap.Question.Prompt)
			for i, opt := range snap.Question.Options {
				fmt.Fprintf(out, "  %d. %s\n", i+1, opt.Text)
			}
			if snap.Selected != "" {
				fmt.Fprintf(out, "(previous choice %s kept; type a number to change, 'submit' to confirm)\n", snap.Selected)
			} else {
				fmt.Fprintln(out, "Type an option number, then 'submit'.")
			}
		}
		if snap.RemainingSeconds != v.remaining {
			v.remaining = snap.RemainingSeconds
			if v.remaining > 0 && v.remaining <= 5 {
				fmt.Fprintf(out, "%ds left...\n", v.remaining)
			}
		}
	case play.PhaseFeedback:
		if snap.Feedback != nil && snap.Feedback.QuestionID != v.feedbackID {
			v.feedbackID = snap.Feedback.QuestionID
			switch {
			case snap.Feedback.TimedOut:
				fmt.Fprintln(out, "Time's up!")
			case snap.Feedback.Correct:
				fmt.Fprintln(out, "Correct!")
			default:
				fmt.Fprintln(out, "Wrong.")
			}
		}
	case play.PhaseFinished:
		if snap.Summary != nil {
			s := snap.Summary
			fmt.Fprintf(out, "\nFinished in %ds: %d points, %d correct, %d wrong\n",
				s.ElapsedSeconds, s.Points, s.Correct, s.Wrong)
			if !s.Confirmed {
				fmt.Fprintln(out, "(result could not be confirmed with the backend)")
			}
		}
	case play.PhaseAborted:
		if v.phase != play.PhaseAborted {
			fmt.Fprintln(out, "Session ended.")
		}
	}
	v.phase = snap.Phase
}

func (v *playView) handle(ctx context.Context, out io.Writer, ctrl *play.Controller, line string) {
	if line == "" {
		return
	}
	var err error
	switch strings.ToLower(line) {
	case "submit", "s":
		err = ctrl.SubmitCurrent()
	case "retry":
		err = ctrl.RetryQuestion()
	case "resume":
		err = ctrl.Resume(ctx)
	case "cancel":
		err = ctrl.CancelResume()
	case "abandon":
		err = ctrl.Abandon(true)
	case "abandon!":
		err = ctrl.Abandon(false)
	default:
		err = v.selectByNumber(ctrl, line)
	}
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
}

func (v *playView) selectByNumber(ctrl *play.Controller, line string) error {
	n, err := strconv.Atoi(line)
	if err != nil {
		return errors.New("type an option number, 'submit', 'retry', 'abandon' (save), 'abandon!' (discard)")
	}
	snap := ctrl.Snapshot()
	if snap.Question == nil || n < 1 || n > len(snap.Question.Options) {
		return domain.ErrOptionNotFound
	}
	return ctrl.SelectAnswer(snap.Question.Options[n-1].ID)
}
