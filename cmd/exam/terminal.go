package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/stemsi/exstem-trainee/internal/attempt"
	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/session"
)

// terminalUI renders the session on a text terminal. Input lines arrive on
// a channel fed by a reader goroutine so the countdown can interrupt a prompt.
type terminalUI struct {
	out     io.Writer
	lines   <-chan string
	changed chan struct{}
	catalog bool
}

func newTerminalUI(out io.Writer, lines <-chan string) *terminalUI {
	return &terminalUI{out: out, lines: lines, changed: make(chan struct{}, 1)}
}

func (u *terminalUI) signal() {
	select {
	case u.changed <- struct{}{}:
	default:
	}
}

// onTick redraws the screen so the clock moves without input.
func (u *terminalUI) onTick(int) { u.signal() }

func (u *terminalUI) Notify(n session.Notice) {
	fmt.Fprintf(u.out, "\n[!] %s\n", n.Message)
	u.signal()
}

func (u *terminalUI) ConfirmSubmit(ctx context.Context, s session.SubmitSummary) (bool, error) {
	fmt.Fprintf(u.out, "\nĐã trả lời %d/%d câu, còn %d câu chưa trả lời. Nộp bài? (y/n): ",
		s.Answered, s.Total, s.Unanswered)
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-u.lines:
		if !ok {
			return false, io.EOF
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes" || answer == "c", nil
	}
}

func (u *terminalUI) ShowResult(r *model.ExamResult) {
	verdict := "CHƯA ĐẠT"
	if r.Passed {
		verdict = "ĐẠT"
	}
	fmt.Fprintf(u.out, "\n=== Kết quả lần thi %d ===\n", r.AttemptNumber)
	fmt.Fprintf(u.out, "Số câu đúng: %d/%d\n", r.CorrectQuestions, r.TotalQuestions)
	fmt.Fprintf(u.out, "Tỉ lệ: %.2f%% - %s\n", r.Percentage, verdict)
	if r.CompletedAt != nil {
		fmt.Fprintf(u.out, "Hoàn thành lúc: %s\n", r.CompletedAt.Format("15:04:05 02/01/2006"))
	}
	u.signal()
}

func (u *terminalUI) ReturnToCatalog() {
	u.catalog = true
	u.signal()
}

// render prints the current question.
func render(out io.Writer, v session.View) {
	if v.Question == nil {
		return
	}
	fmt.Fprintf(out, "\n[%s] Lần thi %d (đã thi %d lần) | Câu %d/%d | Đã trả lời %d\n",
		v.Clock, v.Attempt, v.PriorAttempts, v.Index+1, v.Total, v.Answered)
	if v.TimeUp {
		fmt.Fprintln(out, "Hết giờ làm bài: gõ s để nộp lại.")
	}

	q := v.Question
	kind := "chọn một"
	if q.CorrectAnswerType == model.MultipleChoice {
		kind = "chọn nhiều"
	}
	fmt.Fprintf(out, "Câu %d (%s): %s\n", q.Number, kind, q.Question)
	for i, a := range q.Answers {
		mark := " "
		if slices.Contains(v.Selected, a.ID) {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %d. %s\n", mark, i+1, a.Answer)
	}
	fmt.Fprint(out, "<số> chọn | n tiếp | p trước | g <câu> đến câu | s nộp bài | q thoát > ")
}

// runExam drives the controller from terminal input until the trainee
// leaves. It returns false when the session ended in an error.
func runExam(ctx context.Context, ctrl *session.Controller, ui *terminalUI, lectureID string, mode attempt.Mode) bool {
	if err := ctrl.Open(ctx, lectureID, mode); err != nil {
		return false
	}
	defer ctrl.Close()

	for {
		if ui.catalog {
			fmt.Fprintln(ui.out, "Quay lại danh sách khoá học.")
			return false
		}

		if ctrl.State() == session.StateFinished {
			fmt.Fprint(ui.out, "\nr thi lại | q thoát > ")
		} else {
			render(ui.out, ctrl.View())
		}

		select {
		case <-ctx.Done():
			return true
		case <-ui.changed:
			continue
		case line, ok := <-ui.lines:
			if !ok {
				return true
			}
			if quit := handleCommand(ctx, ctrl, ui, strings.TrimSpace(line)); quit {
				return true
			}
		}
	}
}

func handleCommand(ctx context.Context, ctrl *session.Controller, ui *terminalUI, cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "q":
		return true
	case "n":
		err = ctrl.Next(ctx)
	case "p":
		err = ctrl.Previous(ctx)
	case "g":
		var i int
		if len(fields) < 2 {
			err = session.ErrOutOfRange
		} else if _, scanErr := fmt.Sscanf(fields[1], "%d", &i); scanErr != nil {
			err = session.ErrOutOfRange
		} else {
			err = ctrl.GoTo(ctx, i-1)
		}
	case "s":
		_, err = ctrl.Submit(ctx)
	case "r":
		err = ctrl.Retake(ctx)
	default:
		var n int
		if _, scanErr := fmt.Sscanf(fields[0], "%d", &n); scanErr != nil {
			fmt.Fprintln(ui.out, "Lệnh không hợp lệ.")
			return false
		}
		err = ctrl.SelectOption(ctx, n-1)
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrSubmitDeclined):
		fmt.Fprintln(ui.out, "Tiếp tục làm bài.")
	case errors.Is(err, session.ErrTimeUp):
		fmt.Fprintln(ui.out, "Đã hết giờ, không thể thay đổi đáp án.")
	case errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrUnknownAnswer):
		fmt.Fprintln(ui.out, "Không có lựa chọn này.")
	case errors.Is(err, session.ErrNotInProgress), errors.Is(err, session.ErrNotFinished), errors.Is(err, session.ErrSubmitInFlight):
		fmt.Fprintln(ui.out, "Thao tác không khả dụng lúc này.")
	}
	// Remote failures were already shown through Notify.
	return false
}
