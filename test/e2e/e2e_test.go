package e2e

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/attempt"
	"github.com/stemsi/exstem-trainee/internal/auth"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/draft"
	"github.com/stemsi/exstem-trainee/internal/handler"
	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/repository"
	"github.com/stemsi/exstem-trainee/internal/response"
	"github.com/stemsi/exstem-trainee/internal/router"
	"github.com/stemsi/exstem-trainee/internal/service"
	"github.com/stemsi/exstem-trainee/internal/session"
	"github.com/stemsi/exstem-trainee/internal/validator"
)

const (
	traineeUser  = "e2e_trainee"
	traineePass  = "password123"
	quickLecture = "lecture-quick"
)

var (
	baseURL  string
	cfg      *config.Config
	draftDir string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	cfg = &config.Config{
		GinMode:            "test",
		JWTSecret:          "e2e-secret",
		JWTExpiry:          time.Hour,
		BcryptCost:         4,
		LoginRatePerMinute: 100,
		DraftDriver:        draft.DriverSQLite,
	}

	dir, err := os.MkdirTemp("", "exam-e2e-*")
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}
	draftDir = dir
	cfg.DraftSQLitePath = filepath.Join(dir, "drafts.db")

	srv, err := startStubAPI()
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}
	baseURL = srv.URL + "/api"

	code := m.Run()

	srv.Close()
	os.RemoveAll(draftDir)
	os.Exit(code)
}

// startStubAPI serves the demo exam plus a one-second exam for the expiry flow.
func startStubAPI() (*httptest.Server, error) {
	validator.Setup()

	authService := service.NewAuthService(cfg)
	if _, err := authService.AddTrainee(traineeUser, traineePass); err != nil {
		return nil, fmt.Errorf("seed trainee: %w", err)
	}

	examService := service.NewLectureExamService()
	if err := examService.AddExam(service.DemoExam()); err != nil {
		return nil, fmt.Errorf("seed demo exam: %w", err)
	}
	quick := service.ExamSeed{
		LectureID:         quickLecture,
		ExamID:            "exam-quick",
		TimeOfExam:        1,
		MinimumPercentage: 50,
		Questions: []service.QuestionSeed{{
			ID: "quick-q", Number: 1, Text: "?",
			Answers: []service.AnswerSeed{{ID: "quick-a", Correct: true}, {ID: "quick-b"}},
		}},
	}
	if err := examService.AddExam(quick); err != nil {
		return nil, fmt.Errorf("seed quick exam: %w", err)
	}

	r := router.SetupRouter(authService, &router.Handlers{
		Account:        handler.NewAccountHandler(authService, zerolog.Nop()),
		TraineeLecture: handler.NewTraineeLectureHandler(examService, zerolog.Nop()),
	}, cfg)
	return httptest.NewServer(r), nil
}

// recordingUI confirms every submission and records what the trainee saw.
type recordingUI struct {
	mu      sync.Mutex
	notices []response.ErrCode
	results []*model.ExamResult
	asked   int
}

func (u *recordingUI) Notify(n session.Notice) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notices = append(u.notices, n.Code)
}

func (u *recordingUI) ConfirmSubmit(context.Context, session.SubmitSummary) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.asked++
	return true, nil
}

func (u *recordingUI) ShowResult(r *model.ExamResult) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.results = append(u.results, r)
}

func (u *recordingUI) ReturnToCatalog() {}

func (u *recordingUI) saw(code response.ErrCode) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Contains(u.notices, code)
}

func login(t *testing.T) *auth.Credential {
	t.Helper()
	accounts := repository.NewAccountRepository(baseURL, 5*time.Second, zerolog.Nop())
	tok, err := accounts.Authenticate(context.Background(), traineeUser, traineePass)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	cred := auth.NewCredential(tok.Token)
	if !cred.IsAuthenticated() {
		t.Fatal("issued token not considered authenticated")
	}
	return cred
}

func openStore(t *testing.T) draft.Store {
	t.Helper()
	store, err := draft.Open(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("draft.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestE2EFlow(t *testing.T) {
	ctx := context.Background()
	cred := login(t)
	api := repository.NewExamRepository(baseURL, 5*time.Second, cred, zerolog.Nop())
	store := openStore(t)
	demo := service.DemoExam()

	correct := map[string][]string{
		"q-vhf":      {"q-vhf-a"},
		"q-lights":   {"q-lights-a", "q-lights-b", "q-lights-c"},
		"q-overtake": {"q-overtake-b"},
		"q-fire":     {"q-fire-a", "q-fire-b"},
	}

	// Step 1: Start a fresh attempt and answer half of the exam.
	t.Run("StartAndAnswer", func(t *testing.T) {
		ui := &recordingUI{}
		ctrl := session.NewController(api, store, ui, zerolog.Nop())
		if err := ctrl.Open(ctx, demo.LectureID, attempt.ModeFreshOrContinue); err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer ctrl.Close()

		if v := ctrl.View(); v.Attempt != 1 || v.Total != 4 || v.Question.ID != "q-vhf" {
			t.Fatalf("view = %+v", v)
		}
		for _, q := range []string{"q-vhf", "q-lights"} {
			for _, a := range correct[q] {
				if err := ctrl.SelectAnswer(ctx, q, a); err != nil {
					t.Fatalf("SelectAnswer(%s, %s): %v", q, a, err)
				}
			}
		}
		if err := ctrl.Next(ctx); err != nil {
			t.Fatalf("Next: %v", err)
		}
	})

	// Step 2: Re-enter like after a reload: same attempt, draft restored.
	t.Run("ResumeAndSubmit", func(t *testing.T) {
		ui := &recordingUI{}
		ctrl := session.NewController(api, store, ui, zerolog.Nop())
		if err := ctrl.Open(ctx, demo.LectureID, attempt.ModeFreshOrContinue); err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer ctrl.Close()

		if !ui.saw(response.NoticeDraftRestored) {
			t.Error("draft not restored")
		}
		v := ctrl.View()
		if v.Attempt != 1 || v.Answered != 2 || v.Index != 1 {
			t.Fatalf("resumed view = %+v", v)
		}

		for _, q := range []string{"q-overtake", "q-fire"} {
			for _, a := range correct[q] {
				if err := ctrl.SelectAnswer(ctx, q, a); err != nil {
					t.Fatalf("SelectAnswer(%s, %s): %v", q, a, err)
				}
			}
		}

		res, err := ctrl.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.CorrectQuestions != 4 || res.Percentage != 100 || !res.Passed || res.AttemptNumber != 1 {
			t.Errorf("result = %+v", res)
		}
		if ui.asked != 1 {
			t.Errorf("confirmations = %d, want 1", ui.asked)
		}
	})

	// Step 3: Retake opens attempt 2 with a clean draft.
	t.Run("Retake", func(t *testing.T) {
		ui := &recordingUI{}
		ctrl := session.NewController(api, store, ui, zerolog.Nop())
		if err := ctrl.Open(ctx, demo.LectureID, attempt.ModeRetake); err != nil {
			t.Fatalf("Open retake: %v", err)
		}
		defer ctrl.Close()

		v := ctrl.View()
		if v.Attempt != 2 || v.PriorAttempts != 1 || v.Answered != 0 {
			t.Errorf("retake view = %+v", v)
		}

		res, err := ctrl.Submit(ctx)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if res.AttemptNumber != 2 || res.Passed || res.CorrectQuestions != 0 {
			t.Errorf("retake result = %+v", res)
		}
	})
}

func TestE2ETimeUpSubmitsAutomatically(t *testing.T) {
	ctx := context.Background()
	cred := login(t)
	api := repository.NewExamRepository(baseURL, 5*time.Second, cred, zerolog.Nop())

	ui := &recordingUI{}
	ctrl := session.NewController(api, openStore(t), ui, zerolog.Nop(), session.WithAutoSubmitDelay(0))
	if err := ctrl.Open(ctx, quickLecture, attempt.ModeFreshOrContinue); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctrl.Close()

	deadline := time.Now().Add(5 * time.Second)
	for ctrl.State() != session.StateFinished && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	ctrl.Wait()

	if ctrl.State() != session.StateFinished {
		t.Fatalf("state = %s, want finished", ctrl.State())
	}
	if !ui.saw(response.NoticeTimeUp) || ui.asked != 0 {
		t.Errorf("notices = %v, confirmations = %d", ui.notices, ui.asked)
	}
	if len(ui.results) != 1 || ui.results[0].CorrectQuestions != 0 {
		t.Errorf("results = %+v", ui.results)
	}
}
