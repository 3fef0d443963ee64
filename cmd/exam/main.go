package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/attempt"
	"github.com/stemsi/exstem-trainee/internal/auth"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/draft"
	"github.com/stemsi/exstem-trainee/internal/logger"
	"github.com/stemsi/exstem-trainee/internal/repository"
	"github.com/stemsi/exstem-trainee/internal/session"
	"github.com/stemsi/exstem-trainee/internal/timer"
	"golang.org/x/term"
)

func main() {
	var (
		lectureID string
		retake    bool
	)
	flag.StringVar(&lectureID, "lecture", "", "Lecture whose exam to take")
	flag.BoolVar(&retake, "retake", false, "Start a new attempt after a completed one")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Open Draft Store ──────────────────────────────────────────────
	store, err := draft.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DraftDriver).Msg("Failed to open draft store")
	}
	defer store.Close()

	// ─── Authenticate ──────────────────────────────────────────────────
	stdin := bufio.NewReader(os.Stdin)
	cred := auth.NewCredential(cfg.APIToken)
	if !cred.IsAuthenticated() {
		if exp, ok := cred.ExpiresAt(); ok {
			log.Warn().Time("expired_at", exp).Msg("Configured API token has expired")
		}
		if err := login(ctx, cfg, cred, stdin, log); err != nil {
			fmt.Fprintln(os.Stderr, "Đăng nhập thất bại:", err)
			os.Exit(1)
		}
	}

	// ─── Run Exam ──────────────────────────────────────────────────────
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := stdin.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	api := repository.NewExamRepository(cfg.APIBaseURL, cfg.HTTPTimeout, cred, log)
	ui := newTerminalUI(os.Stdout, lines)
	ctrl := session.NewController(api, store, ui, log,
		session.WithAutoSubmitDelay(cfg.AutoSubmitDelay),
		session.WithTimerOptions(timer.WithOnTick(ui.onTick)),
	)

	mode := attempt.ModeFreshOrContinue
	if retake {
		mode = attempt.ModeRetake
	}
	ok := runExam(ctx, ctrl, ui, lectureID, mode)
	ctrl.Wait()
	if !ok {
		os.Exit(1)
	}
}

// login asks for credentials and stores the issued token.
func login(ctx context.Context, cfg *config.Config, cred *auth.Credential, stdin *bufio.Reader, log zerolog.Logger) error {
	fmt.Print("Tên đăng nhập: ")
	userName, err := stdin.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read user name: %w", err)
	}
	userName = strings.TrimSpace(userName)

	fmt.Print("Mật khẩu: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	accounts := repository.NewAccountRepository(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	token, err := accounts.Authenticate(ctx, userName, string(password))
	if err != nil {
		return err
	}
	cred.Set(token.Token)
	ev := log.Info().Str("user_name", token.UserName)
	if exp, ok := cred.ExpiresAt(); ok {
		ev = ev.Time("expires_at", exp)
	}
	ev.Msg("Logged in")
	return nil
}
