package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mind-engage/mindengage-quiz/internal/client"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/platform/logger"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

func main() {
	var material, user, password, role string
	var verbose bool
	flag.StringVar(&material, "material", "", "material id to take the quiz for (required)")
	flag.StringVar(&user, "user", "", "log in with the dev login endpoint as this user (ignored when QUIZ_TOKEN is set)")
	flag.StringVar(&password, "password", "", "dev login password (defaults to the user name)")
	flag.StringVar(&role, "role", "student", "dev login role")
	flag.BoolVar(&verbose, "v", false, "log session events to stderr")
	flag.Parse()

	if material == "" {
		fmt.Fprintln(os.Stderr, "usage: quizclient -material <id> [-user <name>]")
		os.Exit(2)
	}
	cfg := config.Load()

	log := logger.NewNop()
	if verbose {
		l, err := logger.New(cfg.LogMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		log = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := client.New(cfg.QuizAPIURL, cfg.QuizToken, nil)
	learner := user
	if cfg.QuizToken == "" {
		if user == "" {
			fmt.Fprintln(os.Stderr, "set QUIZ_TOKEN or pass -user")
			os.Exit(2)
		}
		if password == "" {
			password = user
		}
		tok, err := cl.Login(ctx, user, password, role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
		cl = cl.WithToken(tok)
	}
	if learner == "" {
		learner = "token"
	}

	r := session.NewRunner(cl, cl, session.Config{
		LearnerID:   learner,
		MaterialID:  material,
		Budget:      cfg.SessionSeconds,
		Parallelism: cfg.GradingParallelism,
		Log:         log,
	})
	if err := run(ctx, r, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
