package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/client"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run imports one bank and returns the exit code. Results go to stdout and
// failures to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quizimport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file, material, user, password string
	var dryRun bool
	fs.StringVar(&file, "file", "", "question bank (YAML or JSON)")
	fs.StringVar(&material, "material", "", "material id (overrides the bank's material)")
	fs.StringVar(&user, "user", "", "dev login as this professor when QUIZ_TOKEN is unset")
	fs.StringVar(&password, "password", "", "dev login password (defaults to the user name)")
	fs.BoolVar(&dryRun, "dry-run", false, "validate the bank without publishing")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if file == "" {
		fmt.Fprintln(stderr, "usage: quizimport -file bank.yaml [-material id] [-user name] [-dry-run]")
		return 2
	}
	f, err := os.Open(file)
	if err != nil {
		fmt.Fprintf(stderr, "open bank: %v\n", err)
		return 1
	}
	bank, err := quiz.ParseBank(f)
	_ = f.Close()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if material != "" {
		bank.MaterialID = material
	}
	if bank.MaterialID == "" {
		fmt.Fprintln(stderr, "no material id: set it in the bank or pass -material")
		return 2
	}
	qs, err := bank.ToQuestions()
	if err != nil {
		fmt.Fprintf(stderr, "invalid bank: %v\n", err)
		return 1
	}
	if dryRun {
		fmt.Fprintf(stdout, "%d questions ok for material %s\n", len(qs), bank.MaterialID)
		return 0
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cl := client.New(cfg.QuizAPIURL, cfg.QuizToken, nil)
	if cfg.QuizToken == "" {
		if user == "" {
			fmt.Fprintln(stderr, "set QUIZ_TOKEN or pass -user")
			return 2
		}
		if password == "" {
			password = user
		}
		tok, err := cl.Login(ctx, user, password, "professor")
		if err != nil {
			fmt.Fprintf(stderr, "login: %v\n", err)
			return 1
		}
		cl = cl.WithToken(tok)
	}

	created, err := cl.ImportQuestions(ctx, bank.MaterialID, qs)
	if err != nil {
		fmt.Fprintf(stderr, "import: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "published %d questions for material %s\n", len(created), bank.MaterialID)
	for _, q := range created {
		fmt.Fprintf(stdout, "  %2d  %s  %s\n", q.Position+1, q.ID, q.Text)
	}
	return 0
}
