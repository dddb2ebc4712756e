// Package client talks to the quiz HTTP API. It satisfies session.Catalog
// and session.Grader so a terminal session can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type Client struct {
	base  string
	token string
	hc    *http.Client
}

// New returns a client for base. A nil hc gets a 15s timeout client.
func New(base, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), token: token, hc: hc}
}

// WithToken returns a copy that sends token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// StatusError is a non-2xx response.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("quiz api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("quiz api: %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	se := &StatusError{Status: resp.StatusCode}
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		se.Message, se.Code = env.Error.Message, env.Error.Code
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", quiz.ErrQuestionNotFound, se)
	}
	return se
}

func (c *Client) ListQuestions(ctx context.Context, materialID string) ([]quiz.Question, error) {
	var out []quiz.Question
	err := c.do(ctx, http.MethodGet, "/quizzes/by-material/"+url.PathEscape(materialID), nil, &out)
	return out, err
}

// Grade posts one answer. The server records it against the token subject.
func (c *Client) Grade(ctx context.Context, quizID string, selected quiz.Label) (quiz.Verdict, error) {
	var v quiz.Verdict
	err := c.do(ctx, http.MethodPost, "/quizzes/"+url.PathEscape(quizID)+"/answer",
		map[string]string{"selectedOption": string(selected)}, &v)
	return v, err
}

func (c *Client) ListAttempts(ctx context.Context, materialID string) ([]quiz.AttemptView, error) {
	var out []quiz.AttemptView
	err := c.do(ctx, http.MethodGet, "/quizzes/attempts/"+url.PathEscape(materialID), nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, materialID string) (quiz.Summary, error) {
	var out quiz.Summary
	err := c.do(ctx, http.MethodGet, "/quizzes/attempts/"+url.PathEscape(materialID)+"/summary", nil, &out)
	return out, err
}

// ImportQuestions publishes qs as the material's new question set.
// Requires a professor or admin token.
func (c *Client) ImportQuestions(ctx context.Context, materialID string, qs []quiz.Question) ([]quiz.Question, error) {
	type item struct {
		Question      string `json:"question"`
		OptionA       string `json:"optionA"`
		OptionB       string `json:"optionB"`
		OptionC       string `json:"optionC"`
		OptionD       string `json:"optionD"`
		CorrectOption string `json:"correctOption"`
	}
	body := struct {
		Questions []item `json:"questions"`
	}{Questions: make([]item, len(qs))}
	for i, q := range qs {
		body.Questions[i] = item{q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, string(q.CorrectOption)}
	}
	var out []quiz.Question
	err := c.do(ctx, http.MethodPost, "/quizzes/by-material/"+url.PathEscape(materialID), body, &out)
	return out, err
}

// Login uses the dev login endpoint and returns the access token.
func (c *Client) Login(ctx context.Context, username, password, role string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"username": username, "password": password, "role": role}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("login: empty access token")
	}
	return out.AccessToken, nil
}
