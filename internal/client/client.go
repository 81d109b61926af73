package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mind-engage/examprep/internal/exam"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// Client talks to examprepd. It implements session.Provider and session.Sink.
type Client struct {
	base string
	http *http.Client
}

type Config struct {
	BaseURL string
	// Token is a bearer token from Login; empty sends anonymous requests.
	Token   string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.Token != "" {
		h = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), http: h}
}

// Questions runs GET /api/questions with f encoded as query parameters.
func (c *Client) Questions(ctx context.Context, f exam.Filter) ([]exam.Question, error) {
	p := url.Values{}
	if f.Subject != "" {
		p.Set("subject", f.Subject)
	}
	for _, ch := range f.Chapters {
		p.Add("chapter", ch)
	}
	if f.Difficulty != "" {
		p.Set("difficulty", string(f.Difficulty))
	}
	if f.Limit > 0 {
		p.Set("count", strconv.Itoa(f.Limit))
	}
	if f.Shuffle {
		p.Set("shuffle", "1")
	}
	if len(f.IDs) > 0 {
		p.Set("ids", strings.Join(f.IDs, ","))
	}
	var out struct {
		Questions []exam.Question `json:"questions"`
	}
	if err := c.do(ctx, "list questions", http.MethodGet, "/api/questions?"+p.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// Submit runs POST /api/results.
func (c *Client) Submit(ctx context.Context, s exam.Submission) (exam.ScoredResult, error) {
	var out struct {
		Result exam.ScoredResult `json:"result"`
	}
	if err := c.do(ctx, "submit result", http.MethodPost, "/api/results", s, &out); err != nil {
		return exam.ScoredResult{}, err
	}
	return out.Result, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.send(req, "login", &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Guest asks for an anonymous student token and returns it with the guest id.
func (c *Client) Guest(ctx context.Context) (token, userID string, err error) {
	var out struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"userId"`
	}
	if err := c.do(ctx, "guest login", http.MethodPost, "/api/auth/guest", nil, &out); err != nil {
		return "", "", err
	}
	return out.AccessToken, out.UserID, nil
}

// Results lists a user's recorded results, newest first.
func (c *Client) Results(ctx context.Context, userID string, limit int) ([]exam.Result, error) {
	path := "/api/users/" + url.PathEscape(userID) + "/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []exam.Result
	if err := c.do(ctx, "list results", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WrongIDs returns the question ids a user last answered wrongly.
func (c *Client) WrongIDs(ctx context.Context, userID, subject string) ([]string, error) {
	path := "/api/users/" + url.PathEscape(userID) + "/wrong"
	if subject != "" {
		path += "?subject=" + url.QueryEscape(subject)
	}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.do(ctx, "list wrong answers", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// ImportQuestions uploads a bank document as-is; contentType selects the parser.
func (c *Client) ImportQuestions(ctx context.Context, doc []byte, contentType string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/questions/import", bytes.NewReader(doc))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)
	var out struct {
		Imported int `json:"imported"`
	}
	if err := c.send(req, "import questions", &out); err != nil {
		return 0, err
	}
	return out.Imported, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op, out)
}

func (c *Client) send(req *http.Request, op string, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{Op: op, Code: res.StatusCode, Status: res.Status, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
