package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type step struct {
	Name     string
	Status   int
	Expected int
	Duration time.Duration
	Error    error
}

type client struct {
	http *http.Client
	base string
}

func main() {
	var (
		base    string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	c := client{http: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/")}
	steps := runScenario(c, fmt.Sprintf("%d", time.Now().UnixNano()))

	printReport(steps)

	failed := 0
	for _, s := range steps {
		if s.Error != nil || s.Status != s.Expected {
			failed++
		}
	}
	fmt.Printf("Steps: %d, Failed: %d\n", len(steps), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// runScenario walks a teacher and a student through the join request
// workflow, stopping at the first step whose outcome later steps depend on.
func runScenario(c client, suffix string) []step {
	var (
		steps []step
		auth  struct {
			AccessToken string `json:"accessToken"`
			User        struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		teacherToken, studentToken, studentID string
		event                                 struct{ ID string `json:"id"` }
		request                               struct{ ID string `json:"id"` }
		attendees                             struct{ Attendees []string `json:"attendees"` }
	)

	record := func(name string, expected int, method, path, token string, body, out interface{}) bool {
		s := c.do(name, expected, method, path, token, body, out)
		steps = append(steps, s)
		return s.Error == nil && s.Status == s.Expected
	}

	if !record("register teacher", http.StatusCreated, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Smoke Teacher", "email": "teacher-" + suffix + "@smoke.test", "password": "smoke-pass", "role": "teacher",
	}, &auth) {
		return steps
	}
	teacherToken = auth.AccessToken

	if !record("register student", http.StatusCreated, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Smoke Student", "email": "student-" + suffix + "@smoke.test", "password": "smoke-pass",
	}, &auth) {
		return steps
	}
	studentToken, studentID = auth.AccessToken, auth.User.ID

	if !record("create event", http.StatusCreated, http.MethodPost, "/events", teacherToken, map[string]interface{}{
		"title": "Smoke Test Event " + suffix, "date": time.Now().Add(48 * time.Hour).UTC(), "category": "general",
	}, &event) {
		return steps
	}

	record("student cannot create event", http.StatusForbidden, http.MethodPost, "/events", studentToken, map[string]string{"title": "nope"}, nil)

	if !record("request to join", http.StatusCreated, http.MethodPost, "/events/"+event.ID+"/requests", studentToken, nil, &request) {
		return steps
	}
	record("duplicate request", http.StatusConflict, http.MethodPost, "/events/"+event.ID+"/requests", studentToken, nil, nil)
	record("approve", http.StatusOK, http.MethodPost, "/requests/"+request.ID+"/approve", teacherToken, nil, nil)
	record("approve again", http.StatusConflict, http.MethodPost, "/requests/"+request.ID+"/approve", teacherToken, nil, nil)

	if record("event lists attendee", http.StatusOK, http.MethodGet, "/events/"+event.ID, "", nil, &attendees) {
		if len(attendees.Attendees) != 1 || attendees.Attendees[0] != studentID {
			steps[len(steps)-1].Error = fmt.Errorf("attendees = %v, want [%s]", attendees.Attendees, studentID)
		}
	}

	record("unknown login", http.StatusUnauthorized, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "nobody-" + suffix + "@smoke.test", "password": "pw",
	}, nil)
	record("delete event", http.StatusNoContent, http.MethodDelete, "/events/"+event.ID, teacherToken, nil, nil)
	record("delete event again", http.StatusNoContent, http.MethodDelete, "/events/"+event.ID, teacherToken, nil, nil)

	return steps
}

func (c client) do(name string, expected int, method, path, token string, body, out interface{}) step {
	s := step{Name: method + " " + path + " (" + name + ")", Expected: expected}
	if c.http == nil {
		s.Error = errors.New("nil client")
		return s
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			s.Error = err
			return s
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		s.Error = err
		return s
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		s.Error = err
		return s
	}
	defer resp.Body.Close()
	s.Duration = time.Since(start)
	s.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.Error = fmt.Errorf("read body: %w", err)
		return s
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return s
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.Error = fmt.Errorf("decode envelope: %w", err)
		return s
	}
	if env.Error != nil {
		return s
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		s.Error = fmt.Errorf("decode data: %w", err)
	}
	return s
}

func printReport(results []step) {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Status != res.Expected {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n", status, res.Name)
		fmt.Printf("  Status: %d, expected %d (%s)\n", res.Status, res.Expected, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
	if len(results) == 0 {
		log.Println("no steps executed")
	}
}
