// Command jobctl triggers a batch job on a running API and optionally waits
// for the run to finish.
//
//	jobctl -job seo-pages -item "ai writing tools" -wait
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/toolsdir/api/internal/jobs"
)

type itemList []string

func (l *itemList) String() string { return strings.Join(*l, ",") }

func (l *itemList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	_ = godotenv.Load()

	var items itemList
	baseURL := flag.String("url", envOr("JOBCTL_URL", "http://localhost:8080"), "API base URL")
	job := flag.String("job", "", "job name (seo-pages, discover-tools, discover-prompts, news-digest)")
	secret := flag.String("secret", envOr("TOOLSDIR_JOBS__SECRET", os.Getenv("CRON_SECRET")), "job trigger secret")
	wait := flag.Bool("wait", false, "poll until the run finishes")
	timeout := flag.Duration("timeout", 30*time.Minute, "maximum time to wait")
	flag.Var(&items, "item", "item to process (repeatable)")
	flag.Parse()

	if *job == "" {
		flag.Usage()
		os.Exit(2)
	}

	c := &client{base: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 30 * time.Second}}
	if *secret != "" {
		token, err := jobs.MintToken(*secret, time.Hour, time.Now())
		if err != nil {
			fail("mint token: %v", err)
		}
		c.token = token
	}

	runID, err := c.trigger(*job, items)
	if err != nil {
		fail("trigger %s: %v", *job, err)
	}
	fmt.Printf("run %s queued\n", runID)
	if !*wait {
		return
	}

	rec, err := c.await(runID, *timeout)
	if err != nil {
		fail("wait for %s: %v", runID, err)
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(out))
	if rec.Status == jobs.RunFailed {
		os.Exit(1)
	}
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body any, v any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.Unmarshal(raw, v)
}

func (c *client) trigger(job string, items []string) (string, error) {
	var resp struct {
		JobID string `json:"jobId"`
	}
	body := map[string][]string{"items": items}
	if err := c.do(http.MethodPost, "/jobs/"+url.PathEscape(job), body, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (c *client) await(runID string, timeout time.Duration) (*jobs.RunRecord, error) {
	deadline := time.Now().Add(timeout)
	for {
		var rec jobs.RunRecord
		if err := c.do(http.MethodGet, "/jobs/runs/"+url.PathEscape(runID), nil, &rec); err != nil {
			return nil, err
		}
		if rec.Status == jobs.RunSucceeded || rec.Status == jobs.RunFailed {
			return &rec, nil
		}
		if time.Now().After(deadline) {
			return &rec, fmt.Errorf("run still %s after %s", rec.Status, timeout)
		}
		time.Sleep(2 * time.Second)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "jobctl: "+format+"\n", args...)
	os.Exit(1)
}
