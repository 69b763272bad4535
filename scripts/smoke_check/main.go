package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type probe struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	WantStatus int    `json:"want_status"`
	WantJSON   bool   `json:"want_json"`
	Critical   bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe    probe
	Status   int
	Pass     bool
	Error    error
	Duration time.Duration
}

// defaultProbes covers the unauthenticated surface plus the authed
// endpoints that only need a bearer token. Authed probes are skipped
// when no token is supplied.
var defaultProbes = []probe{
	{Method: http.MethodGet, Path: "/health", WantStatus: http.StatusOK, WantJSON: true, Critical: true},
	{Method: http.MethodGet, Path: "/ready", WantStatus: http.StatusOK, WantJSON: true, Critical: true},
	{Method: http.MethodGet, Path: "/metrics", WantStatus: http.StatusOK, Critical: false},
	{Method: http.MethodGet, Path: "/api/v1/auth/me", WantStatus: http.StatusOK, WantJSON: true, Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/courses", WantStatus: http.StatusOK, WantJSON: true, Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/announcements", WantStatus: http.StatusOK, WantJSON: true, Critical: false},
}

func main() {
	var (
		baseURL    string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&probesPath, "probes", "", "Path to JSON probes file (defaults to built-in set)")
	flag.StringVar(&token, "token", "", "Bearer token for authenticated endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes := defaultProbes
	if probesPath != "" {
		loaded, err := loadProbes(probesPath)
		if err != nil {
			log.Fatalf("failed to load probes: %v", err)
		}
		probes = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		failed   int
		critical int
		skipped  int
	)

	for _, p := range probes {
		if token == "" && strings.HasPrefix(p.Path, "/api/") {
			skipped++
			continue
		}
		res := runProbe(client, baseURL, token, p)
		if !res.Pass {
			failed++
			if p.Critical {
				critical++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Failed: %d (critical: %d), Skipped: %d\n", failed, critical, skipped)
	if critical > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf probeFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	if len(pf.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return pf.Probes, nil
}

func runProbe(client *http.Client, base, token string, p probe) result {
	res := result{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	want := p.WantStatus
	if want == 0 {
		want = http.StatusOK
	}
	if res.Status != want {
		res.Error = fmt.Errorf("status %d, want %d", res.Status, want)
		return res
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	if p.WantJSON {
		var v interface{}
		if err := json.Unmarshal(body, &v); err != nil {
			res.Error = fmt.Errorf("body is not valid JSON: %w", err)
			return res
		}
	}

	res.Pass = true
	return res
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "PASS"
		if !res.Pass {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		fmt.Printf("  Status: %d (%s) | Critical: %t\n", res.Status, res.Duration, res.Probe.Critical)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
