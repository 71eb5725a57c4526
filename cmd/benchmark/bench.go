package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
)

var storyBody = []byte(`{"characters": ["Luna", "Max"], "theme": "friendship", "age_group": "6-8"}`)

var mockStory = `Title: The Lantern in the Woods

Chapter 1: The Glow
Luna and Max found a glowing lantern by the old oak.
[ILLUSTRATION: Luna the silver fox and Max beside a glowing lantern under an oak tree]

Chapter 2: The Path
They followed its light along a winding forest path.
[ILLUSTRATION: two friends walking a moonlit forest path holding a lantern]

Chapter 3: Home Again
The lantern led them safely home before dark.
[ILLUSTRATION: a cozy cottage window glowing at dusk]`

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	images := flag.Bool("images", false, "Benchmark chapter image generation instead of story text")
	flag.Parse()

	// start mock provider backend
	go startMockServer()

	// build and start application
	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	configFile := "bench_config.yaml"
	if err := os.WriteFile(configFile, []byte(benchConfig), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	defer os.Remove(configFile)

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(), fmt.Sprintf("CONFIG_FILE=%s", configFile))
	cmd.Env = append(cmd.Env, fmt.Sprintf("SERVER_PORT=%d", appPort))
	cmd.Env = append(cmd.Env, "LOG_LEVEL=error")

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	url := fmt.Sprintf("http://localhost:%d/v1/stories/text", appPort)
	body := storyBody
	mode := "Story text"
	if *images {
		url = fmt.Sprintf("http://localhost:%d/v1/chapters/image", appPort)
		body = []byte(`{"chapter_title": "The Glow", "chapter_content": "Luna found a glowing lantern in the calm quiet woods.", "character_names": ["Luna"], "story_id": "bench-story", "chapter_id": "chapter-1"}`)
		mode = "Chapter image"
	}

	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", mode, *duration, *rate)

	targeter := func(t *vegeta.Target) error {
		t.Method = "POST"
		t.URL = url
		t.Body = body
		t.Header = http.Header{
			"Content-Type":  []string{"application/json"},
			"Authorization": []string{"Bearer bench-key-12345"},
		}
		return nil
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")

		uniqueErrors := make(map[string]bool)
		count := 0
		for _, msg := range metrics.Errors {
			if !uniqueErrors[msg] && count < 5 {
				fmt.Println(msg)

				uniqueErrors[msg] = true
				count++
			}
		}
	}

	os.Remove("bench.db")
}

// startMockServer emulates an OpenAI-compatible backend for both the text and
// image routes plus the health probe.
func startMockServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "list", "data": [{"id": "gpt-4o-mini", "object": "model"}]}`))
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		resp := map[string]interface{}{
			"id": "bench-123",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": mockStory}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"url": "http://localhost/bench.png"}]}`))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil && resp.StatusCode == 200 {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: development
  api_keys:
    bench-key-12345: premium
rate_limit:
  requests_per_second: 100000
  burst: 100000
store:
  dsn: "file:bench.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000"
providers:
  - id: openai
    type: openai
    name: OpenAI
    api_key: "sk-bench-0000000000000000"
    base_url: "http://localhost:%d/v1"
    enabled: true
    default_text_model: gpt-4o-mini
    default_image_model: dall-e-3
routing:
  default_text_provider: openai
  default_image_provider: openai
tiers:
  premium:
    allowed_providers: []
`, appPort, mockPort)
