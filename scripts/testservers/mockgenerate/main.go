// Command mockgenerate runs a mock text-generation endpoint for local
// load-test runs. It accepts the same POST /generate payload promptfire
// sends and answers with a canned completion after an optional delay.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Text     string `json:"text"`
	TookMs   int64  `json:"took_ms"`
	Prompt   string `json:"prompt"`
	Finished bool   `json:"finished"`
}

func main() {
	port := flag.Int("port", 8000, "Listening port")
	delay := flag.Duration("delay", 25*time.Millisecond, "Base response delay")
	jitter := flag.Duration("jitter", 25*time.Millisecond, "Random extra delay up to this value")
	failRate := flag.Float64("fail-rate", 0, "Fraction of requests answered with 500 (0.0-1.0)")
	flag.Parse()

	if *failRate < 0 || *failRate > 1 {
		log.Fatalf("fail-rate must be between 0.0 and 1.0")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST required"})
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("bad payload: %v", err)})
			return
		}

		start := time.Now()
		wait := *delay
		if *jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(*jitter)))
		}
		time.Sleep(wait)

		if *failRate > 0 && rand.Float64() < *failRate {
			respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "model overloaded"})
			return
		}

		respondJSON(w, http.StatusOK, generateResponse{
			Text:     "mock completion",
			TookMs:   time.Since(start).Milliseconds(),
			Prompt:   req.Prompt,
			Finished: true,
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock generate server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
