package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fires concurrent booking requests for the same slot and reports how many won.
func main() {
	var (
		baseURL      = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "scheduling service base url")
		professional = flag.String("professional-id", getenv("PROFESSIONAL_ID", ""), "professional to book")
		service      = flag.String("service-id", getenv("SERVICE_ID", ""), "service to book")
		start        = flag.String("start", getenv("START_TIME", ""), "slot start (RFC3339)")
		workers      = flag.Int("workers", 10, "concurrent clients")
	)
	flag.Parse()

	if strings.TrimSpace(*professional) == "" || strings.TrimSpace(*service) == "" {
		fatal("PROFESSIONAL_ID and SERVICE_ID are required")
	}
	if _, err := time.Parse(time.RFC3339, *start); err != nil {
		fatal("START_TIME must be RFC3339: " + err.Error())
	}
	if *workers < 1 {
		fatal("workers must be positive")
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/appointments"
	client := &http.Client{Timeout: 10 * time.Second}

	var (
		mu     sync.Mutex
		counts = map[int]int{}
		errs   int
		wg     sync.WaitGroup
	)
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := book(client, url, bookingRequest{
				ClientID:       uuid.NewString(),
				ServiceID:      *service,
				ProfessionalID: *professional,
				StartTime:      *start,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs++
				return
			}
			counts[status]++
		}()
	}
	wg.Wait()

	for status, n := range counts {
		fmt.Printf("status=%d count=%d\n", status, n)
	}
	if errs > 0 {
		fmt.Printf("transport_errors=%d\n", errs)
	}
	if counts[http.StatusCreated] != 1 {
		fmt.Fprintf(os.Stderr, "expected exactly one booking, got %d\n", counts[http.StatusCreated])
		os.Exit(1)
	}
}

type bookingRequest struct {
	ClientID       string `json:"client_id"`
	ServiceID      string `json:"service_id"`
	ProfessionalID string `json:"professional_id"`
	StartTime      string `json:"start_time"`
}

func book(client *http.Client, url string, body bookingRequest) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
