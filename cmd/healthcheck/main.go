package main

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// Probe binary for container health checks; exits 0 while the API
// answers. It honors VERAMON_ADDR so the probe follows the server port.
func main() {
	addr := os.Getenv("VERAMON_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/healthz")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	os.Exit(0)
}
