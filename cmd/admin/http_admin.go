package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// postOrGet calls /admin/v1/<what> on a running server. state is a GET,
// save and reset are POSTs.
func postOrGet(what string, args []string) {
	fs := flag.NewFlagSet(what, flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	method := http.MethodPost
	if what == "state" {
		method = http.MethodGet
	}
	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/" + what
	req, _ := http.NewRequest(method, u, nil)
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
