// Command berthctl talks to a running berthd over its status API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/config"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "health":
		cmdHealth()
	case "status":
		cmdStatus()
	case "run":
		cmdRun()
	case "logs":
		cmdLogs(os.Args[2:])
	case "checklists":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: berthctl checklists <list|show>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdChecklistsList()
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: berthctl checklists show <vessel>")
				os.Exit(1)
			}
			cmdChecklistsShow(os.Args[3])
		default:
			fmt.Fprintf(os.Stderr, "unknown checklists subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: berthctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`berthctl — berth watch control

Usage:
  berthctl health                    Check daemon health
  berthctl status                    Show last run summary
  berthctl run                       Trigger a collection run now
  berthctl logs [level] [limit]      Show recent daemon logs
  berthctl checklists list           List active arrival checklists
  berthctl checklists show <vessel>  Show one vessel's checklist
  berthctl config validate <path>    Validate a config file

Environment:
  BERTH_API_URL  daemon address (default http://127.0.0.1:8080)
  BERTH_API_KEY  Bearer key for authenticated endpoints`)
}

func apiURL() string {
	if v := os.Getenv("BERTH_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080"
}

func request(method, path string) ([]byte, int) {
	req, err := http.NewRequest(method, apiURL()+path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if key := os.Getenv("BERTH_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body, resp.StatusCode
}

func cmdHealth() {
	body, code := request(http.MethodGet, "/api/health")
	if code != http.StatusOK {
		fmt.Fprintf(os.Stderr, "daemon unhealthy: %s\n", strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	fmt.Println("ok")
}

func cmdStatus() {
	body, code := request(http.MethodGet, "/api/status")
	if code != http.StatusOK {
		fail(body, code)
	}
	var status map[string]any
	if err := json.Unmarshal(body, &status); err != nil {
		fmt.Fprintf(os.Stderr, "bad response: %v\n", err)
		os.Exit(1)
	}
	if status["last_run"] == nil {
		fmt.Println("no run yet")
		return
	}
	fmt.Printf("last run:       %v\n", status["last_run"])
	fmt.Printf("emails:         %v (%v urgent)\n", status["emails"], status["urgent"])
	fmt.Printf("schedule:       %v vessels\n", status["schedule_count"])
	fmt.Printf("conflicts:      %v\n", status["conflicts"])
	fmt.Printf("checklists:     %v\n", status["checklists"])
}

func cmdRun() {
	body, code := request(http.MethodPost, "/api/run")
	switch code {
	case http.StatusOK:
		fmt.Println("run completed")
	case http.StatusConflict:
		fmt.Fprintln(os.Stderr, "a run is already in progress")
		os.Exit(1)
	default:
		fail(body, code)
	}
}

func cmdLogs(args []string) {
	q := url.Values{}
	if len(args) > 0 {
		q.Set("level", args[0])
	}
	if len(args) > 1 {
		q.Set("limit", args[1])
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	body, code := request(http.MethodGet, path)
	if code != http.StatusOK {
		fail(body, code)
	}
	var records []struct {
		Time    time.Time `json:"time"`
		Level   string    `json:"level"`
		Message string    `json:"message"`
	}
	if err := json.Unmarshal(body, &records); err != nil {
		fmt.Fprintf(os.Stderr, "bad response: %v\n", err)
		os.Exit(1)
	}
	for _, r := range records {
		fmt.Printf("%s %-5s %s\n", r.Time.Format("15:04:05"), r.Level, r.Message)
	}
}

func cmdChecklistsList() {
	body, code := request(http.MethodGet, "/api/checklists")
	if code != http.StatusOK {
		fail(body, code)
	}
	var checklists map[string]*protocol.Checklist
	if err := json.Unmarshal(body, &checklists); err != nil {
		fmt.Fprintf(os.Stderr, "bad response: %v\n", err)
		os.Exit(1)
	}
	if len(checklists) == 0 {
		fmt.Println("no active checklists")
		return
	}
	vessels := make([]string, 0, len(checklists))
	for v := range checklists {
		vessels = append(vessels, v)
	}
	sort.Strings(vessels)
	for _, v := range vessels {
		ck := checklists[v]
		done := 0
		for _, item := range ck.Items {
			if item.Status == protocol.TaskCompleted {
				done++
			}
		}
		fmt.Printf("%-20s %-6s %d/%d tasks  ETA %s\n", ck.Vessel, ck.Jetty, done, len(ck.Items), ck.ETA)
	}
}

func cmdChecklistsShow(vessel string) {
	body, code := request(http.MethodGet, "/api/checklists/"+url.PathEscape(strings.ToUpper(vessel)))
	if code == http.StatusNotFound {
		fmt.Fprintf(os.Stderr, "no checklist for %s\n", strings.ToUpper(vessel))
		os.Exit(1)
	}
	if code != http.StatusOK {
		fail(body, code)
	}
	var ck protocol.Checklist
	if err := json.Unmarshal(body, &ck); err != nil {
		fmt.Fprintf(os.Stderr, "bad response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s @ %s  ETA %s\n\n", ck.Vessel, ck.Jetty, ck.ETA)
	for _, item := range ck.Items {
		mark := "[ ]"
		detail := ""
		if item.Status == protocol.TaskCompleted {
			mark = "[x]"
			detail = " — " + item.CompletedBy
			if item.Confidence > 0 {
				detail += fmt.Sprintf(" (%d%%)", item.Confidence)
			}
		}
		fmt.Printf("%s %s (due %s)%s\n", mark, item.Name, item.Deadline, detail)
	}
}

func cmdConfigValidate(path string) {
	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println("config ok")
}

func fail(body []byte, code int) {
	fmt.Fprintf(os.Stderr, "api error (%d): %s\n", code, strings.TrimSpace(string(body)))
	os.Exit(1)
}
