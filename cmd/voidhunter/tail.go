package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// tailLast prints the last n lines of the event log.
func tailLast(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "No events yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Keep only the last n lines
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	if len(lines) == 0 {
		fmt.Fprintln(w, "No events yet")
		return nil
	}
	for _, line := range lines {
		printEventLine(w, line)
	}
	return nil
}

// waitForFile waits for a file to be created and returns the opened file.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open file: %w", err)
			}
		}
	}
}

// tailFollow follows the event log and prints new lines as they appear.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		fmt.Fprintln(w, "Waiting for log file to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			return err
		}
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					time.Sleep(100 * time.Millisecond)
					continue
				}
				return fmt.Errorf("read log: %w", err)
			}
			printEventLine(w, strings.TrimSuffix(line, "\n"))
		}
	}
}

// printEventLine prints one event log line in a human-readable format.
func printEventLine(w io.Writer, line string) {
	var event map[string]any
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		fmt.Fprintln(w, line)
		return
	}

	timestamp := ""
	if ts, ok := event["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			timestamp = t.Format("15:04:05")
		} else {
			timestamp = ts
		}
	}

	eventType, _ := event["type"].(string)

	var detail string
	switch eventType {
	case "match.stage", "match.action", "scan.state_changed":
		from, _ := event["from"].(string)
		to, _ := event["to"].(string)
		detail = from + " -> " + to
	case "match.restart":
		if n, ok := event["restarts"].(float64); ok {
			detail = fmt.Sprintf("restarts=%d", int(n))
		}
	case "match.result":
		if r, ok := event["result"].(map[string]any); ok {
			detail = fmt.Sprintf("tier=%v clock=%s", r["tier"], jsonClock(r["clock"]))
		}
	case "match.over":
		detail = "total=" + jsonClock(event["total"])
	case "scan.start":
		detail, _ = event["target"].(string)
	case "scan.stop":
		detail, _ = event["reason"].(string)
	case "scan.tick":
		stage, _ := event["stage"].(string)
		detail = "stage=" + stage
	default:
		detail, _ = event["message"].(string)
	}

	if detail != "" {
		fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, eventType, detail)
	} else {
		fmt.Fprintf(w, "[%s] %s\n", timestamp, eventType)
	}
}

// jsonClock formats a decoded clock object as HH:MM:SS.
func jsonClock(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return "?"
	}
	field := func(k string) int {
		f, _ := m[k].(float64)
		return int(f)
	}
	return fmt.Sprintf("%02d:%02d:%02d", field("hours"), field("minutes"), field("seconds"))
}
