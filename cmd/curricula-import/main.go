// Command curricula-import parses curriculum documents (PDF, markdown, or
// plain text) into sections and submits them to the ingestion service.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/internal/ingestion/docparse"
	"github.com/Musa-Bangura/Curriculum-Lesson-Platform/pkg/logger"
)

func main() {
	var (
		endpoint = flag.String("endpoint", "http://localhost:8081", "ingestion service base URL")
		subject  = flag.String("subject", "", "curriculum subject (math, english, science)")
		grade    = flag.Int("grade", 0, "grade level (7-12)")
		topic    = flag.String("topic", "", "topic the document covers")
		reimport = flag.Bool("reimport", false, "delete previously imported chunks for each file first")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger.Setup(*logLevel, "text")

	if *subject == "" || *grade == 0 || *topic == "" {
		fmt.Fprintln(os.Stderr, "usage: curricula-import -subject <subject> -grade <grade> -topic <topic> [flags] <file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no input files given")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	exitCode := 0
	for _, path := range files {
		if err := importFile(client, *endpoint, *subject, *grade, *topic, path, *reimport); err != nil {
			slog.Error("import failed", "file", path, "error", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func importFile(client *http.Client, endpoint, subject string, grade int, topic, path string, reimport bool) error {
	sections, err := docparse.ParseFile(path)
	if err != nil {
		return err
	}
	if len(sections) == 0 {
		slog.Warn("no sections found", "file", path)
		return nil
	}
	sourceFile := filepath.Base(path)

	if reimport {
		if err := deleteSource(client, endpoint, sourceFile); err != nil {
			return fmt.Errorf("deleting previous import: %w", err)
		}
	}

	submitted, existing := 0, 0
	for _, section := range sections {
		resp, err := submitChunk(client, endpoint, &ingestion.ChunkSubmission{
			Subject:      subject,
			Grade:        grade,
			Topic:        topic,
			SectionTitle: section.Title,
			Body:         section.Body,
			Position:     section.Position,
			SourceFile:   sourceFile,
		})
		if err != nil {
			return fmt.Errorf("submitting section %q: %w", section.Title, err)
		}
		if resp.Status == "EXISTS" {
			existing++
		} else {
			submitted++
		}
	}

	slog.Info("file imported",
		"file", path,
		"sections", len(sections),
		"submitted", submitted,
		"already_present", existing,
	)
	return nil
}

func submitChunk(client *http.Client, endpoint string, chunk *ingestion.ChunkSubmission) (*ingestion.SubmitResponse, error) {
	body, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(endpoint+"/api/v1/curriculum/chunks", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ingestion service returned %d: %s", resp.StatusCode, data)
	}
	var submitResp ingestion.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &submitResp, nil
}

func deleteSource(client *http.Client, endpoint, sourceFile string) error {
	u := fmt.Sprintf("%s/api/v1/curriculum/source?file=%s", endpoint, url.QueryEscape(sourceFile))
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ingestion service returned %d: %s", resp.StatusCode, data)
	}
	return nil
}
