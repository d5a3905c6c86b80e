// Package corpus loads documents from files and directories for fitting.
//
// Three formats are recognized by extension: plain text (one document per
// file), markdown (front matter stripped, one document per section), and
// JSON Lines (one document per line, read from the "text" field). Directory
// paths are walked recursively; unrecognized extensions are skipped.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is a single unit of text to be modeled.
type Document struct {
	Text   string
	Source string // file the document came from
}

// Load reads documents from path, which may be a single file or a directory.
func Load(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus path: %w", err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt", ".md", ".markdown", ".jsonl":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus dir: %w", err)
	}
	sort.Strings(files)

	var docs []Document
	for _, file := range files {
		loaded, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

// Texts extracts the raw text of each document, in order.
func Texts(docs []Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts
}

func loadFile(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return loadMarkdown(path)
	case ".jsonl":
		return loadJSONL(path)
	default:
		return loadText(path)
	}
}

// loadText reads a plain text file as a single document.
func loadText(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Document{{Text: text, Source: path}}, nil
}

// loadMarkdown strips YAML front matter and splits the body into one document
// per heading section. A body with no headings becomes one document per
// paragraph.
func loadMarkdown(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	body := stripFrontMatter(strings.ReplaceAll(string(data), "\r\n", "\n"))
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	sections := splitOnHeadings(body)
	if len(sections) == 0 {
		sections = splitOnParagraphs(body)
	}

	docs := make([]Document, 0, len(sections))
	for _, section := range sections {
		docs = append(docs, Document{Text: section, Source: path})
	}
	return docs, nil
}

// loadJSONL reads one document per line from the "text" field.
func loadJSONL(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
		if record.Text == "" {
			continue
		}
		docs = append(docs, Document{Text: record.Text, Source: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return docs, nil
}

// stripFrontMatter removes a leading --- delimited YAML block.
func stripFrontMatter(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return content
	}
	rest := trimmed[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return content
	}
	return rest[idx+4:]
}

// splitOnHeadings returns one chunk per heading section, heading line
// included. Text before the first heading forms its own chunk.
func splitOnHeadings(body string) []string {
	lines := strings.Split(body, "\n")
	var sections []string
	var current []string
	inCodeBlock := false
	sawHeading := false

	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			sections = append(sections, text)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
		}
		if !inCodeBlock && isHeading(line) {
			flush()
			sawHeading = true
		}
		current = append(current, line)
	}
	flush()

	if !sawHeading {
		return nil
	}
	return sections
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, "#")
	hashes := len(line) - len(trimmed)
	return hashes >= 1 && hashes <= 6 && strings.HasPrefix(trimmed, " ")
}

// splitOnParagraphs splits on blank lines.
func splitOnParagraphs(body string) []string {
	var paragraphs []string
	for _, para := range strings.Split(body, "\n\n") {
		if text := strings.TrimSpace(para); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}
