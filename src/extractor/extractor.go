// Package extractor turns fetched listings into a text artifact of
// "title: url" lines, delivers it and removes it again.
package extractor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/model"
)

var (
	// ErrNoContent means every entry was dropped; no artifact exists
	ErrNoContent = errors.New("no content found")
	// ErrDelivery means the artifact could not be sent to a destination
	ErrDelivery = errors.New("artifact delivery failed")
	// ErrCleanup means the artifact could not be removed
	ErrCleanup = errors.New("artifact cleanup failed")
)

const separator = ": "

var titleReplacer = strings.NewReplacer(":", " ", "\r", " ", "\n", " ")

// Flatten keeps entries with a non-blank url, in order. Colons and line breaks
// in titles become spaces so every entry is one line that splits unambiguously.
func Flatten(entries []model.ContentEntry) []model.ContentEntry {
	out := make([]model.ContentEntry, 0, len(entries))
	for _, e := range entries {
		url := strings.TrimSpace(e.URL)
		if url == "" {
			continue
		}
		out = append(out, model.ContentEntry{
			Title: titleReplacer.Replace(e.Title),
			URL:   url,
		})
	}
	return out
}

// Render writes one "title: url" line per entry
func Render(entries []model.ContentEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Title)
		buf.WriteString(separator)
		buf.WriteString(e.URL)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Parse reads lines produced by Render
func Parse(data []byte) ([]model.ContentEntry, error) {
	var entries []model.ContentEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if line == "" {
			continue
		}
		title, url, ok := strings.Cut(line, separator)
		if !ok {
			return nil, fmt.Errorf("line %d: missing separator", n)
		}
		entries = append(entries, model.ContentEntry{Title: title, URL: url})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SanitizeName makes name safe to use as a single path element
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		case ':':
			return ' '
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "artifact.txt"
	}
	return name
}

// Artifact is a written file. Name is what the recipient sees; Path is where
// it lives on disk.
type Artifact struct {
	Name    string
	Path    string
	Entries int
}

// DocumentSender sends a file to a chat
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
}

// Destination is one recipient of an artifact. Label names it in logs and
// metrics, e.g. "user" or "audit". Caption, when set, replaces the caption
// passed to Deliver for this recipient.
type Destination struct {
	Label   string
	ChatID  int64
	Caption string
}

// Extractor owns the artifact file lifecycle
type Extractor struct {
	dir     string
	metrics *metrics.Metrics
}

// New creates an extractor writing into dir, or the system temp dir when dir
// is empty.
func New(dir string, m *metrics.Metrics) *Extractor {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Extractor{dir: dir, metrics: m}
}

// Write flattens entries into a new artifact named name. It returns
// ErrNoContent, and creates nothing, when no entry survives flattening.
func (x *Extractor) Write(name string, entries []model.ContentEntry) (*Artifact, error) {
	flat := Flatten(entries)
	if len(flat) == 0 {
		return nil, ErrNoContent
	}

	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.CreateTemp(x.dir, "artifact-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	if _, err := f.Write(Render(flat)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	return &Artifact{Name: SanitizeName(name), Path: f.Name(), Entries: len(flat)}, nil
}

// Read re-reads an artifact's entries
func (x *Extractor) Read(a *Artifact) ([]model.ContentEntry, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Deliver sends the artifact to each destination in order and stops at the
// first failure, which is returned wrapped in ErrDelivery.
func (x *Extractor) Deliver(ctx context.Context, sender DocumentSender, a *Artifact, caption string, dests ...Destination) error {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrDelivery, a.Name, err)
	}

	for _, d := range dests {
		c := caption
		if d.Caption != "" {
			c = d.Caption
		}
		if err := sender.SendDocument(ctx, d.ChatID, a.Name, data, c); err != nil {
			x.metrics.Delivery(d.Label, "error")
			logger.Error().Err(err).
				Str("artifact", a.Name).
				Str("destination", d.Label).
				Int64("chat_id", d.ChatID).
				Msg("Artifact delivery failed")
			return fmt.Errorf("%w: %s: %w", ErrDelivery, d.Label, err)
		}
		x.metrics.Delivery(d.Label, "ok")
	}
	return nil
}

// Cleanup removes the artifact. Failures are logged and returned wrapped in
// ErrCleanup; callers are not expected to surface them.
func (x *Extractor) Cleanup(a *Artifact) error {
	if err := os.Remove(a.Path); err != nil {
		logger.Warn().Err(err).Str("artifact", a.Name).Str("path", a.Path).Msg("Artifact cleanup failed")
		return fmt.Errorf("%w: %w", ErrCleanup, err)
	}
	logger.Debug().Str("artifact", a.Name).Msg("Artifact removed")
	return nil
}

// Extract runs the whole lifecycle: write, deliver, clean up. Cleanup runs
// whether or not delivery succeeded and its failure is never returned.
func (x *Extractor) Extract(ctx context.Context, sender DocumentSender, name, caption string, entries []model.ContentEntry, dests ...Destination) (*Artifact, error) {
	a, err := x.Write(name, entries)
	if err != nil {
		return nil, err
	}
	defer x.Cleanup(a)

	if err := x.Deliver(ctx, sender, a, caption, dests...); err != nil {
		return a, err
	}
	return a, nil
}
