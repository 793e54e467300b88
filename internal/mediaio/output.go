package mediaio

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
)

// Artifact is a user-produced processing result, opaque to the engine.
type Artifact any

// WriteError is returned by Flush when artifacts cannot be serialized to
// the destination URL.
type WriteError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("writing to %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Output accumulates user-returned artifacts and flushes them to a
// destination URL exactly once, from FramePump on EndOfStream.
type Output struct {
	url string

	mu        sync.Mutex
	artifacts []Artifact
	flushed   bool
}

// NewOutput opens an Output for destinationURL. Only file:// destinations
// are writable; any other scheme is Unsupported since this engine has no
// remote object-store client to ground on.
func NewOutput(destinationURL string) (*Output, error) {
	parsed, err := url.Parse(destinationURL)
	if err != nil {
		return nil, &OpenError{URL: destinationURL, Kind: OpenUnsupported, Err: err}
	}
	switch strings.ToLower(parsed.Scheme) {
	case "file", "":
		// ok
	default:
		return nil, &OpenError{URL: destinationURL, Kind: OpenUnsupported}
	}
	return &Output{url: destinationURL}, nil
}

// Push appends an artifact to the in-memory accumulation list.
func (o *Output) Push(artifact Artifact) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.artifacts = append(o.artifacts, artifact)
}

// Flush serializes accumulated artifacts to the destination URL. It is
// idempotent on an empty output and is invoked at most once per job.
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.flushed {
		return nil
	}
	o.flushed = true

	if len(o.artifacts) == 0 {
		return nil
	}

	path := strings.TrimPrefix(o.url, "file://")
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{URL: o.url, Err: err}
	}
	defer f.Close()

	for _, a := range o.artifacts {
		line := fmt.Sprintf("%v\n", a)
		if _, err := f.WriteString(line); err != nil {
			return &WriteError{URL: o.url, Err: err}
		}
	}
	return nil
}

// Artifacts returns a snapshot of the accumulated artifacts, for tests.
func (o *Output) Artifacts() []Artifact {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Artifact, len(o.artifacts))
	copy(out, o.artifacts)
	return out
}
