package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
)

// terminalHost stands in for the modal that shows a role dialog. A command
// holds one dialog open at a time and is done once it is dismissed.
type terminalHost struct {
	once   sync.Once
	done   chan struct{}
	reason string
}

func newTerminalHost() *terminalHost {
	return &terminalHost{done: make(chan struct{})}
}

func (h *terminalHost) Dismiss(reason string) {
	h.once.Do(func() {
		h.reason = reason
		close(h.done)
	})
}

// Dismissed reports whether the dialog has been closed.
func (h *terminalHost) Dismissed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// urlNavigator resolves page-relative targets against the project URL and
// prints them, since a terminal cannot follow them.
type urlNavigator struct {
	base *url.URL
	out  io.Writer
	last string
}

func newURLNavigator(base string, out io.Writer) (*urlNavigator, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", base)
	}
	return &urlNavigator{base: u, out: out}, nil
}

func (n *urlNavigator) Navigate(target string) {
	ref, err := url.Parse(target)
	if err != nil {
		// still show the user where the page wanted to go
		n.last = target
	} else {
		n.last = n.base.ResolveReference(ref).String()
	}
	fmt.Fprintf(n.out, "Open %s to define the role.\n", n.last)
}
