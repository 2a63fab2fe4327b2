// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-books-records/browser"
)

// Element is a canned node. Err, when set, is returned by Text.
type Element struct {
	Content  string
	Err      error
	Kids     map[string][]*Element
	ChildErr error
}

// Text implements browser.Element.
func (e *Element) Text() (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	return e.Content, nil
}

// Children implements browser.Element.
func (e *Element) Children(tag string) ([]browser.Element, error) {
	if e.ChildErr != nil {
		return nil, e.ChildErr
	}
	return toElements(e.Kids[tag]), nil
}

// Page maps selectors to the elements they match.
type Page map[string][]*Element

// Session serves Pages keyed by URL. Unknown URLs load an empty page, so
// every wait on them times out.
type Session struct {
	Pages map[string]Page
	// NavigateErr fails navigation to the listed URLs.
	NavigateErr map[string]error

	mu          sync.Mutex
	current     Page
	navigations []string
	waits       []time.Duration
	closeCount  int
}

// NewSession returns a session serving pages.
func NewSession(pages map[string]Page) *Session {
	return &Session{Pages: pages, NavigateErr: map[string]error{}}
}

// Navigate implements browser.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCount > 0 {
		return browser.ErrSessionClosed
	}
	s.navigations = append(s.navigations, url)
	if err := s.NavigateErr[url]; err != nil {
		s.current = nil
		return err
	}
	s.current = s.Pages[url]
	return nil
}

// WaitFor implements browser.Session.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	found, err := s.lookup(ctx, selector, timeout)
	if err != nil {
		return nil, err
	}
	return found[0], nil
}

// WaitForAll implements browser.Session.
func (s *Session) WaitForAll(ctx context.Context, selector string, timeout time.Duration) ([]browser.Element, error) {
	found, err := s.lookup(ctx, selector, timeout)
	if err != nil {
		return nil, err
	}
	return toElements(found), nil
}

// Close implements browser.Session and counts calls.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCount++
	return nil
}

// Navigations returns every URL navigated to, in order.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.navigations))
	copy(out, s.navigations)
	return out
}

// Waits returns the timeout passed to every wait, in order.
func (s *Session) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.waits))
	copy(out, s.waits)
	return out
}

// CloseCount reports how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

// Launcher returns a browser.Launcher handing out s.
func (s *Session) Launcher() browser.Launcher {
	return browser.LauncherFunc(func(ctx context.Context) (browser.Session, error) {
		return s, nil
	})
}

func (s *Session) lookup(ctx context.Context, selector string, timeout time.Duration) ([]*Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCount > 0 {
		return nil, browser.ErrSessionClosed
	}
	s.waits = append(s.waits, timeout)
	found := s.current[selector]
	if len(found) == 0 {
		return nil, fmt.Errorf("wait for %q: %w", selector, browser.ErrWaitTimeout)
	}
	return found, nil
}

func toElements(in []*Element) []browser.Element {
	out := make([]browser.Element, 0, len(in))
	for _, e := range in {
		out = append(out, e)
	}
	return out
}

// Text is shorthand for an element with content.
func Text(content string) *Element {
	return &Element{Content: content}
}

// Row builds a table row with a th and a td cell.
func Row(header, data string) *Element {
	return &Element{Kids: map[string][]*Element{
		"th": {Text(header)},
		"td": {Text(data)},
	}}
}

// Table builds a table element holding rows.
func Table(rows ...*Element) *Element {
	return &Element{Kids: map[string][]*Element{"tr": rows}}
}
