// Package browser drives the headless rendering session used for detail pages.
//
// A Session holds exactly one live page. Navigating it replaces that page, so
// any handle obtained before a navigation must not be read afterwards; the
// Fetcher enforces this with DetailPage generations.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout is returned when a selector never appears within the wait budget.
	ErrWaitTimeout = errors.New("browser: wait timeout")
	// ErrStalePage is returned when a DetailPage is read after a later navigation.
	ErrStalePage = errors.New("browser: stale detail page")
	// ErrSessionClosed is returned by sessions used after Close.
	ErrSessionClosed = errors.New("browser: session closed")
)

// Element is a node of the rendered page.
type Element interface {
	// Text returns the rendered text of the element.
	Text() (string, error)
	// Children returns descendants with the given tag name in document order.
	Children(tag string) ([]Element, error)
}

// Session is a stateful rendering engine with a single current page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches on the current page or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// WaitForAll blocks until selector matches at least once and returns every match.
	WaitForAll(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)
	Close() error
}

// Launcher starts a Session.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Session, error)

// Launch calls f(ctx).
func (f LauncherFunc) Launch(ctx context.Context) (Session, error) {
	return f(ctx)
}
