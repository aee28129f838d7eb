package main

import (
	"fmt"
	"os"
	"sync"
)

// consoleNavigator stands in for the browser location. Commands mark the
// area they operate in; a forced logout picks the matching login route and
// tells the user where to sign back in.
type consoleNavigator struct {
	mu   sync.Mutex
	path string
}

func (n *consoleNavigator) visit(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
}

func (n *consoleNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *consoleNavigator) Replace(path string) {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
	fmt.Fprintf(os.Stderr, "session ended, sign in again at %s\n", path)
}
