package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/netmagis/netmagis-ui/pkg/broadcast"
	"github.com/netmagis/netmagis-ui/pkg/session"
)

// greeting renders the user and one translated message.
var greeting = ComponentFunc(func(w io.Writer, rc RenderContext) error {
	user := rc.View.User
	if user == "" {
		user = "-"
	}
	_, err := fmt.Fprintf(w, "%s|%s|%v", rc.T("hello"), user, rc.Can("admin"))
	return err
})

func viewOf(user, lang string, bundle map[string]string, tokens ...string) session.View {
	return session.View{Snapshot: session.Snapshot{
		User:         user,
		Language:     lang,
		Capabilities: session.NewCapabilities(tokens...),
		Translations: bundle,
	}}
}

// recordingAnchor collects every rendering.
type recordingAnchor struct {
	mu     sync.Mutex
	frames []string
}

func (a *recordingAnchor) Replace(html []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frames = append(a.frames, string(html))
	return nil
}

func (a *recordingAnchor) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.frames) == 0 {
		return ""
	}
	return a.frames[len(a.frames)-1]
}

func TestRootRender(t *testing.T) {
	src := broadcast.New(viewOf("jdoe", "fr", map[string]string{"hello": "Bonjour"}, "logged", "admin"))
	root := NewRoot(src, greeting)

	var b strings.Builder
	if err := root.Render(&b, src.Current()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b.String() != "Bonjour|jdoe|true" {
		t.Errorf("Render = %q", b.String())
	}
}

func TestRootRenderMissingKeyFallsBack(t *testing.T) {
	src := broadcast.New(viewOf("", "C", nil))
	root := NewRoot(src, greeting)

	var b strings.Builder
	if err := root.Render(&b, src.Current()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b.String() != "hello|-|false" {
		t.Errorf("Render = %q", b.String())
	}
}

func TestMountRequiresAnchor(t *testing.T) {
	root := NewRoot(broadcast.New(session.View{}), greeting)
	if _, err := root.Mount(nil); !errors.Is(err, ErrNoAnchor) {
		t.Errorf("Mount(nil) = %v, want ErrNoAnchor", err)
	}

	empty := NewRoot(broadcast.New(session.View{}), nil)
	if _, err := empty.Mount(&recordingAnchor{}); !errors.Is(err, ErrNoComponent) {
		t.Errorf("Mount without tree = %v, want ErrNoComponent", err)
	}
}

func TestMountRerendersOnEveryPublish(t *testing.T) {
	src := broadcast.New(viewOf("", "C", map[string]string{"hello": "Hello"}))
	root := NewRoot(src, greeting)
	anchor := &recordingAnchor{}

	unmount, err := root.Mount(anchor)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got := anchor.last(); got != "Hello|-|false" {
		t.Fatalf("first frame = %q", got)
	}

	src.Publish(viewOf("jdoe", "fr", map[string]string{"hello": "Bonjour"}, "logged", "admin"))
	waitFrame(t, anchor, "Bonjour|jdoe|true")

	unmount()
	unmount() // idempotent
	if src.Len() != 0 {
		t.Errorf("subscribers after unmount = %d, want 0", src.Len())
	}
}

func TestMountReportsFirstRenderFailure(t *testing.T) {
	boom := errors.New("boom")
	root := NewRoot(broadcast.New(session.View{}), ComponentFunc(func(io.Writer, RenderContext) error {
		return boom
	}))
	if _, err := root.Mount(&recordingAnchor{}); !errors.Is(err, boom) {
		t.Errorf("Mount = %v, want boom", err)
	}
}

func waitFrame(t *testing.T, a *recordingAnchor, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for a.last() != want {
		if time.Now().After(deadline) {
			t.Fatalf("last frame = %q, want %q", a.last(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
