package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/enmity/internal/logbuf"
)

type fakeModule struct{ path string }

func (m fakeModule) Path() string { return m.path }

// fakeOpener opens any file as a fakeModule unless err or panicMsg is set.
type fakeOpener struct {
	mu       sync.Mutex
	err      error
	panicMsg string
	opened   []string
}

func (o *fakeOpener) Ext() string { return ".dll" }

func (o *fakeOpener) Open(path string) (Module, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, path)
	if o.panicMsg != "" {
		panic(o.panicMsg)
	}
	if o.err != nil {
		return nil, o.err
	}
	return fakeModule{path: path}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (n *recordingNotifier) ShowError(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fixture struct {
	base     string
	opener   *fakeOpener
	notifier *recordingNotifier
	buf      *logbuf.Buffer
	reg      *prometheus.Registry
	r        *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		base:     t.TempDir(),
		opener:   &fakeOpener{},
		notifier: &recordingNotifier{},
		buf:      logbuf.New(logbuf.WithMode(logbuf.ModeDiagnostic)),
		reg:      prometheus.NewRegistry(),
	}
	f.r = New(f.base, f.opener,
		WithLogger(logbuf.NewLogger(f.buf)),
		WithNotifier(f.notifier),
		WithRegisterer(f.reg),
		WithLocale("en"),
	)
	return f
}

func (f *fixture) touch(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(f.base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("module"), 0o644))
	return path
}

func (f *fixture) lookups(outcome string) float64 {
	return testutil.ToFloat64(f.r.metrics.lookups.WithLabelValues(outcome))
}

func TestCandidatePath(t *testing.T) {
	r := New("/base", &fakeOpener{})

	tests := []struct {
		id   string
		want string
	}{
		{"Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null", filepath.Join("/base", "Foo.dll")},
		{"Foo, Version=1.0.0.0, Culture=ja-JP, PublicKeyToken=null", filepath.Join("/base", "ja-JP", "Foo.dll")},
		{"Foo.resources, Version=2.1.0.0, Culture=de, PublicKeyToken=b77a5c561934e089", filepath.Join("/base", "de", "Foo.resources.dll")},
		{"Bar", filepath.Join("/base", "Bar.dll")},
		{"Foo, Version=1.0.0.0", filepath.Join("/base", "Foo, Version=1.0.0.0.dll")},
	}

	for _, tt := range tests {
		got, ok := r.CandidatePath(ParseIdentifier(tt.id))
		require.True(t, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestCandidatePathRejectsEscapes(t *testing.T) {
	r := New("/base", &fakeOpener{})

	for _, id := range []string{
		"../evil",
		"Foo, Version=1, Culture=../.., PublicKeyToken=null",
	} {
		_, ok := r.CandidatePath(ParseIdentifier(id))
		assert.False(t, ok, id)
	}
}

func TestResolveNeutral(t *testing.T) {
	f := newFixture(t)
	path := f.touch(t, "Foo.dll")

	mod, ok := f.r.Resolve("Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null")

	require.True(t, ok)
	assert.Equal(t, path, mod.Path())
	assert.Equal(t, []string{path}, f.opener.opened)
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, 1.0, f.lookups(outcomeFound))
}

func TestResolveLocalized(t *testing.T) {
	f := newFixture(t)
	f.touch(t, "Foo.dll")
	path := f.touch(t, filepath.Join("ja-JP", "Foo.dll"))

	mod, ok := f.r.Resolve("Foo, Version=1.0.0.0, Culture=ja-JP, PublicKeyToken=null")

	require.True(t, ok)
	assert.Equal(t, path, mod.Path())
}

func TestResolveBareMissing(t *testing.T) {
	f := newFixture(t)

	mod, ok := f.r.Resolve("Bar")

	assert.False(t, ok)
	assert.Nil(t, mod)
	assert.Empty(t, f.opener.opened)
	assert.Equal(t, 0, f.notifier.count())
	for _, e := range f.buf.Snapshot() {
		assert.Equal(t, logbuf.LevelDebug, e.Level, e.Message)
	}
	assert.Equal(t, 1.0, f.lookups(outcomeNotFound))
}

func TestResolveDirectoryIsNotAMatch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.base, "Baz.dll"), 0o755))

	_, ok := f.r.Resolve("Baz")
	assert.False(t, ok)
	assert.Empty(t, f.opener.opened)
}

func TestResolveUnreachableCandidateIsSilent(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		id    string
	}{
		{
			name:  "culture segment is a file",
			setup: func(t *testing.T, f *fixture) { f.touch(t, "ja-JP") },
			id:    "Foo, Version=1.0.0.0, Culture=ja-JP, PublicKeyToken=null",
		},
		{
			name:  "name too long",
			setup: func(*testing.T, *fixture) {},
			id:    strings.Repeat("a", 300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)

			mod, ok := f.r.Resolve(tt.id)

			assert.False(t, ok)
			assert.Nil(t, mod)
			assert.Empty(t, f.opener.opened)
			assert.Equal(t, 0, f.notifier.count())
			for _, e := range f.buf.Snapshot() {
				assert.Equal(t, logbuf.LevelDebug, e.Level, e.Message)
			}
			assert.Equal(t, 1.0, f.lookups(outcomeNotFound))
		})
	}
}

func TestResolveFailureClasses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		class   FailureClass
		snippet string
	}{
		{"access denied", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}, FailureAccessDenied, "security policy"},
		{"blocked sentinel", fmt.Errorf("zone check: %w", ErrAccessDenied), FailureAccessDenied, "security policy"},
		{"locked sentinel", fmt.Errorf("%w: x", ErrLocked), FailureLocked, "in use"},
		{"other", errors.New("bad image format"), FailureOther, "could not be loaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			path := f.touch(t, "Foo.dll")
			f.opener.err = tt.err

			mod, ok := f.r.Resolve("Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null")

			assert.False(t, ok)
			assert.Nil(t, mod)
			assert.Equal(t, tt.class, Classify(tt.err))
			require.Equal(t, 1, f.notifier.count())
			assert.Contains(t, f.notifier.messages[0], tt.snippet)
			assert.Contains(t, f.notifier.messages[0], path)

			var errCount int
			for _, e := range f.buf.Snapshot() {
				if e.Level == logbuf.LevelError {
					errCount++
				}
			}
			assert.Equal(t, 2, errCount)
			assert.Equal(t, 1.0, f.lookups(tt.class.String()))
		})
	}
}

func TestResolveRecoversOpenerPanic(t *testing.T) {
	f := newFixture(t)
	f.touch(t, "Foo.dll")
	f.opener.panicMsg = "boom"

	var ok bool
	require.NotPanics(t, func() {
		_, ok = f.r.Resolve("Foo")
	})
	assert.False(t, ok)
	require.Equal(t, 1, f.notifier.count())
	assert.Contains(t, f.notifier.messages[0], "could not be loaded")
}

type panickingNotifier struct{}

func (panickingNotifier) ShowError(string, string) { panic("no dialog") }

func TestResolveRecoversNotifierPanic(t *testing.T) {
	f := newFixture(t)
	f.touch(t, "Foo.dll")
	f.opener.err = errors.New("bad")
	r := New(f.base, f.opener, WithNotifier(panickingNotifier{}))

	var ok bool
	require.NotPanics(t, func() {
		_, ok = r.Resolve("Foo")
	})
	assert.False(t, ok)
}

func TestResolveLocalizedMessages(t *testing.T) {
	f := newFixture(t)
	f.touch(t, "Foo.dll")
	f.opener.err = errors.New("bad")
	r := New(f.base, f.opener, WithNotifier(f.notifier), WithLocale("ja-JP"))

	_, ok := r.Resolve("Foo")
	assert.False(t, ok)
	require.Equal(t, 1, f.notifier.count())
	assert.Contains(t, f.notifier.titles[0], "エラー")
}

func TestResolveConcurrent(t *testing.T) {
	f := newFixture(t)
	f.touch(t, "Foo.dll")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, ok := f.r.Resolve("Foo")
				assert.True(t, ok)
			} else {
				_, ok := f.r.Resolve("Missing")
				assert.False(t, ok)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8.0, f.lookups(outcomeFound))
	assert.Equal(t, 8.0, f.lookups(outcomeNotFound))
}

func TestMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(t.TempDir(), &fakeOpener{}, WithRegisterer(reg))
	b := New(t.TempDir(), &fakeOpener{}, WithRegisterer(reg))

	a.Resolve("x")
	b.Resolve("y")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.metrics.lookups.WithLabelValues(outcomeNotFound)))
}

func TestResolveWithoutMetrics(t *testing.T) {
	r := New(t.TempDir(), &fakeOpener{})
	assert.Nil(t, r.metrics)
	_, ok := r.Resolve("x")
	assert.False(t, ok)
}
