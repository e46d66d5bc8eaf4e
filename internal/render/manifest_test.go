package render

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_PutGet(t *testing.T) {
	m, err := OpenManifest(t.TempDir())
	require.NoError(t, err)

	want := Entry{
		File:        "1.25U_LCtrl.3mf",
		Variant:     "1.25U_LCtrl",
		Fingerprint: "abc",
		RenderedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    90 * time.Second,
	}
	require.NoError(t, m.Put(want))

	got, err := m.Get(want.File)
	require.NoError(t, err)
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	n, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenManifest_WritesIgnoreFile(t *testing.T) {
	out := t.TempDir()
	m, err := OpenManifest(out)
	require.NoError(t, err)

	path := filepath.Join(out, ManifestDir, ".gitignore")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, lines(string(data)), "*")

	require.NoError(t, os.WriteFile(path, []byte("mine\n"), 0o600))
	_, err = OpenManifest(out)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine\n", string(data), "an existing file is kept")

	n, err := m.Count()
	require.NoError(t, err)
	assert.Zero(t, n, ".gitignore is not a record")
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestManifest_Missing(t *testing.T) {
	m, err := OpenManifest(t.TempDir())
	require.NoError(t, err)

	_, err = m.Get("nope.stl")
	require.ErrorIs(t, err, ErrNoEntry)

	_, err = m.Get("")
	require.ErrorIs(t, err, ErrInvalidEntryKey)
	require.ErrorIs(t, m.Put(Entry{}), ErrInvalidEntryKey)
}

func TestManifest_Delete(t *testing.T) {
	m, err := OpenManifest(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Put(Entry{File: "A.stl", Fingerprint: "1"}))
	require.NoError(t, m.Delete("A.stl"))
	require.NoError(t, m.Delete("A.stl"), "deleting twice is fine")

	_, err = m.Get("A.stl")
	require.ErrorIs(t, err, ErrNoEntry)
}

func TestManifest_EscapesNames(t *testing.T) {
	dir := t.TempDir()
	m, err := OpenManifest(dir)
	require.NoError(t, err)

	require.NoError(t, m.Put(Entry{File: "a/b:c.stl", Fingerprint: "1"}))
	_, err = os.Stat(filepath.Join(dir, ManifestDir, "a%2Fb%3Ac.stl.json"))
	require.NoError(t, err)
}

func TestManifest_DistinctNamesKeepDistinctRecords(t *testing.T) {
	m, err := OpenManifest(t.TempDir())
	require.NoError(t, err)

	names := []string{"a:b.stl", "a_b.stl", "a/b.stl", "a%3Ab.stl"}
	for i, name := range names {
		require.NoError(t, m.Put(Entry{File: name, Fingerprint: string(rune('0' + i))}))
	}

	for i, name := range names {
		got, getErr := m.Get(name)
		require.NoError(t, getErr, name)
		assert.Equal(t, name, got.File)
		assert.Equal(t, string(rune('0'+i)), got.Fingerprint, name)

		unescaped, unescapeErr := url.QueryUnescape(
			filepath.Base(m.keyToFilePath(name))[:len(url.QueryEscape(name))])
		require.NoError(t, unescapeErr)
		assert.Equal(t, name, unescaped)
	}

	n, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, len(names), n)
}

func TestReadManifest(t *testing.T) {
	out := t.TempDir()

	m := ReadManifest(out)
	_, err := m.Get("A.stl")
	require.ErrorIs(t, err, ErrNoEntry)
	n, err := m.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.ErrorIs(t, m.Put(Entry{File: "A.stl"}), ErrReadOnlyManifest)
	require.ErrorIs(t, m.Delete("A.stl"), ErrReadOnlyManifest)
	assert.NoDirExists(t, filepath.Join(out, ManifestDir))

	rw, err := OpenManifest(out)
	require.NoError(t, err)
	require.NoError(t, rw.Put(Entry{File: "A.stl", Fingerprint: "f"}))

	got, err := m.Get("A.stl")
	require.NoError(t, err)
	assert.Equal(t, "f", got.Fingerprint)
}

func TestManifest_ConcurrentPut(t *testing.T) {
	m, err := OpenManifest(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Put(Entry{File: string(rune('a'+i)) + ".stl", Fingerprint: "x"}))
		}()
	}
	wg.Wait()

	n, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]string{"-D", "A=1"})
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]string{"-D", "A=1"}))
	assert.NotEqual(t, a, Fingerprint([]string{"-DA=1"}))
	assert.NotEqual(t, Fingerprint([]string{"ab", "c"}), Fingerprint([]string{"a", "bc"}))
}
