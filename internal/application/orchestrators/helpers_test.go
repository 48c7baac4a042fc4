package orchestrators

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var testTime = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

// seqIDs returns a generator of "<prefix>-1", "<prefix>-2", ...
func seqIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// memFiles is an in-memory FileWriter.
type memFiles struct {
	files   map[string][]byte
	removed []string
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Write(name string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.files[name] = b
	return int64(len(b)), nil
}

func (m *memFiles) Remove(name string) error {
	delete(m.files, name)
	m.removed = append(m.removed, name)
	return nil
}
