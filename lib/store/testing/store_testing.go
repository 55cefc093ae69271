package testing

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/tKV/lib/command"
	"github.com/ValentinKolb/tKV/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Missing", func(t *testing.T) {
			testMissing(t, factory())
		})

		t.Run("QuotedArguments", func(t *testing.T) {
			testQuotedArguments(t, factory())
		})

		t.Run("ParseErrors", func(t *testing.T) {
			testParseErrors(t, factory())
		})

		t.Run("Apply", func(t *testing.T) {
			testApply(t, factory())
		})

		t.Run("Session", func(t *testing.T) {
			testSession(t, factory())
		})

		t.Run("ConcurrentDisjointKeys", func(t *testing.T) {
			testConcurrentDisjointKeys(t, factory())
		})

		t.Run("ConcurrentSameKey", func(t *testing.T) {
			testConcurrentSameKey(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// mustExecute runs a line and fails the test if it returns an error
func mustExecute(t testing.TB, s store.IStore, line string) string {
	t.Helper()
	res, err := s.Execute(line)
	if err != nil {
		t.Fatalf("Execute(%q) returned unexpected error: %v", line, err)
	}
	return res
}

// expectNotFound runs a line and fails the test unless it reports a missing key
func expectNotFound(t testing.TB, s store.IStore, line string) {
	t.Helper()
	res, err := s.Execute(line)
	if err == nil {
		t.Fatalf("Execute(%q) expected not found error, got result %q", line, res)
	}
	if !store.IsNotFound(err) {
		t.Errorf("Execute(%q) expected not found error, got %v", line, err)
	}
	if err.Error() != store.NotFoundMsg {
		t.Errorf("Expected error message %q, got %q", store.NotFoundMsg, err.Error())
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	res := mustExecute(t, s, "set test-key test-value")
	if res != "Key 'test-key' set to 'test-value'" {
		t.Errorf("Unexpected set result: %q", res)
	}

	res = mustExecute(t, s, "get test-key")
	if res != "test-value" {
		t.Errorf("Expected value test-value, got %q", res)
	}

	if s.Len() != 1 {
		t.Errorf("Expected 1 key, got %d", s.Len())
	}
}

func testOverwrite(t *testing.T, s store.IStore) {
	mustExecute(t, s, "set test-key v1")

	res := mustExecute(t, s, "set test-key v2")
	if res != "Updated key 'test-key' from 'v1' to 'v2'" {
		t.Errorf("Unexpected overwrite result: %q", res)
	}

	res = mustExecute(t, s, "get test-key")
	if res != "v2" {
		t.Errorf("Expected last write v2, got %q", res)
	}

	if s.Len() != 1 {
		t.Errorf("Expected 1 key after overwrite, got %d", s.Len())
	}
}

func testDelete(t *testing.T, s store.IStore) {
	mustExecute(t, s, "set test-key test-value")

	res := mustExecute(t, s, "del test-key")
	if res != "Previous value: 'test-value'" {
		t.Errorf("Unexpected delete result: %q", res)
	}

	expectNotFound(t, s, "get test-key")
	expectNotFound(t, s, "del test-key")

	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d keys", s.Len())
	}
}

func testMissing(t *testing.T, s store.IStore) {
	expectNotFound(t, s, "get nonexistent-key")
	expectNotFound(t, s, "del nonexistent-key")
	expectNotFound(t, s, "GET nonexistent-key")
}

func testQuotedArguments(t *testing.T, s store.IStore) {
	res := mustExecute(t, s, `SET "a b" "c d e"`)
	if res != "Key 'a b' set to 'c d e'" {
		t.Errorf("Unexpected set result: %q", res)
	}

	res = mustExecute(t, s, `GET "a b"`)
	if res != "c d e" {
		t.Errorf("Expected value %q, got %q", "c d e", res)
	}

	// the unquoted key is a different key
	expectNotFound(t, s, "get a")

	res = mustExecute(t, s, `set "programming language" "The Go Programming Language"`)
	if res != "Key 'programming language' set to 'The Go Programming Language'" {
		t.Errorf("Unexpected set result: %q", res)
	}
}

func testParseErrors(t *testing.T, s store.IStore) {
	lines := map[string]string{
		"":                  "Command not provided",
		"unknown":           "Invalid command",
		"get":               "Expected argument {key}",
		"set key":           "Expected argument {value}",
		"del a b":           "Unexpected argument b",
		`get "open`:         "Expected string termination",
		`set k va"lue`:      "Unexpected string initializer",
		"set a b c":         "Unexpected argument c",
		"  \t \r\n":         "Command not provided",
		"incr counter":      "Invalid command",
		`set "a" "b" "c d"`: "Unexpected argument c d",
	}

	for line, expected := range lines {
		_, err := s.Execute(line)
		if err == nil {
			t.Errorf("Execute(%q) expected error %q, got nil", line, expected)
			continue
		}
		if err.Error() != expected {
			t.Errorf("Execute(%q) expected error %q, got %q", line, expected, err.Error())
		}
		if store.IsNotFound(err) {
			t.Errorf("Execute(%q) parse error must not be reported as not found", line)
		}
	}

	if s.Len() != 0 {
		t.Errorf("Rejected commands must not modify the store, got %d keys", s.Len())
	}
}

func testApply(t *testing.T, s store.IStore) {
	res, err := s.Apply(command.NewSet("k", "v"))
	if err != nil {
		t.Fatalf("Apply(set) returned unexpected error: %v", err)
	}
	if res != store.MsgSet("k", "v") {
		t.Errorf("Unexpected result %q", res)
	}

	res, err = s.Apply(command.NewGet("k"))
	if err != nil || res != "v" {
		t.Errorf("Apply(get) = (%q, %v), want (\"v\", nil)", res, err)
	}

	res, err = s.Apply(command.NewDel("k"))
	if err != nil || res != store.MsgDeleted("v") {
		t.Errorf("Apply(del) = (%q, %v)", res, err)
	}

	if _, err := s.Apply(command.NewGet("k")); !store.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
}

// testSession replays the reference client session
func testSession(t *testing.T, s store.IStore) {
	steps := []struct {
		line     string
		expected string
		fails    bool
	}{
		{"set lang go", "Key 'lang' set to 'go'", false},
		{"get lang", "go", false},
		{"set lang c", "Updated key 'lang' from 'go' to 'c'", false},
		{"del lang", "Previous value: 'c'", false},
		{"get lang", "None", true},
	}

	for i, step := range steps {
		res, err := s.Execute(step.line)
		if step.fails {
			if err == nil || err.Error() != step.expected {
				t.Errorf("step %d (%q): expected error %q, got (%q, %v)", i, step.line, step.expected, res, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("step %d (%q): unexpected error %v", i, step.line, err)
			continue
		}
		if res != step.expected {
			t.Errorf("step %d (%q): expected %q, got %q", i, step.line, step.expected, res)
		}
	}
}

// testConcurrentDisjointKeys lets many clients work on their own keys and checks that
// every client observes exactly its own writes
func testConcurrentDisjointKeys(t *testing.T, s store.IStore) {
	numWorkers := 16
	opsPerWorker := 500

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	var errorCount int32

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", workerId, i%10)
				value := fmt.Sprintf("worker-%d-value-%d", workerId, i)

				if _, err := s.Execute(fmt.Sprintf("set %s %s", key, value)); err != nil {
					atomic.AddInt32(&errorCount, 1)
					continue
				}

				got, err := s.Execute("get " + key)
				if err != nil || got != value {
					atomic.AddInt32(&errorCount, 1)
					continue
				}

				if i%3 == 0 {
					if _, err := s.Execute("del " + key); err != nil {
						atomic.AddInt32(&errorCount, 1)
					}
					if _, err := s.Execute("get " + key); !store.IsNotFound(err) {
						atomic.AddInt32(&errorCount, 1)
					}
				}
			}
		}(w)
	}

	wg.Wait()

	if errorCount > 0 {
		t.Errorf("Observed %d inconsistent operations on disjoint keys", errorCount)
	}
}

// testConcurrentSameKey checks that concurrent writers to one key leave exactly
// one of the submitted values behind
func testConcurrentSameKey(t *testing.T, s store.IStore) {
	numWorkers := 32

	submitted := make(map[string]bool, numWorkers)
	for w := 0; w < numWorkers; w++ {
		submitted[fmt.Sprintf("value-%d-%s", w, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")] = true
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for value := range submitted {
		go func(v string) {
			defer wg.Done()
			if _, err := s.Apply(command.NewSet("shared", v)); err != nil {
				t.Errorf("Apply(set) returned unexpected error: %v", err)
			}
		}(value)
	}

	wg.Wait()

	got := mustExecute(t, s, "get shared")
	if !submitted[got] {
		t.Errorf("Final value %q is not one of the submitted values", got)
	}

	if s.Len() != 1 {
		t.Errorf("Expected exactly 1 key, got %d", s.Len())
	}
}
