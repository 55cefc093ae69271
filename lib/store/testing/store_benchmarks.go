package testing

import (
	"fmt"
	"sync/atomic"
	"testing"
)

// RunStoreBenchmarks runs all benchmarks for a store implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory)
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory)
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory)
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory)
	})

	b.Run("Parse+Get(quoted)", func(b *testing.B) {
		benchmarkQuotedGet(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, factory StoreFactory) {
	s := factory()

	var id atomic.Uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		worker := id.Add(1)
		counter := 0
		for pb.Next() {
			_, _ = s.Execute(fmt.Sprintf("set test-key-%d-%d test-value-%d", worker, counter, counter))
			counter++
		}
	})
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, factory StoreFactory) {
	s := factory()

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		_, _ = s.Execute(fmt.Sprintf("set test-key-%d initial", i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = s.Execute(fmt.Sprintf("set test-key-%d updated-%d", counter%numKeys, counter))
			counter++
		}
	})
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, factory StoreFactory) {
	s := factory()

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		_, _ = s.Execute(fmt.Sprintf("set test-key-%d test-value-%d", i, i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = s.Execute(fmt.Sprintf("get test-key-%d", counter%numKeys))
			counter++
		}
	})
}

// Benchmark for Delete operation (keys are recreated so that every delete hits)
func benchmarkDelete(b *testing.B, factory StoreFactory) {
	s := factory()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%100)
			_, _ = s.Execute("set " + key + " v")
			_, _ = s.Execute("del " + key)
			counter++
		}
	})
}

// Benchmark for lines that need the quoted literal path of the tokenizer
func benchmarkQuotedGet(b *testing.B, factory StoreFactory) {
	s := factory()
	_, _ = s.Execute(`set "a key with spaces" "a value with spaces"`)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = s.Execute(`GET    "a key with spaces"   `)
		}
	})
}

// Benchmark for a mix of 70% reads, 20% writes and 10% deletes
func benchmarkMixedUsage(b *testing.B, factory StoreFactory) {
	s := factory()

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		_, _ = s.Execute(fmt.Sprintf("set test-key-%d test-value-%d", i, i))
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			switch counter % 10 {
			case 0:
				_, _ = s.Execute("del " + key)
			case 1, 2:
				_, _ = s.Execute("set " + key + " mixed")
			default:
				_, _ = s.Execute("get " + key)
			}
			counter++
		}
	})
}
