package store

import (
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{}
	token := gen.Generate()

	parsed, err := uuid.Parse(token)
	if err != nil {
		t.Fatalf("token %q is not a valid UUID: %v", token, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("version = %d, want 7", parsed.Version())
	}

	// Hyphenated format: 8-4-4-4-12
	hyphenated := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if !hyphenated.MatchString(token) {
		t.Errorf("token %q is not hyphenated lowercase hex", token)
	}
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	const iterations = 1000

	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		token := gen.Generate()
		if seen[token] {
			t.Fatalf("token %s generated twice", token)
		}
		seen[token] = true
	}
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
	const goroutines = 100

	tokens := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- gen.Generate()
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]bool)
	for token := range tokens {
		if seen[token] {
			t.Errorf("duplicate token %s", token)
		}
		seen[token] = true
	}
	if len(seen) != goroutines {
		t.Errorf("got %d unique tokens, want %d", len(seen), goroutines)
	}
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("run-1", "run-2", "run-3")

	for _, want := range []string{"run-1", "run-2", "run-3"} {
		if got := gen.Generate(); got != want {
			t.Errorf("Generate() = %q, want %q", got, want)
		}
	}
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("run-1")

	if got := gen.Generate(); got != "run-1" {
		t.Fatalf("Generate() = %q, want run-1", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic when all tokens exhausted")
		}
	}()
	gen.Generate()
}

func TestFixedGenerator_EmptyTokens(t *testing.T) {
	gen := NewFixedGenerator()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when no tokens provided")
		}
	}()
	gen.Generate()
}
