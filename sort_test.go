package extsort_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/bsm/extsort"
	"github.com/bsm/extsort/buffer"
)

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatal(err)
	}
	return len(entries)
}

func collect[T any](ch <-chan T) []T {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestS1_CountBoundedBufferOnStrings(t *testing.T) {
	root := t.TempDir()
	input := extsort.FromChan(stringChan([]string{"banana", "apple", "cherry"}))

	out, errc := extsort.Strings(context.Background(), input,
		extsort.WithThreads[string](1),
		extsort.WithTempDir[string](root),
		extsort.WithBuffer[string](buffer.NewCountBuilder[string](2)),
	)

	got := collect(out)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if n := countEntries(t, root); n != 0 {
		t.Fatalf("expected working directory removed after drop, found %d entries under %s", n, root)
	}
}

func TestS2_ShuffledIntegersWithMemoryBudget(t *testing.T) {
	const n = 10000
	values := make([]int, n)
	for i := range values {
		values[i] = i + 1
	}
	rnd := rand.New(rand.NewSource(42))
	rnd.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	in := make(chan extsort.Result[int])
	go func() {
		defer close(in)
		for _, v := range values {
			in <- extsort.Result[int]{Value: v}
		}
	}()

	sizer := func(v int) int64 { return 8 }
	out, errc := extsort.Sort[int](context.Background(), in,
		extsort.WithThreads[int](4),
		extsort.WithComparator[int](func(a, b int) int { return a - b }),
		extsort.WithCodec[int](testCodec{}),
		extsort.WithBuffer[int](buffer.NewMemoryBuilder[int](64<<10, sizer)),
	)

	var got []int
	for v := range out {
		got = append(got, v)
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != n {
		t.Fatalf("got %d items, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("output not ascending at index %d: got %d, want %d", i, v, i+1)
		}
	}
}

func TestS3_EmptyInput(t *testing.T) {
	root := t.TempDir()
	in := make(chan extsort.Result[string])
	close(in)

	out, errc := extsort.Strings(context.Background(), in, extsort.WithTempDir[string](root))
	got := collect(out)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no output, got %v", got)
	}
}

func TestS4_AllEqualKeys(t *testing.T) {
	in := make(chan extsort.Result[int])
	go func() {
		defer close(in)
		for i := 0; i < 4; i++ {
			in <- extsort.Result[int]{Value: 5}
		}
	}()

	out, errc := extsort.Ordered[int](context.Background(), in, extsort.WithThreads[int](2))
	got := collect(out)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{5, 5, 5, 5}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestS5_InputErrorAbortsAndCleansUp(t *testing.T) {
	root := t.TempDir()
	boom := fmt.Errorf("upstream read failed")
	in := make(chan extsort.Result[string], 4)
	in <- extsort.Result[string]{Value: "a"}
	in <- extsort.Result[string]{Value: "b"}
	in <- extsort.Result[string]{Value: "c"}
	in <- extsort.Result[string]{Err: boom}
	close(in)

	out, errc := extsort.Strings(context.Background(), in, extsort.WithTempDir[string](root))
	for range out {
	}
	err := <-errc
	if err != boom {
		t.Fatalf("got error %v, want %v", err, boom)
	}
	if n := countEntries(t, root); n != 0 {
		t.Fatalf("expected working directory removed after abort, found %d entries", n)
	}
}

func TestAlreadySortedInputRoundTrips(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e"}
	in := extsort.FromChan(stringChan(values))
	out, errc := extsort.Strings(context.Background(), in, extsort.WithBuffer[string](buffer.NewCountBuilder[string](2)))
	got := collect(out)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(values) {
		t.Fatalf("got %v, want %v", got, values)
	}
}

func TestReverseSortedInputRoundTrips(t *testing.T) {
	values := []string{"e", "d", "c", "b", "a"}
	want := []string{"a", "b", "c", "d", "e"}
	in := extsort.FromChan(stringChan(values))
	out, errc := extsort.Strings(context.Background(), in, extsort.WithBuffer[string](buffer.NewCountBuilder[string](2)))
	got := collect(out)
	if err := <-errc; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInvalidConfigReturnsConfigErrorWithoutRunning(t *testing.T) {
	in := make(chan extsort.Result[string])
	close(in)

	out, errc := extsort.Strings(context.Background(), in, extsort.WithThreads[string](0))
	for range out {
		t.Fatal("expected closed, empty output on config error")
	}
	err := <-errc
	if _, ok := err.(*extsort.ConfigError); !ok {
		t.Fatalf("got error %T (%v), want *extsort.ConfigError", err, err)
	}
}

func stringChan(values []string) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, v := range values {
			ch <- v
		}
	}()
	return ch
}

// testCodec is a minimal Codec[int] used by tests that do not want to pull
// in the gob/msgpack encoding overhead for a plain integer payload.
type testCodec struct{}

func (testCodec) Encode(item int) ([]byte, error) {
	return []byte{byte(item), byte(item >> 8), byte(item >> 16), byte(item >> 24)}, nil
}

func (testCodec) Decode(data []byte) (int, error) {
	return int(data[0]) | int(data[1])<<8 | int(data[2])<<16 | int(data[3])<<24, nil
}
