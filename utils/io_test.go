package utils

import (
	"io"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"
	"unicode"
	"unicode/utf8"
)

var testByteBuff = []byte("123 432 1 23421 100 2341\n")

func Benchmark_Fields_Atoi(b *testing.B) {
	var s1 []string
	ints := make([]uint32, 6)
	b.ResetTimer()
	accum := 0
	for i := 0; i < b.N; i++ {
		s1 = strings.Fields(string(testByteBuff))
		for j := 0; j < 6; j++ {
			si, _ := strconv.Atoi(s1[j])
			ints[j] = uint32(si)
		}
		// Do something with the ints
		a := Sum(ints)
		b := MaxSlice(ints)
		c := a + b
		accum += int(c)
	}
}

func Benchmark_FastFields_Atoi(b *testing.B) {
	s1 := make([]string, 8)
	ints := make([]uint32, 6)
	b.ResetTimer()
	accum := 0
	for i := 0; i < b.N; i++ {
		n, _ := FastFields(s1, testByteBuff)
		for j := 0; j < n; j++ {
			si, _ := strconv.ParseUint(s1[j], 10, 32)
			ints[j] = uint32(si)
		}
		// Do something with the ints
		a := Sum(ints)
		b := MaxSlice(ints)
		c := a + b
		accum += int(c)
	}
}

func expect[T comparable](t *testing.T, a T, b T) {
	t.Helper()
	if a != b {
		t.Error("Expected: ", b, " got: ", a)
	}
}

// Test various strings to ensure they get fielded properly
func Test_FastFields(t *testing.T) {
	a := make([]string, 10)

	setOfByteBuffs := [][]byte{
		[]byte("hello world this is a test"),
		[]byte("hello world this is a test "),
		[]byte(" hello world this is a test"),
		[]byte("hello   world  this  is      a    test"),
		[]byte("  hello   world    this  is  a  test "),
		[]byte("hello\tworld\tthis\tis\ta\ttest"),
		[]byte("\thello world this is a test\t"),
		[]byte(" hello world this is a test\n\n"),
		[]byte("hello\t world\t this\t is\ta\ttest\r\n"),
	}

	for _, byteBuff := range setOfByteBuffs {
		n, overflow := FastFields(a, byteBuff)
		expect(t, n, 6)
		expect(t, overflow, false)
		expect(t, a[0], "hello")
		expect(t, a[1], "world")
		expect(t, a[2], "this")
		expect(t, a[3], "is")
		expect(t, a[4], "a")
		expect(t, a[5], "test")
	}
}

func Test_FastFieldsOverflow(t *testing.T) {
	a := make([]string, 2)
	n, overflow := FastFields(a, []byte("1 2 3"))
	expect(t, n, 2)
	expect(t, overflow, true)
	expect(t, a[0], "1")
	expect(t, a[1], "2")

	n, overflow = FastFields(a, []byte("   "))
	expect(t, n, 0)
	expect(t, overflow, false)
}

func Test_FastFileLines(t *testing.T) {
	input := "# comment\n1 2\n\n3 4\n5 6"
	// One byte reads exercise the buffer shifting path.
	readers := []io.Reader{
		strings.NewReader(input),
		iotest.OneByteReader(strings.NewReader(input)),
		iotest.DataErrReader(strings.NewReader(input)),
	}
	for _, reader := range readers {
		lines := NewFastFileLines(16)
		var got []string
		for {
			line, err := lines.Scan(reader)
			if err != nil {
				t.Fatal(err)
			}
			if line == nil {
				break
			}
			got = append(got, string(line))
		}
		expect(t, strings.Join(got, "|"), "# comment|1 2||3 4|5 6")
	}
}

func Test_FastFileLinesTooLong(t *testing.T) {
	lines := NewFastFileLines(4)
	_, err := lines.Scan(strings.NewReader("123456789\n"))
	expect(t, err, ErrTokenTooLong)
}

func Benchmark_Space(b *testing.B) {
	for i := 0; i < b.N; i++ {
		for r := rune(0); r <= utf8.MaxRune; r++ {
			isByteSpace(byte(r))
		}
	}
}

func Benchmark_UnicodeSpace(b *testing.B) {
	for i := 0; i < b.N; i++ {
		for r := rune(0); r <= utf8.MaxRune; r++ {
			unicode.IsSpace(r)
		}
	}
}
