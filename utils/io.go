package utils

import (
	"bytes"
	"errors"
	"io"
	"math"
	"unsafe"
)

func init() {
	checkCompiler()
}

// Enforces a 64bit machine due to assumptions about size of ints.
func checkCompiler() {
	myInt := int(math.MaxInt64) // Shouldn't compile on a 32 bit system.
	myInt64 := int64(math.MaxInt64)
	if uint64(myInt) != uint64(myInt64) {
		panic("Must be on 64 bit system.")
	}
}

var ErrTokenTooLong = errors.New("line longer than scan buffer")

//go:nosplit
func Noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

// var asciiSpace = [256]uint8{'\t': 1, '\n': 1, '\v': 1, '\f': 1, '\r': 1, ' ': 1}
const SPACE_MASK = 1<<9 | 1<<10 | 1<<11 | 1<<12 | 1<<13 | 1<<32

func isByteSpace(b byte) bool {
	return ((SPACE_MASK & (1 << b)) != 0)
}

// This is mostly copied from the standard library.
// ASCII only, no re-allocation. Fields point into byteBuff, so they are only valid until byteBuff is reused.
// Stops once fieldBuff is full; returns the number of fields written and whether fields were left over.
func FastFields(fieldBuff []string, byteBuff []byte) (count int, overflow bool) {
	i := 0
	// Skip spaces in the front of the input.
	for i < len(byteBuff) && isByteSpace(byteBuff[i]) {
		i++
	}
	fieldStart := i
	for i < len(byteBuff) {
		if !isByteSpace(byteBuff[i]) {
			i++
			continue
		}
		if count == len(fieldBuff) {
			return count, true
		}
		b := byteBuff[fieldStart:i]
		fieldBuff[count] = *(*string)(Noescape(unsafe.Pointer(&b)))
		count++

		i++
		// Skip spaces in between fields.
		for i < len(byteBuff) && isByteSpace(byteBuff[i]) {
			i++
		}
		fieldStart = i
	}
	if fieldStart < len(byteBuff) { // Last field might end at EOF.
		if count == len(fieldBuff) {
			return count, true
		}
		b := byteBuff[fieldStart:]
		fieldBuff[count] = *(*string)(Noescape(unsafe.Pointer(&b)))
		count++
	}
	return count, false
}

// Line scanner over a fixed buffer; avoids the per line allocations of bufio.Scanner.Text.
type FastFileLines struct {
	Buf   []byte
	Start int // First non-processed byte in buf.
	End   int // End of data in buf.
}

func NewFastFileLines(size int) *FastFileLines {
	return &FastFileLines{Buf: make([]byte, size)}
}

// Advance to the next line. Returns nil, nil once the reader is exhausted.
// The returned slice is only valid until the next call.
func (s *FastFileLines) Scan(r io.Reader) ([]byte, error) {
	var err error
	for { // Until we have a token.
		if s.End > s.Start { // See if we can get a token with what we already have.
			if i := bytes.IndexByte(s.Buf[s.Start:s.End], '\n'); i >= 0 {
				token := s.Buf[s.Start : s.Start+i]
				s.Start += i + 1
				return token, nil
			}
		}
		// We cannot generate a token with what we are holding.
		if err != nil {
			if s.End > s.Start { // Return whatever is left.
				i := s.Start
				s.Start = s.End
				return s.Buf[i:s.End], nil
			}
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}

		// Must read more data. Shift data to beginning of buffer if there's lots of empty space.
		if s.Start > 0 && (s.Start > len(s.Buf)/2 || s.End == len(s.Buf)) {
			copy(s.Buf, s.Buf[s.Start:s.End])
			s.End -= s.Start
			s.Start = 0
		}
		if s.End == len(s.Buf) {
			return nil, ErrTokenTooLong
		}

		var n int
		for loop := 0; ; loop++ {
			n, err = r.Read(s.Buf[s.End:len(s.Buf)])
			s.End += n
			if n > 0 || err != nil {
				break
			}
			if loop > 100 {
				return nil, io.ErrNoProgress
			}
		}
	}
}
