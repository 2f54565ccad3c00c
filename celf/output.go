package celf

import (
	"bufio"
	"io"
	"os"
	"strconv"
)

// WriteResult writes one "id gain" line per seed in selection order, then "total <value>".
func WriteResult(w io.Writer, res Result) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for _, s := range res.Seeds {
		buf = strconv.AppendUint(buf[:0], uint64(s.Id), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, s.Gain, 'f', -1, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	buf = append(buf[:0], "total "...)
	buf = strconv.AppendFloat(buf, res.Total, 'f', -1, 64)
	buf = append(buf, '\n')
	if _, err := bw.Write(buf); err != nil {
		return err
	}
	return bw.Flush()
}

// SaveResult writes the result to path, replacing any existing file.
func SaveResult(path string, res Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteResult(f, res)
}
