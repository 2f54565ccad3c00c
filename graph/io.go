package graph

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/celfpp/utils"
)

var ErrMalformedLine = errors.New("malformed edge line")

const scanBufferSize = 1 << 20

// ReadEdgeList parses lines of "src dst" into a symmetric adjacency.
// Lines beginning with '#' and blank lines are skipped. A third column (e.g. a weight) is ignored.
func ReadEdgeList(r io.Reader) (adj Adjacency, edges uint64, err error) {
	adj = make(Adjacency)
	lines := utils.NewFastFileLines(scanBufferSize)
	fields := make([]string, 3)
	lineNum := 0
	for {
		line, err := lines.Scan(r)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", lineNum+1, err)
		}
		if line == nil {
			break
		}
		lineNum++
		if len(line) > 0 && line[0] == '#' {
			continue
		}
		n, _ := utils.FastFields(fields, line)
		if n == 0 {
			continue
		}
		if n < 2 {
			return nil, 0, fmt.Errorf("%w %d: %q", ErrMalformedLine, lineNum, string(line))
		}
		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("%w %d: %w", ErrMalformedLine, lineNum, err)
		}
		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("%w %d: %w", ErrMalformedLine, lineNum, err)
		}
		edges++
		adj[uint32(src)] = append(adj[uint32(src)], uint32(dst))
		adj[uint32(dst)] = append(adj[uint32(dst)], uint32(src))
	}
	return adj, edges, nil
}

// LoadEdgeList reads the edge list at path.
func LoadEdgeList(path string) (Adjacency, error) {
	m0 := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer file.Close()

	adj, edges, err := ReadEdgeList(file)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	log.Info().Msg("Found " + utils.V(edges) + " edges connecting " + utils.V(len(adj)) + " nodes in (ms) " + utils.V(time.Since(m0).Milliseconds()))
	return adj, nil
}
