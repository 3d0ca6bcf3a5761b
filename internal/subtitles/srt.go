package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var indexLine = regexp.MustCompile(`^\d+\s*$`)

const byteOrderMark = "\uFEFF"

// CaptionBlock is one timed subtitle entry.
type CaptionBlock struct {
	Index  string
	Timing string
	Text   []string
}

// JoinedText returns the block's text lines trimmed and joined by single spaces.
func (b CaptionBlock) JoinedText() string {
	parts := make([]string, 0, len(b.Text))
	for _, line := range b.Text {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func (b CaptionBlock) clone() CaptionBlock {
	b.Text = append([]string(nil), b.Text...)
	return b
}

// Parse reads SRT content. Blocks are runs of non-blank lines; the first line
// is the index when it is numeric, and the next line containing "-->" is the
// timing line. Everything after is text.
func Parse(r io.Reader) ([]CaptionBlock, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var blocks []CaptionBlock
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			blocks = append(blocks, buildBlock(pending))
			pending = nil
		}
	}

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, byteOrderMark)
			first = false
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		pending = append(pending, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	flush()
	return blocks, nil
}

func buildBlock(lines []string) CaptionBlock {
	var block CaptionBlock
	i := 0
	if indexLine.MatchString(lines[0]) {
		block.Index = lines[0]
		i = 1
	}
	if i < len(lines) && strings.Contains(lines[i], "-->") {
		block.Timing = lines[i]
		i++
	}
	block.Text = append([]string(nil), lines[i:]...)
	return block
}

// Write renders blocks as SRT with exactly one blank line between blocks.
func Write(w io.Writer, blocks []CaptionBlock) error {
	bw := bufio.NewWriter(w)
	for i, block := range blocks {
		if i > 0 {
			bw.WriteString("\n")
		}
		if block.Index != "" {
			bw.WriteString(block.Index)
			bw.WriteString("\n")
		}
		if block.Timing != "" {
			bw.WriteString(block.Timing)
			bw.WriteString("\n")
		}
		for _, line := range block.Text {
			bw.WriteString(line)
			bw.WriteString("\n")
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) ([]CaptionBlock, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// WriteFile writes blocks to path through a temp file in the same directory so
// readers never observe a partial caption file.
func WriteFile(path string, blocks []CaptionBlock) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create srt: %w", err)
	}
	tmpName := tmp.Name()
	if err := Write(tmp, blocks); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close srt: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename srt: %w", err)
	}
	return nil
}
