package qagen

import (
	"regexp"
	"strings"
)

// Segment is a chunk of extracted page text used as the unit of Q&A
// generation. Indexes are strictly increasing within a page.
type Segment struct {
	SourceURL string `json:"sourceUrl"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
}

// SegmentOptions configures markdown segmentation.
type SegmentOptions struct {
	// ChunkSize is the maximum segment size in words. Sections exceeding
	// it are split into fixed-size word chunks.
	ChunkSize int

	// Overlap is the number of words shared between adjacent chunks when
	// fixed-size chunking applies. Must be smaller than ChunkSize.
	Overlap int

	// MinLength is the minimum segment length in characters. Shorter
	// segments (boilerplate fragments) are dropped.
	MinLength int
}

// DefaultSegmentOptions returns the segmentation defaults: 500-word
// chunks with a 50-word overlap, segments under 80 characters dropped.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		ChunkSize: 500,
		Overlap:   50,
		MinLength: 80,
	}
}

func (o SegmentOptions) withDefaults() SegmentOptions {
	def := DefaultSegmentOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.ChunkSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.ChunkSize {
		o.Overlap = o.ChunkSize / 10
	}
	if o.MinLength < 0 {
		o.MinLength = 0
	}
	return o
}

// headingRe matches markdown headings: # through ######.
var headingRe = regexp.MustCompile(`^#{1,6}\s`)

// SplitSegments splits markdown into segments for Q&A generation.
// Segment boundaries follow document structure: the markdown is cut at
// headings, and heading sections that exceed ChunkSize words are further
// split into fixed-size word chunks with Overlap words of context shared
// between neighbours. A document without headings falls back to chunking
// alone. Splitting is deterministic: identical input yields identical
// segments. An empty or all-boilerplate document yields no segments.
func SplitSegments(sourceURL, markdown string, opts SegmentOptions) []Segment {
	opts = opts.withDefaults()

	var segments []Segment
	add := func(text string) {
		text = strings.TrimSpace(text)
		if len(text) < opts.MinLength {
			return
		}
		segments = append(segments, Segment{
			SourceURL: sourceURL,
			Index:     len(segments),
			Text:      text,
		})
	}

	for _, section := range splitSections(markdown) {
		if len(strings.Fields(section)) <= opts.ChunkSize {
			add(section)
			continue
		}
		for _, chunk := range chunkWords(section, opts.ChunkSize, opts.Overlap) {
			add(chunk)
		}
	}

	return segments
}

// splitSections splits markdown into heading-delimited sections.
// Headings inside fenced code blocks do not start a new section.
// A document without headings is a single section.
func splitSections(markdown string) []string {
	var sections []string
	var current []string
	inFence := false

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && headingRe.MatchString(trimmed) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	return sections
}

// chunkWords splits text into chunks of at most size words, with overlap
// words repeated at the start of each subsequent chunk.
func chunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
