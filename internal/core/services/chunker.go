package services

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
)

// DefaultMaxChunkSize is the packing limit in characters.
const DefaultMaxChunkSize = 1500

// FileInput is one materialized file handed to the Chunker.
type FileInput struct {
	Filepath string
	Code     string
}

// ChunkResult is the Chunker's per-file outcome: either Err is set (the
// caller turns it into a warning) or Chunks holds the file's chunks.
type ChunkResult struct {
	Filepath string
	Chunks   []domain.Chunk
	Err      error
}

// Chunker splits materialized files into bounded, line-ranged, contextualized
// chunks. It is pure: output is deterministic given input and MaxChunkSize.
//
// Chunking is boundary-aware rather than full AST-aware: a per-language
// regex set recognises top-level declaration headers (function, class,
// struct, interface) and splits there, packing adjacent small units up to
// MaxChunkSize. No parser/AST library in the corpus covers this across
// languages without a heavy native dependency, so this adapts the same
// boundary-detection idea the target language would get from a real parser.
type Chunker struct {
	MaxChunkSize int
}

// NewChunker constructs a Chunker, defaulting MaxChunkSize when <= 0.
func NewChunker(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{MaxChunkSize: maxChunkSize}
}

// boundaryPattern recognises a top-level (column 0, or indented for
// Python-like languages) declaration header.
var boundaryPattern = regexp.MustCompile(
	`^\s{0,4}(func|def|class|struct|interface|type|impl|public |private |protected |static |export |async )\b.*`,
)

// entityNamePattern extracts a plausible identifier following a
// declaration keyword, used for the contextualized entity hint.
var entityNamePattern = regexp.MustCompile(`\b(?:func|def|class|struct|interface|type)\s+(\*?\w[\w.]*)`)

var languageByExt = map[string]string{
	".go": "go", ".py": "python", ".js": "javascript", ".jsx": "javascript",
	".ts": "typescript", ".tsx": "typescript", ".java": "java", ".rb": "ruby",
	".rs": "rust", ".c": "c", ".h": "c", ".cpp": "cpp", ".cc": "cpp", ".hpp": "cpp",
	".cs": "csharp", ".php": "php", ".swift": "swift", ".kt": "kotlin",
	".md": "markdown", ".json": "json", ".yaml": "yaml", ".yml": "yaml",
	".sh": "shell", ".sql": "sql",
}

// DetectLanguage maps a file extension to a language tag, "text" when unknown.
func DetectLanguage(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "text"
}

type unit struct {
	lineStart int // 1-based
	lineEnd   int
	text      string
	header    string // the declaration line that opened this unit, if any
}

// Chunk processes each input independently.
func (c *Chunker) Chunk(inputs []FileInput) []ChunkResult {
	results := make([]ChunkResult, 0, len(inputs))
	for _, in := range inputs {
		chunks, err := c.chunkFile(in.Filepath, in.Code)
		results = append(results, ChunkResult{Filepath: in.Filepath, Chunks: chunks, Err: err})
	}
	return results
}

func (c *Chunker) chunkFile(path, code string) ([]domain.Chunk, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	lang := DetectLanguage(path)
	units := splitIntoUnits(code)
	packed := packUnits(units, c.MaxChunkSize)

	scopeBase := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	chunks := make([]domain.Chunk, 0, len(packed))
	for _, u := range packed {
		scope, entities := scopeAndEntities(scopeBase, u.header, u.text)
		contextualized := contextualize(scope, entities, u.text)
		ch := domain.Chunk{
			Filepath:           path,
			LineStart:          u.lineStart,
			LineEnd:            u.lineEnd,
			Text:               u.text,
			ContextualizedText: contextualized,
			Scope:              scope,
			Entities:           entities,
			Language:           lang,
		}
		ch.Hash = ch.ComputeHash()
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// splitIntoUnits breaks code into boundary units: each declaration header
// starts a new unit; everything before the first header is one leading unit.
func splitIntoUnits(code string) []unit {
	lines := strings.Split(code, "\n")
	var units []unit
	start := 0
	var header string

	flush := func(end int) {
		if end <= start {
			return
		}
		text := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(text) == "" {
			start = end
			return
		}
		units = append(units, unit{lineStart: start + 1, lineEnd: end, text: text, header: header})
		start = end
	}

	for i, line := range lines {
		if boundaryPattern.MatchString(line) && i > start {
			flush(i)
			header = strings.TrimSpace(line)
		} else if boundaryPattern.MatchString(line) && i == start {
			header = strings.TrimSpace(line)
		}
	}
	flush(len(lines))
	if len(units) == 0 {
		units = append(units, unit{lineStart: 1, lineEnd: len(lines), text: code})
	}
	return units
}

// packUnits merges adjacent small units until MaxChunkSize, never splitting
// a unit that alone exceeds the limit.
func packUnits(units []unit, maxSize int) []unit {
	var packed []unit
	cur := unit{}
	curLen := 0
	started := false

	flush := func() {
		if started {
			packed = append(packed, cur)
		}
		started = false
		curLen = 0
	}

	for _, u := range units {
		if !started {
			cur = u
			curLen = len(u.text)
			started = true
			continue
		}
		if curLen+1+len(u.text) <= maxSize {
			cur.text = cur.text + "\n" + u.text
			cur.lineEnd = u.lineEnd
			curLen += 1 + len(u.text)
			continue
		}
		flush()
		cur = u
		curLen = len(u.text)
		started = true
	}
	flush()
	return packed
}

func scopeAndEntities(fileScope, header, text string) (string, []string) {
	scope := fileScope
	if header != "" {
		if m := entityNamePattern.FindStringSubmatch(header); len(m) > 1 {
			scope = fileScope + "." + m[1]
		}
	}
	var entities []string
	for _, m := range entityNamePattern.FindAllStringSubmatch(text, -1) {
		entities = append(entities, m[1])
	}
	return scope, entities
}

func contextualize(scope string, entities []string, text string) string {
	var b strings.Builder
	b.WriteString("// scope: ")
	b.WriteString(scope)
	if len(entities) > 0 {
		b.WriteString(" entities: ")
		b.WriteString(strings.Join(entities, ", "))
	}
	b.WriteString("\n")
	b.WriteString(text)
	return b.String()
}
