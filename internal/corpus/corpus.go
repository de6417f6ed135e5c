package corpus

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/pkg/types"
)

// maxRecordBytes bounds a single corpus line
const maxRecordBytes = 64 * 1024 * 1024

// Corpus is the ordered, read-only collection of fragments for one run
type Corpus struct {
	source      string
	fragments   []types.Fragment
	fingerprint string
}

// record mirrors one corpus line. Pointers distinguish absent fields.
type record struct {
	ID      *int     `json:"id"`
	Title   string   `json:"title"`
	Path    string   `json:"path"`
	Content *string  `json:"content"`
	Queries []string `json:"queries"`
}

// Option configures Load and Read
type Option func(*readOptions)

type readOptions struct {
	log *slog.Logger
}

// WithLogger reports duplicate and non-positive ids. They are loaded as
// given; fragments are identified by position.
func WithLogger(l *slog.Logger) Option {
	return func(o *readOptions) { o.log = l }
}

// Load reads a corpus file. Fragment order equals line order.
func Load(path string, opts ...Option) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.CorpusReadError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	return read(f, path, opts)
}

// Read loads a corpus from any line-delimited JSON stream
func Read(r io.Reader, opts ...Option) (*Corpus, error) {
	return read(r, "<reader>", opts)
}

func read(r io.Reader, source string, opts []Option) (*Corpus, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log).With("source", source)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	fragments := make([]types.Fragment, 0)
	seen := make(map[int]int)
	maxID := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		frag, hasID, err := decodeRecord(line)
		if err != nil {
			return nil, &types.CorpusReadError{Source: source, Line: lineNo, Err: err}
		}

		switch {
		case !hasID:
			frag.ID = maxID + 1
		case frag.ID <= 0:
			log.Warn("corpus record has a non-positive id", "line", lineNo, "id", frag.ID)
		}
		if prev, dup := seen[frag.ID]; dup {
			log.Warn("corpus record reuses an id", "line", lineNo, "id", frag.ID, "first_line", prev)
		} else {
			seen[frag.ID] = lineNo
		}
		maxID = max(maxID, frag.ID)

		fragments = append(fragments, frag)
	}

	if err := scanner.Err(); err != nil {
		return nil, &types.CorpusReadError{Source: source, Line: lineNo + 1, Err: err}
	}

	return New(source, fragments), nil
}

// decodeRecord parses one line and reports whether it carried an id
func decodeRecord(line []byte) (types.Fragment, bool, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return types.Fragment{}, false, fmt.Errorf("invalid record: %w", err)
	}

	if rec.Content == nil {
		return types.Fragment{}, false, errors.New("missing required field \"content\"")
	}

	frag := types.Fragment{
		Title:   rec.Title,
		Path:    rec.Path,
		Content: *rec.Content,
		Queries: rec.Queries,
	}
	if rec.ID == nil {
		return frag, false, nil
	}
	frag.ID = *rec.ID
	return frag, true, nil
}

// New wraps an already built fragment slice. The slice must not be
// modified afterwards.
func New(source string, fragments []types.Fragment) *Corpus {
	return &Corpus{
		source:      source,
		fragments:   fragments,
		fingerprint: computeFingerprint(fragments),
	}
}

// Source returns where the corpus was loaded from
func (c *Corpus) Source() string {
	return c.source
}

// Len returns the number of fragments
func (c *Corpus) Len() int {
	return len(c.fragments)
}

// At returns the fragment at a corpus position (0-based)
func (c *Corpus) At(i int) types.Fragment {
	return c.fragments[i]
}

// Fragments returns a copy of the fragment sequence
func (c *Corpus) Fragments() []types.Fragment {
	out := make([]types.Fragment, len(c.fragments))
	copy(out, c.fragments)
	return out
}

// SearchTexts returns the embedding input for every fragment, in order
func (c *Corpus) SearchTexts() []string {
	texts := make([]string, len(c.fragments))
	for i := range c.fragments {
		texts[i] = c.fragments[i].SearchText()
	}
	return texts
}

// Fingerprint identifies the corpus contents that matter for embedding:
// fragment count and every search text, in order.
func (c *Corpus) Fingerprint() string {
	return c.fingerprint
}

func computeFingerprint(fragments []types.Fragment) string {
	h := sha256.New()
	var lenBuf [8]byte

	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(fragments)))
	h.Write(lenBuf[:])

	for i := range fragments {
		text := fragments[i].SearchText()
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(text)))
		h.Write(lenBuf[:])
		h.Write([]byte(text))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Write emits fragments in the corpus line format, one JSON record per line
func Write(w io.Writer, fragments []types.Fragment) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for i := range fragments {
		if err := enc.Encode(&fragments[i]); err != nil {
			return fmt.Errorf("encode fragment %d: %w", fragments[i].ID, err)
		}
	}

	return bw.Flush()
}
