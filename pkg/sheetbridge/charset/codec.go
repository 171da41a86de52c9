package charset

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

const capabilityTranscoder = "legacy transcoder"

// Transcoders maps a legacy encoding to its x/text implementation.
type Transcoders map[models.Encoding]encoding.Encoding

// LoadFunc produces the legacy transcoder set.
type LoadFunc func() (Transcoders, error)

// Codec converts text to and from bytes. The legacy transcoder set is loaded
// on first use and shared by every later call; concurrent first callers wait
// on the same load.
type Codec struct {
	transcoders func() (Transcoders, error)
	logger      *slog.Logger
}

// NewCodec returns a codec that loads its legacy transcoders with load.
func NewCodec(load LoadFunc) *Codec {
	return &Codec{transcoders: sync.OnceValues[Transcoders, error](load)}
}

// WithLogger returns a copy of c that reports substitutions to logger. The
// copy shares the transcoder load.
func (c *Codec) WithLogger(logger *slog.Logger) *Codec {
	cp := *c
	cp.logger = logger
	return &cp
}

func (c *Codec) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

var defaultCodec = NewCodec(LoadJapanese)

// Default returns the process-wide codec.
func Default() *Codec {
	return defaultCodec
}

// Encode encodes text with the process-wide codec.
func Encode(text string, enc models.Encoding) ([]byte, error) {
	return defaultCodec.Encode(text, enc)
}

// Decode decodes data with the process-wide codec.
func Decode(data []byte, enc models.Encoding) (string, error) {
	return defaultCodec.Decode(data, enc)
}

// LoadJapanese resolves Shift_JIS and EUC-JP from the WHATWG encoding index.
func LoadJapanese() (Transcoders, error) {
	set := make(Transcoders, 2)
	for _, enc := range []models.Encoding{models.EncodingShiftJIS, models.EncodingEUCJP} {
		e, err := htmlindex.Get(string(enc))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", enc, err)
		}
		set[enc] = e
	}
	return set, nil
}

// Encode converts text to bytes in enc. UTF-8 output always starts with a
// byte-order-mark, so empty text yields exactly three bytes. Legacy encodings
// carry no mark and empty text yields no bytes. Characters a legacy encoding
// cannot represent become the ASCII substitute byte 0x1A, and the count is
// logged as a warning.
func (c *Codec) Encode(text string, enc models.Encoding) ([]byte, error) {
	if enc == models.EncodingUTF8 {
		out := make([]byte, 0, len(BOM)+len(text))
		out = append(out, BOM...)
		return append(out, text...), nil
	}

	e, err := c.transcoder(enc)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return []byte{}, nil
	}
	out, err := e.NewEncoder().Bytes([]byte(text))
	if err == nil {
		return out, nil
	}
	out, err = encoding.ReplaceUnsupported(e.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	sub := []byte{encoding.ASCIISub}
	c.log().Warn("replaced characters not representable in target encoding",
		"encoding", enc,
		"count", bytes.Count(out, sub)-strings.Count(text, string(sub)))
	return out, nil
}

// Decode converts data in enc to text. Invalid sequences become U+FFFD.
// A leading byte-order-mark is not stripped here.
func (c *Codec) Decode(data []byte, enc models.Encoding) (string, error) {
	var dec *encoding.Decoder
	if enc == models.EncodingUTF8 {
		dec = unicode.UTF8.NewDecoder()
	} else {
		e, err := c.transcoder(enc)
		if err != nil {
			return "", err
		}
		dec = e.NewDecoder()
	}
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), nil
}

func (c *Codec) transcoder(enc models.Encoding) (encoding.Encoding, error) {
	set, err := c.transcoders()
	if err != nil {
		return nil, &ConfigurationError{Capability: capabilityTranscoder, Encoding: enc, Err: err}
	}
	e, ok := set[enc]
	if !ok || e == nil {
		return nil, &ConfigurationError{Capability: capabilityTranscoder, Encoding: enc}
	}
	return e, nil
}

// StripBOM returns data without a leading UTF-8 byte-order-mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, BOM)
}

// ParseEncoding maps a user-supplied name to a supported encoding.
func ParseEncoding(name string) (models.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return models.EncodingUTF8, nil
	case "shift_jis", "shift-jis", "sjis", "cp932", "windows-31j":
		return models.EncodingShiftJIS, nil
	case "euc-jp", "eucjp", "euc_jp":
		return models.EncodingEUCJP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}
