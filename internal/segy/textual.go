package segy

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Encoding identifies how the 3200-byte textual header is encoded on disk.
type Encoding string

const (
	EncodingEBCDIC Encoding = "EBCDIC"
	EncodingASCII  Encoding = "ASCII"
)

const (
	TextLines = 40
	TextCols  = 80
)

var ErrTextHeaderSize = errors.New("textual header must be exactly 3200 bytes")

// asciiToEbcdic covers the printable ASCII range 0x20..0x7E with the cp500
// code points used by standard SEG-Y textual headers.
var asciiToEbcdic = map[byte]byte{
	' ': 0x40, '!': 0x4F, '"': 0x7F, '#': 0x7B, '$': 0x5B, '%': 0x6C,
	'&': 0x50, '\'': 0x7D, '(': 0x4D, ')': 0x5D, '*': 0x5C, '+': 0x4E,
	',': 0x6B, '-': 0x60, '.': 0x4B, '/': 0x61,
	'0': 0xF0, '1': 0xF1, '2': 0xF2, '3': 0xF3, '4': 0xF4,
	'5': 0xF5, '6': 0xF6, '7': 0xF7, '8': 0xF8, '9': 0xF9,
	':': 0x7A, ';': 0x5E, '<': 0x4C, '=': 0x7E, '>': 0x6E, '?': 0x6F,
	'@': 0x7C,
	'A': 0xC1, 'B': 0xC2, 'C': 0xC3, 'D': 0xC4, 'E': 0xC5, 'F': 0xC6,
	'G': 0xC7, 'H': 0xC8, 'I': 0xC9, 'J': 0xD1, 'K': 0xD2, 'L': 0xD3,
	'M': 0xD4, 'N': 0xD5, 'O': 0xD6, 'P': 0xD7, 'Q': 0xD8, 'R': 0xD9,
	'S': 0xE2, 'T': 0xE3, 'U': 0xE4, 'V': 0xE5, 'W': 0xE6, 'X': 0xE7,
	'Y': 0xE8, 'Z': 0xE9,
	'[': 0x4A, '\\': 0xE0, ']': 0x5A, '^': 0x5F, '_': 0x6D, '`': 0x79,
	'a': 0x81, 'b': 0x82, 'c': 0x83, 'd': 0x84, 'e': 0x85, 'f': 0x86,
	'g': 0x87, 'h': 0x88, 'i': 0x89, 'j': 0x91, 'k': 0x92, 'l': 0x93,
	'm': 0x94, 'n': 0x95, 'o': 0x96, 'p': 0x97, 'q': 0x98, 'r': 0x99,
	's': 0xA2, 't': 0xA3, 'u': 0xA4, 'v': 0xA5, 'w': 0xA6, 'x': 0xA7,
	'y': 0xA8, 'z': 0xA9,
	'{': 0xC0, '|': 0x6A, '}': 0xD0, '~': 0xA1,
}

var ebcdicToASCII [256]byte

func init() {
	for a, e := range asciiToEbcdic {
		ebcdicToASCII[e] = a
	}
}

// DetectEncoding classifies the raw textual header by counting bytes that
// fall into the printable range of each encoding. EBCDIC wins only on a
// strict majority; ties read as ASCII.
func DetectEncoding(raw []byte) Encoding {
	var ebcdic, ascii int
	for _, b := range raw {
		if b >= 0x40 && b <= 0xFE {
			ebcdic++
		}
		if b >= 0x20 && b <= 0x7E {
			ascii++
		}
	}
	if ebcdic > ascii {
		return EncodingEBCDIC
	}
	return EncodingASCII
}

// DecodeTextualHeader converts a raw 3200-byte header into 40 lines of 80
// characters, detecting the encoding. Bytes outside the printable charset
// decode as spaces.
func DecodeTextualHeader(raw []byte) ([]string, Encoding, error) {
	if len(raw) != TextHeaderSize {
		return nil, "", fmt.Errorf("%w: got %d", ErrTextHeaderSize, len(raw))
	}
	enc := DetectEncoding(raw)
	lines := make([]string, TextLines)
	buf := make([]byte, TextCols)
	for i := 0; i < TextLines; i++ {
		row := raw[i*TextCols : (i+1)*TextCols]
		for j, b := range row {
			var c byte
			if enc == EncodingEBCDIC {
				c = ebcdicToASCII[b]
			} else if b >= 0x20 && b <= 0x7E {
				c = b
			}
			if c == 0 {
				c = ' '
			}
			buf[j] = c
		}
		lines[i] = string(buf)
	}
	return lines, enc, nil
}

// EncodeTextualHeader renders up to 40 lines back into the on-disk 3200-byte
// form. Missing lines become 80 spaces; lines are truncated or space padded
// to 80 columns, and characters without a cp500 mapping encode as spaces.
func EncodeTextualHeader(lines []string, enc Encoding) ([]byte, error) {
	if len(lines) > TextLines {
		return nil, fmt.Errorf("textual header allows %d lines, got %d", TextLines, len(lines))
	}
	out := make([]byte, TextHeaderSize)
	pad := byte(' ')
	if enc == EncodingEBCDIC {
		pad = asciiToEbcdic[' ']
	}
	for i := range out {
		out[i] = pad
	}
	for i, line := range lines {
		row := out[i*TextCols : (i+1)*TextCols]
		for j := 0; j < TextCols; j++ {
			c := byte(' ')
			if j < len(line) {
				c = line[j]
			}
			if c < 0x20 || c > 0x7E {
				c = ' '
			}
			if enc == EncodingEBCDIC {
				row[j] = asciiToEbcdic[c]
			} else {
				row[j] = c
			}
		}
	}
	return out, nil
}

// FormatLinesDisplay renders decoded lines with the conventional C01..C40
// card prefixes for terminal output.
func FormatLinesDisplay(lines []string) string {
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "C%02d %s\n", i+1, strings.TrimRight(line, " "))
	}
	return sb.String()
}

// ApplyTemplate fills {{placeholder}} markers in a header template and returns
// the resulting 40 lines. Missing placeholders are left verbatim so a partial
// substitution is visible rather than silently blank.
func ApplyTemplate(template string, values map[string]string) []string {
	text := template
	for key, val := range values {
		text = strings.ReplaceAll(text, "{{"+key+"}}", val)
	}
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, TextLines)
	for i := range lines {
		line := ""
		if i < len(raw) {
			line = raw[i]
		}
		if len(line) > TextCols {
			line = line[:TextCols]
		}
		lines[i] = line + strings.Repeat(" ", TextCols-len(line))
	}
	return lines
}

// LoadTemplateFile reads a textual header template from disk.
func LoadTemplateFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read header template: %w", err)
	}
	return string(b), nil
}
