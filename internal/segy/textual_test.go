package segy

import (
	"strings"
	"testing"
)

func TestTextualRoundTripEBCDIC(t *testing.T) {
	lines := make([]string, TextLines)
	for i := range lines {
		lines[i] = strings.Repeat(" ", TextCols)
	}
	lines[0] = "C01 CLIENT ACME GEO      AREA NORTH SEA" + strings.Repeat(" ", TextCols-39)
	lines[39] = "C40 END TEXTUAL HEADER" + strings.Repeat(" ", TextCols-22)

	raw, err := EncodeTextualHeader(lines, EncodingEBCDIC)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(raw) != TextHeaderSize {
		t.Fatalf("encoded length = %d, want %d", len(raw), TextHeaderSize)
	}
	if got := DetectEncoding(raw); got != EncodingEBCDIC {
		t.Fatalf("DetectEncoding = %s, want EBCDIC", got)
	}
	round, enc, err := DecodeTextualHeader(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enc != EncodingEBCDIC {
		t.Fatalf("decode reported %s", enc)
	}
	for i := range lines {
		if round[i] != lines[i] {
			t.Errorf("line %d changed:\n got %q\nwant %q", i+1, round[i], lines[i])
		}
	}
}

func TestTextualRoundTripASCII(t *testing.T) {
	lines := make([]string, TextLines)
	for i := range lines {
		lines[i] = strings.Repeat(" ", TextCols)
	}
	lines[5] = "ascii header with lowercase and symbols !#$%&*" + strings.Repeat(" ", TextCols-46)

	raw, err := EncodeTextualHeader(lines, EncodingASCII)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	round, enc, err := DecodeTextualHeader(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enc != EncodingASCII {
		t.Fatalf("decode reported %s, want ASCII", enc)
	}
	if round[5] != lines[5] {
		t.Fatalf("line 6 changed:\n got %q\nwant %q", round[5], lines[5])
	}
}

func TestDecodeTextualHeaderBadSize(t *testing.T) {
	if _, _, err := DecodeTextualHeader(make([]byte, 100)); err == nil {
		t.Fatal("expected error for short header")
	}
}

func TestEncodeTextualHeaderPadsAndTruncates(t *testing.T) {
	lines := make([]string, TextLines)
	lines[0] = strings.Repeat("X", 120) // over-long, must truncate
	raw, err := EncodeTextualHeader(lines, EncodingASCII)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	round, _, err := DecodeTextualHeader(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if round[0] != strings.Repeat("X", TextCols) {
		t.Fatalf("line 1 = %q", round[0])
	}
	if round[1] != strings.Repeat(" ", TextCols) {
		t.Fatalf("empty line not padded: %q", round[1])
	}
}

func TestEncodeTextualHeaderShortInput(t *testing.T) {
	raw, err := EncodeTextualHeader([]string{"C01 ONLY LINE"}, EncodingEBCDIC)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	round, enc, err := DecodeTextualHeader(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if enc != EncodingEBCDIC {
		t.Fatalf("decode reported %s", enc)
	}
	if !strings.HasPrefix(round[0], "C01 ONLY LINE") {
		t.Fatalf("line 1 = %q", round[0])
	}
	for i := 1; i < TextLines; i++ {
		if round[i] != strings.Repeat(" ", TextCols) {
			t.Fatalf("line %d not blank-padded: %q", i+1, round[i])
		}
	}
	if _, err := EncodeTextualHeader(make([]string, TextLines+1), EncodingASCII); err == nil {
		t.Fatal("expected error for over-long input")
	}
}

func TestApplyTemplate(t *testing.T) {
	lines := ApplyTemplate("C01 CLIENT {{client}}\nC02 AREA {{area}}\nC03 KEPT {{missing}}", map[string]string{
		"client": "ACME",
		"area":   "NORTH SEA",
	})
	if len(lines) != TextLines {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "C01 CLIENT ACME") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "C02 AREA NORTH SEA") {
		t.Errorf("line 2 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "{{missing}}") {
		t.Errorf("unresolved placeholder should stay visible, line 3 = %q", lines[2])
	}
	for _, line := range lines {
		if len(line) != TextCols {
			t.Fatalf("line width %d", len(line))
		}
	}
}

func TestFormatLinesDisplay(t *testing.T) {
	lines := make([]string, TextLines)
	for i := range lines {
		lines[i] = strings.Repeat(" ", TextCols)
	}
	lines[0] = "HELLO" + strings.Repeat(" ", TextCols-5)
	out := FormatLinesDisplay(lines)
	if !strings.HasPrefix(out, "C01 HELLO\n") {
		t.Fatalf("unexpected first line: %q", out[:20])
	}
	if !strings.Contains(out, "\nC40 \n") && !strings.HasSuffix(out, "C40 \n") {
		t.Fatalf("missing C40 card")
	}
}
