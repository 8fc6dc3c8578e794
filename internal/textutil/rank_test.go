package textutil

import (
	"math"
	"testing"
)

func TestCosineNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"a nil", nil, NewFingerprint("hello world"), 0},
		{"b nil", NewFingerprint("hello world"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineIdentical(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	a := NewFingerprint(text)
	b := NewFingerprint(text)

	got := Cosine(a, b)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(identical) = %v, want 1.0", got)
	}
}

func TestCosineCompleteDifferent(t *testing.T) {
	a := NewFingerprint("apple banana cherry")
	b := NewFingerprint("dog elephant frog")

	got := Cosine(a, b)
	if got != 0 {
		t.Errorf("Cosine(different) = %v, want 0", got)
	}
}

func TestCosinePartialOverlap(t *testing.T) {
	a := NewFingerprint("the quick brown fox")
	b := NewFingerprint("the slow brown cat")

	got := Cosine(a, b)
	if got <= 0 || got >= 1 {
		t.Errorf("Cosine(partial) = %v, want between 0 and 1", got)
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := NewFingerprint("hello world program")
	b := NewFingerprint("world program test")

	ab := Cosine(a, b)
	ba := Cosine(b, a)

	if ab != ba {
		t.Errorf("Cosine not symmetric: (%v, %v)", ab, ba)
	}
}

func TestCosineZeroNorm(t *testing.T) {
	// Create fingerprint with zero norm (empty tokens)
	a := &Fingerprint{tokens: map[string]float64{}, norm: 0}
	b := NewFingerprint("hello world test")

	got := Cosine(a, b)
	if got != 0 {
		t.Errorf("Cosine(zero norm) = %v, want 0", got)
	}
}

func TestNewFingerprintEmpty(t *testing.T) {
	fp := NewFingerprint("")
	if fp != nil {
		t.Error("expected nil for empty text")
	}
}

func TestNewFingerprintShortTokens(t *testing.T) {
	// Only short tokens (< 3 chars) should result in nil
	fp := NewFingerprint("a an it to")
	if fp != nil {
		t.Error("expected nil for text with only short tokens")
	}
}

func TestNewFingerprintValid(t *testing.T) {
	fp := NewFingerprint("hello world programming")
	if fp == nil {
		t.Fatal("expected fingerprint, got nil")
	}
	if fp.norm == 0 {
		t.Error("expected non-zero norm")
	}
	if len(fp.tokens) == 0 {
		t.Error("expected tokens")
	}
}

func TestNewFingerprintNormCalculation(t *testing.T) {
	// "hello hello world" -> hello:2, world:1
	// norm = sqrt(2^2 + 1^2) = sqrt(5)
	fp := NewFingerprint("hello hello world")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}

	expectedNorm := math.Sqrt(5)
	if math.Abs(fp.norm-expectedNorm) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, expectedNorm)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "Hello World",
			want:  []string{"hello", "world"},
		},
		{
			name:  "filters short",
			input: "a to the quick fox",
			want:  []string{"the", "quick", "fox"},
		},
		{
			name:  "handles punctuation",
			input: "Hello, World! How are you?",
			want:  []string{"hello", "world", "how", "are", "you"},
		},
		{
			name:  "handles numbers",
			input: "test123 456test",
			want:  []string{"test123", "456test"},
		},
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
		{
			name:  "only short tokens",
			input: "a b c",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v (len %d), want %v (len %d)",
					got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFingerprintTokenCount(t *testing.T) {
	tests := []struct {
		name string
		fp   *Fingerprint
		want int
	}{
		{
			name: "nil fingerprint",
			fp:   nil,
			want: 0,
		},
		{
			name: "unique tokens",
			fp:   NewFingerprint("hello world programming"),
			want: 3,
		},
		{
			name: "repeated tokens",
			fp:   NewFingerprint("hello hello world world world"),
			want: 2, // unique count
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fp.TokenCount()
			if got != tt.want {
				t.Errorf("TokenCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCosineRealisticPrompts(t *testing.T) {
	original := "a cinematic portrait of a banana knight in silver armour, dramatic rim lighting, 85mm"
	reworded := "banana knight portrait, silver armour, dramatic lighting, cinematic 85mm"
	unrelated := "isometric voxel city at night with neon signs and flying cars"

	near := Cosine(NewFingerprint(original), NewFingerprint(reworded))
	if near < 0.7 {
		t.Errorf("reworded prompt similarity = %v, want >= 0.7", near)
	}
	far := Cosine(NewFingerprint(original), NewFingerprint(unrelated))
	if far >= 0.2 {
		t.Errorf("unrelated prompt similarity = %v, want < 0.2", far)
	}
}

func TestTokenizeHan(t *testing.T) {
	got := Tokenize("香蕉騎士, 4k風景 貓")
	want := []string{"香蕉", "蕉騎", "騎士", "風景", "貓"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCorpusIDFDownweightsCommonTerms(t *testing.T) {
	corpus := NewCorpus()
	corpus.Add(NewFingerprint("masterpiece banana"))
	corpus.Add(NewFingerprint("masterpiece mountain"))
	corpus.Add(nil)
	idf := corpus.IDF()
	if idf["masterpiece"] >= idf["banana"] {
		t.Fatalf("expected common term weighted lower: %v", idf)
	}
	if idf["masterpiece"] <= 0 {
		t.Fatalf("expected positive weight for common term, got %v", idf["masterpiece"])
	}
}

func TestRank(t *testing.T) {
	docs := []Document{
		{ID: 1, Text: "misty mountain lake at dawn"},
		{ID: 2, Text: "knight holding a banana, portrait"},
		{ID: 3, Text: "banana knight in armour"},
		{ID: 4, Text: "一根香蕉騎士"},
	}

	got := Rank("banana knight", docs, 0.2)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %+v", got)
	}
	if got[0].ID != 3 || !got[0].Exact {
		t.Fatalf("expected exact hit first, got %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Exact || got[1].Score < 0.2 {
		t.Fatalf("expected token hit second, got %+v", got[1])
	}

	han := Rank("香蕉", docs, 0.2)
	if len(han) != 1 || han[0].ID != 4 {
		t.Fatalf("expected Han match, got %+v", han)
	}

	if empty := Rank("  ", docs, 0); len(empty) != 0 {
		t.Fatalf("expected no matches for blank query, got %+v", empty)
	}
}
