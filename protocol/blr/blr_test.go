package blr

import (
	"bytes"
	"testing"
)

func noPromote(data []byte) (uint64, error) { return 0, nil }

func TestEncodeParamsIntegerV13(t *testing.T) {
	params := []Param{{Kind: KindInt64, Int64: 42}}
	enc, err := EncodeParams(params, true, noPromote)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}

	wantBLR := []byte{Version5, Begin, Message, 0, 2, 0, Int64, 0, Short, 0, End, EOC}
	if !bytes.Equal(enc.BLR, wantBLR) {
		t.Fatalf("BLR = %v, want %v", enc.BLR, wantBLR)
	}

	// 4-byte null bitmap word (no nulls) + 8-byte int64 value.
	if len(enc.Values) != 4+8 {
		t.Fatalf("Values length = %d, want 12", len(enc.Values))
	}
	if !bytes.Equal(enc.Values[:4], []byte{0, 0, 0, 0}) {
		t.Fatalf("null bitmap = %v, want zero word", enc.Values[:4])
	}
}

func TestEncodeParamsNullTrailingIndicatorPreV13(t *testing.T) {
	params := []Param{{Kind: KindNull}}
	enc, err := EncodeParams(params, false, noPromote)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}

	// No leading bitmap pre-v13; trailing -1 indicator (4 bytes).
	want := []byte{0xff, 0xff, 0xff, 0xff}
	if !bytes.Equal(enc.Values, want) {
		t.Fatalf("Values = %v, want %v", enc.Values, want)
	}
}

func TestEncodeParamsTextPadding(t *testing.T) {
	params := []Param{{Kind: KindText, Text: []byte("abc")}}
	enc, err := EncodeParams(params, false, noPromote)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	// "abc" (3 bytes) + 1 pad byte + 4-byte not-null indicator.
	if len(enc.Values) != 4+4 {
		t.Fatalf("Values length = %d, want 8", len(enc.Values))
	}
}

func TestEncodeParamsBlobPromotion(t *testing.T) {
	var gotData []byte
	promote := func(data []byte) (uint64, error) {
		gotData = data
		return 0xdeadbeef, nil
	}

	big := bytes.Repeat([]byte{'x'}, MaxDataLength+1)
	params := []Param{{Kind: KindText, Text: big}}

	enc, err := EncodeParams(params, true, promote)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}
	if !bytes.Equal(gotData, big) {
		t.Fatalf("promote received wrong data")
	}
	if enc.BLR[6] != Quad {
		t.Fatalf("BLR type = %d, want Quad", enc.BLR[6])
	}
}

func TestEncodeParamsBoolValueByteFirst(t *testing.T) {
	params := []Param{{Kind: KindBool, Bool: true}, {Kind: KindBool, Bool: false}}
	enc, err := EncodeParams(params, true, noPromote)
	if err != nil {
		t.Fatalf("EncodeParams() error = %v", err)
	}

	// 4-byte null bitmap word + two 4-byte bool values.
	values := enc.Values[4:]
	if len(values) != 8 {
		t.Fatalf("Values length = %d, want 8", len(values))
	}
	if !bytes.Equal(values[:4], []byte{1, 0, 0, 0}) {
		t.Fatalf("true encoded as %v, want [1 0 0 0] (value byte first)", values[:4])
	}
	if !bytes.Equal(values[4:8], []byte{0, 0, 0, 0}) {
		t.Fatalf("false encoded as %v, want [0 0 0 0]", values[4:8])
	}
}

func TestNullBitmapMultiWord(t *testing.T) {
	params := make([]Param, 33)
	params[0] = Param{Kind: KindNull}
	params[32] = Param{Kind: KindNull}
	for i := 1; i < 32; i++ {
		params[i] = Param{Kind: KindInt64, Int64: 1}
	}

	bm := nullBitmap(params)
	if len(bm) != 8 {
		t.Fatalf("bitmap length = %d, want 8", len(bm))
	}
	if bm[0] != 1 {
		t.Fatalf("first word low byte = %d, want 1", bm[0])
	}
	if bm[4] != 1 {
		t.Fatalf("second word low byte = %d, want 1", bm[4])
	}
}
