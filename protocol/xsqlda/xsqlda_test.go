package xsqlda

import (
	"testing"

	"github.com/fbwire/fbclient/protocol/blr"
)

func TestCoerceIntegerScaleZero(t *testing.T) {
	d := Descriptor{SQLType: blr.SQLLong + 1, Scale: 0}
	if err := d.Coerce(); err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if d.SQLType != blr.SQLInt64+1 {
		t.Fatalf("SQLType = %d, want INT64+1", d.SQLType)
	}
}

func TestCoerceIntegerScaleNonzeroBecomesDouble(t *testing.T) {
	d := Descriptor{SQLType: blr.SQLLong + 1, Scale: -2}
	if err := d.Coerce(); err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if d.SQLType != blr.SQLDouble+1 {
		t.Fatalf("SQLType = %d, want DOUBLE+1", d.SQLType)
	}
	if d.Scale != 0 {
		t.Fatalf("Scale = %d, want 0", d.Scale)
	}
}

func TestCoerceTextToVarying(t *testing.T) {
	d := Descriptor{SQLType: blr.SQLText + 1}
	if err := d.Coerce(); err != nil {
		t.Fatalf("Coerce() error = %v", err)
	}
	if d.SQLType != blr.SQLVarying+1 {
		t.Fatalf("SQLType = %d, want VARYING+1", d.SQLType)
	}
}

func TestCoerceBlobSubtypesBothSupported(t *testing.T) {
	for _, subtype := range []int16{0, 1} {
		d := Descriptor{SQLType: blr.SQLBlob + 1, SQLSubtype: subtype}
		if err := d.Coerce(); err != nil {
			t.Fatalf("Coerce() subtype %d error = %v", subtype, err)
		}
	}
}

func TestCoerceBlobUnsupportedSubtype(t *testing.T) {
	d := Descriptor{SQLType: blr.SQLBlob + 1, SQLSubtype: 2}
	if err := d.Coerce(); err == nil {
		t.Fatal("Coerce() error = nil, want error for unsupported blob subtype")
	}
}

func TestCoerceDateTimeToTimestamp(t *testing.T) {
	for _, typ := range []int16{blr.SQLDate + 1, blr.SQLTime + 1, blr.SQLTimestamp + 1} {
		d := Descriptor{SQLType: typ}
		if err := d.Coerce(); err != nil {
			t.Fatalf("Coerce() error = %v", err)
		}
		if d.SQLType != blr.SQLTimestamp+1 {
			t.Fatalf("SQLType = %d, want TIMESTAMP+1", d.SQLType)
		}
	}
}

func TestCoerceUnsupportedType(t *testing.T) {
	d := Descriptor{SQLType: 9999}
	if err := d.Coerce(); err == nil {
		t.Fatal("Coerce() error = nil, want error")
	}
}
