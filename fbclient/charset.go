package fbclient

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Charset transcodes TEXT/VARYING column and parameter bytes between the
// server's connection charset and Go's native UTF-8 strings. A nil Codec
// means the charset is already UTF-8 (or plain ASCII), so bytes pass
// through unchanged.
type Charset struct {
	Name  string
	Codec encoding.Encoding
}

// Decode converts server-charset bytes to a UTF-8 string.
func (c Charset) Decode(b []byte) (string, error) {
	if c.Codec == nil {
		return string(b), nil
	}
	out, err := c.Codec.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("fbclient: invalid %s string: %w", c.Name, err)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to server-charset bytes.
func (c Charset) Encode(s string) ([]byte, error) {
	if c.Codec == nil {
		return []byte(s), nil
	}
	out, err := c.Codec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("fbclient: invalid %s string: %w", c.Name, err)
	}
	return out, nil
}

var charsets = map[string]Charset{
	"utf8":      {Name: "UTF8", Codec: nil},
	"ascii":     {Name: "ASCII", Codec: nil},
	"none":      {Name: "NONE", Codec: nil},
	"iso88591":  {Name: "ISO8859_1", Codec: charmap.ISO8859_1},
	"iso88592":  {Name: "ISO8859_2", Codec: charmap.ISO8859_2},
	"iso88593":  {Name: "ISO8859_3", Codec: charmap.ISO8859_3},
	"iso88594":  {Name: "ISO8859_4", Codec: charmap.ISO8859_4},
	"iso88595":  {Name: "ISO8859_5", Codec: charmap.ISO8859_5},
	"iso88596":  {Name: "ISO8859_6", Codec: charmap.ISO8859_6},
	"iso88597":  {Name: "ISO8859_7", Codec: charmap.ISO8859_7},
	"iso885913": {Name: "ISO8859_13", Codec: charmap.ISO8859_13},
	"win1250":   {Name: "WIN1250", Codec: charmap.Windows1250},
	"win1251":   {Name: "WIN1251", Codec: charmap.Windows1251},
	"win1252":   {Name: "WIN1252", Codec: charmap.Windows1252},
	"win1253":   {Name: "WIN1253", Codec: charmap.Windows1253},
	"win1254":   {Name: "WIN1254", Codec: charmap.Windows1254},
	"win1256":   {Name: "WIN1256", Codec: charmap.Windows1256},
	"win1257":   {Name: "WIN1257", Codec: charmap.Windows1257},
	"win1258":   {Name: "WIN1258", Codec: charmap.Windows1258},
	"koi8r":     {Name: "KOI8R", Codec: charmap.KOI8R},
	"koi8u":     {Name: "KOI8U", Codec: charmap.KOI8U},
	"eucjp":     {Name: "EUCJP", Codec: japanese.EUCJP},
	"sjis":      {Name: "SJIS", Codec: japanese.ShiftJIS},
	"big5":      {Name: "BIG5", Codec: traditionalchinese.Big5},
	"gbk":       {Name: "GBK", Codec: simplifiedchinese.GBK},
	"euckr":     {Name: "EUCKR", Codec: korean.EUCKR},
	"utf16le":   {Name: "UTF16LE", Codec: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
}

// ParseCharset looks up a charset by its Firebird connection-string name
// (case-insensitive, underscores/hyphens ignored), matching the
// normalisation the reference client applies.
func ParseCharset(name string) (Charset, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(strings.TrimSpace(name)))
	if cs, ok := charsets[key]; ok {
		return cs, nil
	}
	return Charset{}, fmt.Errorf("fbclient: %q doesn't represent any known charset", name)
}
