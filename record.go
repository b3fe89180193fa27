package gzrecord

import "strings"

// Wire keys of the record fields, in encoding order.
const (
	FieldMyNum = "my_num"
	FieldMyStr = "my_str"
)

// Record is the value carried by the text and gzip encodings.
type Record struct {
	MyNum uint64 `json:"my_num"`
	MyStr string `json:"my_str"`
}

// Default returns the default record {0, ""}. It equals the zero value.
func Default() Record { return Record{} }

// Equal reports whether r and o hold the same field values.
func (r Record) Equal(o Record) bool { return r.MyNum == o.MyNum && r.MyStr == o.MyStr }

// Compare orders records by MyNum, then by MyStr bytewise. It returns -1, 0
// or +1.
func (r Record) Compare(o Record) int {
	switch {
	case r.MyNum < o.MyNum:
		return -1
	case r.MyNum > o.MyNum:
		return 1
	}
	return strings.Compare(r.MyStr, o.MyStr)
}
