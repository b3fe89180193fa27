package gzrecord_test

import (
	"bytes"
	"errors"
	"fmt"

	gzrecord "github.com/reoring/gzrecord"
)

func ExampleEncodeText() {
	b, _ := gzrecord.EncodeText(gzrecord.Record{MyNum: 7, MyStr: "seven"})
	fmt.Println(string(b))
	// Output:
	// {
	//   "my_num": 7,
	//   "my_str": "seven"
	// }
}

func ExampleToCompressedText() {
	b, _ := gzrecord.ToCompressedText(gzrecord.Default())
	fmt.Println(len(b), b[:10])
	// Output: 46 [31 139 8 0 0 0 0 0 0 3]
}

func ExampleFromCompressedReader() {
	b, _ := gzrecord.ToCompressedText(gzrecord.Record{MyNum: 1, MyStr: "one"})
	rec, err := gzrecord.FromCompressedReader(bytes.NewReader(b))
	fmt.Println(rec.MyNum, rec.MyStr, err)
	// Output: 1 one <nil>
}

func ExampleKindOf() {
	_, err := gzrecord.DecodeText([]byte(`{"my_num": -5, "my_str": ""}`))
	fmt.Println(gzrecord.KindOf(err), errors.Is(err, gzrecord.ErrSchemaMismatch))
	fmt.Println(err)
	// Output:
	// SchemaMismatch true
	// too_small at /my_num: must be >= 0
}
