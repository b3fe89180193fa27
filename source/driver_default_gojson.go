// Package source installs the go-json token driver as the process-wide
// default when imported for its side effect:
//
//	import _ "github.com/reoring/gzrecord/source"
package source

import (
	gzrecord "github.com/reoring/gzrecord"
	drvgojson "github.com/reoring/gzrecord/source/gojson"
)

// init in a separate package to avoid an import cycle in the root package.
func init() { gzrecord.SetJSONDriver(drvgojson.Driver()) }
