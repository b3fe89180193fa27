//go:build gojson

package gzrecord_test

import (
	gzrecord "github.com/reoring/gzrecord"
	drv "github.com/reoring/gzrecord/source/gojson"
)

func init() {
	gzrecord.SetJSONDriver(drv.Driver())
}
