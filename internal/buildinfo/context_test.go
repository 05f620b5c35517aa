package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{name: "nil context", ctx: nil, version: UnknownValue, buildDate: UnknownValue},
		{name: "empty values", ctx: NewContext("", ""), version: UnknownValue, buildDate: UnknownValue},
		{name: "set values", ctx: NewContext("1.2.0", "2026-10-01"), version: "1.2.0", buildDate: "2026-10-01"},
		{name: "pre-release", ctx: NewContext("1.3.0-beta.1", ""), version: "1.3.0-beta.1", buildDate: UnknownValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
			assert.Equal(t, "dancereview@"+tt.version, tt.ctx.Release())
		})
	}
}
