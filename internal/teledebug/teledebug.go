// Package teledebug wraps github.com/kr/pretty to pretty-print an Update or
// Context at Debug log level while tracing dispatch, ported from
// internal/support/debug/debug.go's PrintUpdate.
package teledebug

import (
	"github.com/kr/pretty"

	"github.com/halcyon-dev/telecore/dctx"
	"github.com/halcyon-dev/telecore/internal/telelog"
	"github.com/halcyon-dev/telecore/update"
)

// DumpUpdate pretty-prints u at Debug level, a no-op when Debug logging is
// disabled so production runs never pay pretty.Sprint's cost.
func DumpUpdate(u *update.Update) {
	if !telelog.IsDebugEnabled() {
		return
	}
	telelog.Debugf("update %d (%s):\n%s", u.UpdateID, u.Kind, pretty.Sprint(u.Raw()))
}

// DumpContext pretty-prints a Context's accumulated keys at Debug level.
func DumpContext(ctx *dctx.Context) {
	if !telelog.IsDebugEnabled() {
		return
	}
	telelog.Debugf("context keys: %s", pretty.Sprint(ctx.Keys()))
}
