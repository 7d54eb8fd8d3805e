package isp

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// MessageError carries the errors reported by esbuild for one stage.
type MessageError struct {
	Messages []api.Message
}

func (e *MessageError) Error() string {
	var sb strings.Builder
	for i, m := range e.Messages {
		if i > 0 {
			sb.WriteString("; ")
		}
		if loc := m.Location; loc != nil {
			fmt.Fprintf(&sb, "%s:%d:%d: ", loc.File, loc.Line, loc.Column)
		}
		sb.WriteString(m.Text)
	}
	return sb.String()
}

func logWarnings(logger Logger, stage string, msgs []api.Message) {
	if len(msgs) == 0 {
		return
	}
	logger.Warningf("%s: %s", stage, (&MessageError{Messages: msgs}).Error())
}
