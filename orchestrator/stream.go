package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/agents"
	"github.com/researchinpublic/mentor-go-sdk/core"
)

// ProcessStream runs one turn, streaming text as it is generated. The
// returned channel emits zero or more StreamText events followed by
// exactly one StreamComplete or StreamError, then closes.
func (o *Orchestrator) ProcessStream(ctx context.Context, sessionID, message string, forced Mode) <-chan core.StreamEvent {
	events := make(chan core.StreamEvent, 16)

	go func() {
		defer close(events)

		filter := newMetadataFilter(func(text string) {
			select {
			case events <- core.StreamEvent{Type: core.StreamText, Text: text}:
			case <-ctx.Done():
			}
		})

		response, err := o.process(ctx, sessionID, message, forced, filter.write)
		if err != nil {
			events <- core.StreamEvent{Type: core.StreamError, Err: core.AsError(err)}
			return
		}
		filter.flush()
		events <- core.StreamEvent{Type: core.StreamComplete, Response: response}
	}()

	return events
}

var endBlockPattern = regexp.MustCompile(`\[\[\s*END_[A-Z_]+\s*\]\]`)

// metadataFilter holds back streamed text until any leading analysis
// block has fully arrived, so raw metadata never reaches the client.
// Once past the block (or once it is clear none is coming) chunks pass
// straight through.
type metadataFilter struct {
	emit        func(string)
	buf         strings.Builder
	passthrough bool
}

func newMetadataFilter(emit func(string)) *metadataFilter {
	return &metadataFilter{emit: emit}
}

func (f *metadataFilter) write(chunk string) {
	if f.passthrough {
		f.emit(chunk)
		return
	}
	f.buf.WriteString(chunk)
	buffered := f.buf.String()

	trimmed := strings.TrimLeft(buffered, " \t\r\n")
	if trimmed == "" {
		return
	}
	if !strings.HasPrefix(trimmed, "[") {
		f.passthrough = true
		f.buf.Reset()
		f.emit(buffered)
		return
	}

	if loc := endBlockPattern.FindStringIndex(buffered); loc != nil {
		rest := strings.TrimLeft(buffered[loc[1]:], " \n")
		f.passthrough = true
		f.buf.Reset()
		if rest != "" {
			f.emit(rest)
		}
	}
}

// flush drains whatever is still buffered at end of generation, with
// metadata blocks stripped. Covers output that opened a bracket but
// never closed a block.
func (f *metadataFilter) flush() {
	if f.passthrough || f.buf.Len() == 0 {
		return
	}
	_, clean := agents.ParseMetadata(f.buf.String())
	f.buf.Reset()
	f.passthrough = true
	if clean != "" {
		f.emit(clean)
	}
}
