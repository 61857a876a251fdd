// Copyright (c) Microsoft. All rights reserved.

package anthropic

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	ak "github.com/microsoft/agentkit/agentkit"
)

// sseEvent is a single parsed server-sent event.
type sseEvent struct {
	event string
	data  string
}

// readSSE invokes fn for each data-bearing event in the stream. It returns
// when the stream ends or fn returns an error. Multi-line data fields are
// joined with newlines per the SSE spec.
func readSSE(r io.Reader, fn func(ev sseEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ev sseEvent
	var dataLines []string

	flush := func() error {
		if len(dataLines) == 0 {
			ev = sseEvent{}
			return nil
		}
		ev.data = strings.Join(dataLines, "\n")
		dataLines = nil
		err := fn(ev)
		ev = sseEvent{}
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "event:"):
			ev.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}

	if err := flush(); err != nil {
		return err
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read SSE stream: %v", ak.ErrService, err)
	}
	return nil
}
