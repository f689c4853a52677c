package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/pkg/jsonmessage"
)

var ErrIdleTimeout = errors.New("build progress stream went silent")

// StreamError is a failure the build reported through its progress stream.
type StreamError struct {
	Image   string
	Code    int
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("failed to build %s: %s", e.Image, e.Message)
}

type streamEvent struct {
	message *jsonmessage.JSONMessage
	err     error
}

// Follow copies a build progress stream to out until exactly one terminal
// outcome: nil at the end of a stream that carried no error, a StreamError
// on the first error message, or ErrIdleTimeout when no message arrives for
// idleTimeout. An idleTimeout of zero waits forever. The caller closes body.
func Follow(ctx context.Context, body io.Reader, out io.Writer, image string, idleTimeout time.Duration, isTerminal bool) error {
	events := make(chan streamEvent)
	done := make(chan struct{})
	defer close(done)

	go func() {
		decoder := json.NewDecoder(body)
		for {
			var message jsonmessage.JSONMessage
			err := decoder.Decode(&message)

			event := streamEvent{err: err}
			if err == nil {
				event.message = &message
			}
			select {
			case events <- event:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var idle <-chan time.Time
	var timer *time.Timer
	if idleTimeout > 0 {
		timer = time.NewTimer(idleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
			return fmt.Errorf("%s: no build output for %s: %w", image, idleTimeout, ErrIdleTimeout)
		case event := <-events:
			if event.err != nil {
				if errors.Is(event.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("%s: failed to decode build output: %w", image, event.err)
			}

			if err := streamError(image, event.message); err != nil {
				return err
			}
			if displayable(event.message) {
				if err := event.message.Display(out, isTerminal); err != nil {
					return fmt.Errorf("%s: failed to display build output: %w", image, err)
				}
			}

			if timer != nil {
				timer.Reset(idleTimeout)
			}
		}
	}
}

func streamError(image string, message *jsonmessage.JSONMessage) error {
	if message.Error != nil {
		return &StreamError{Image: image, Code: message.Error.Code, Message: message.Error.Message}
	}
	if message.ErrorMessage != "" {
		return &StreamError{Image: image, Message: message.ErrorMessage}
	}
	return nil
}

// displayable leaves out aux-only messages such as the built image id.
func displayable(message *jsonmessage.JSONMessage) bool {
	return message.Aux == nil || message.Stream != "" || message.Status != ""
}
