package controller

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Step is one line of an input script: Buttons held for Frames frames.
type Step struct {
	Frames  int
	Buttons Buttons
}

// Recorder writes the buttons seen each frame as an input script, one
// "frames BUTTONS" line per change.
type Recorder struct {
	w       io.Writer
	last    Buttons
	count   int
	started bool
}

// NewRecorder returns a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Frame records the buttons held during one frame.
func (r *Recorder) Frame(b Buttons) error {
	if r.started && b == r.last {
		r.count++
		return nil
	}
	var err error
	if r.started {
		err = r.write()
	}
	r.last, r.count, r.started = b, 1, true
	return err
}

// Flush writes the pending line.
func (r *Recorder) Flush() error {
	if !r.started || r.count == 0 {
		return nil
	}
	err := r.write()
	r.count = 0
	return err
}

func (r *Recorder) write() error {
	_, err := fmt.Fprintf(r.w, "%d %s\n", r.count, strings.ToUpper(r.last.String()))
	return err
}

// ParseScript reads an input script. Blank lines and lines starting with
// '#' are skipped.
func ParseScript(rd io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(rd)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: want \"frames BUTTONS\", got %q", n, line)
		}
		frames, err := strconv.Atoi(parts[0])
		if err != nil || frames < 0 {
			return nil, fmt.Errorf("line %d: invalid frame count %q", n, parts[0])
		}
		b, err := ParseButtons(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		steps = append(steps, Step{Frames: frames, Buttons: b})
	}
	return steps, scanner.Err()
}
