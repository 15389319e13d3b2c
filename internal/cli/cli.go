// Package cli implements the interactive booking prompt.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/room-ledger/internal/application"
	"github.com/example/room-ledger/internal/render"
)

// Prompt is printed before every line read.
const Prompt = "> "

// Usage is printed by help and for unrecognized input.
const Usage = `
Usage:
To quit:
    > quit
To add a room
    > add room HW.003
To book a room as a student
    > book HW.003 2023-11-15 08:00-08:45
To book a room for a class
    > book class Statistik Wermuth HW.003 2023-11-15 08:00-08:45
To render a room table
    > render HW.003 [out.jpg]
To list rooms
    > rooms
`

const (
	colorWarning = "\033[93m"
	colorReset   = "\033[0m"
)

// Service is the booking surface driven by the prompt.
type Service interface {
	AddRoom(ctx context.Context, roomID string) error
	Book(ctx context.Context, params application.BookParams) (application.Booking, error)
	ListRooms(ctx context.Context) ([]string, error)
	RenderWeek(ctx context.Context, roomID string, format render.Format) ([]byte, error)
}

// Interpreter reads commands line by line and applies them to a Service.
type Interpreter struct {
	service      Service
	out          io.Writer
	renderOutput string
	logger       *slog.Logger
	writeFile    func(path string, data []byte) error
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRenderOutput sets the file written by render when no path is given.
func WithRenderOutput(path string) Option {
	return func(i *Interpreter) {
		if path != "" {
			i.renderOutput = path
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithFileWriter replaces the function used to write rendered weeks.
func WithFileWriter(write func(path string, data []byte) error) Option {
	return func(i *Interpreter) {
		i.writeFile = write
	}
}

// New constructs an interpreter writing to out.
func New(service Service, out io.Writer, opts ...Option) *Interpreter {
	i := &Interpreter{
		service:      service,
		out:          out,
		renderOutput: "out.jpg",
		writeFile: func(path string, data []byte) error {
			return os.WriteFile(path, data, 0o644)
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// MaxLineBytes bounds a single command line. Longer lines are reported and
// skipped.
const MaxLineBytes = 64 * 1024

var errLineTooLong = fmt.Errorf("line longer than %d bytes ignored", MaxLineBytes)

// Run prompts for and executes commands until quit, end of input or
// cancellation of ctx.
func (i *Interpreter) Run(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(i.out, Prompt)
		line, err := readLine(reader)
		switch {
		case errors.Is(err, errLineTooLong):
			fmt.Fprintln(i.out, colorWarning+err.Error()+colorReset)
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(i.out)
			return nil
		case err != nil:
			fmt.Fprintln(i.out)
			return err
		}
		if quit := i.Execute(ctx, line); quit {
			return nil
		}
	}
}

// readLine returns the next line without its terminator. The remainder of a
// line longer than MaxLineBytes is consumed and errLineTooLong returned.
func readLine(r *bufio.Reader) (string, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, more, err := r.ReadLine()
		if err != nil {
			if len(buf) > 0 || tooLong {
				break
			}
			return "", err
		}
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !more {
			break
		}
	}
	if tooLong {
		return "", errLineTooLong
	}
	return string(buf), nil
}

// Execute runs a single command line and reports whether the loop should stop.
func (i *Interpreter) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && fields[0] == "quit":
		return true
	case len(fields) == 1 && fields[0] == "help":
		fmt.Fprint(i.out, Usage)
	case len(fields) == 1 && fields[0] == "rooms":
		i.listRooms(ctx)
	case (len(fields) == 2 || len(fields) == 3) && fields[0] == "render":
		path := i.renderOutput
		if len(fields) == 3 {
			path = fields[2]
		}
		i.report(i.renderTo(ctx, fields[1], path))
	case len(fields) == 3 && fields[0] == "add" && fields[1] == "room":
		i.report(i.service.AddRoom(ctx, fields[2]))
	case len(fields) == 7 && fields[0] == "book" && fields[1] == "class":
		_, err := i.service.Book(ctx, application.BookParams{
			ClassName:  fields[2],
			Instructor: fields[3],
			RoomID:     fields[4],
			Date:       fields[5],
			Slot:       fields[6],
		})
		i.report(err)
	case len(fields) == 4 && fields[0] == "book":
		_, err := i.service.Book(ctx, application.BookParams{
			RoomID: fields[1],
			Date:   fields[2],
			Slot:   fields[3],
		})
		i.report(err)
	default:
		fmt.Fprint(i.out, Usage)
	}
	return false
}

func (i *Interpreter) listRooms(ctx context.Context) {
	rooms, err := i.service.ListRooms(ctx)
	if err != nil {
		i.report(err)
		return
	}
	if len(rooms) == 0 {
		fmt.Fprintln(i.out, "no rooms")
		return
	}
	for _, room := range rooms {
		fmt.Fprintln(i.out, room)
	}
}

func (i *Interpreter) renderTo(ctx context.Context, roomID, path string) error {
	format, err := render.FormatFromPath(path)
	if err != nil {
		return err
	}
	output, err := i.service.RenderWeek(ctx, roomID, format)
	if err != nil {
		return err
	}
	if err := i.writeFile(path, output); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	i.logger.DebugContext(ctx, "week rendered", "room_id", roomID, "path", path, "format", string(format))
	return nil
}

// report prints err, if any. Unknown slot labels are reported plainly; all
// other failures are highlighted.
func (i *Interpreter) report(err error) {
	if err == nil {
		return
	}
	var slotErr *application.InvalidSlotError
	if errors.As(err, &slotErr) {
		fmt.Fprintln(i.out, slotErr.Error())
		return
	}
	if !application.IsClientError(err) {
		i.logger.Error("command failed", "error", err, "error_kind", application.ErrorKind(err))
	}
	fmt.Fprintln(i.out, colorWarning+err.Error()+colorReset)
}
