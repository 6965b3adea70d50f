package backend

import "fmt"

// Op is the kind of a recorded command.
type Op uint8

const (
	OpDispatch Op = iota
	OpCopyBuffer
)

func (o Op) String() string {
	switch o {
	case OpDispatch:
		return "dispatch"
	case OpCopyBuffer:
		return "copy"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Command is one recorded operation.
type Command struct {
	Op Op

	// Dispatch
	Kernel   Kernel
	GroupsX  int
	GroupsY  int
	Bindings []Buffer

	// CopyBuffer
	Dst, Src Buffer
	Size     int
}

// CommandBuffer is a finished, immutable list of commands.
type CommandBuffer struct {
	Label    string
	Commands []Command
}

// Encoder records commands into a CommandBuffer. Devices do not see the
// commands until the finished buffer is submitted.
type Encoder struct {
	label string
	cmds  []Command
	err   error
}

// NewEncoder starts a new command buffer.
func NewEncoder(label string) *Encoder {
	return &Encoder{label: label}
}

// Dispatch records a kernel launch over gx by gy workgroups. Bindings are
// bound to consecutive slots starting at zero.
func (e *Encoder) Dispatch(k Kernel, gx, gy int, bindings ...Buffer) {
	if gx <= 0 || gy <= 0 {
		e.fail(fmt.Errorf("%w: dispatch %s with %dx%d groups", ErrInvalidConfig, k, gx, gy))
		return
	}
	for i, b := range bindings {
		if !b.Usage().Has(UsageStorage) && !b.Usage().Has(UsageUniform) {
			e.fail(fmt.Errorf("%w: binding %d (%s) of %s is not a storage or uniform buffer",
				ErrInvalidConfig, i, b.Label(), k))
			return
		}
	}
	e.cmds = append(e.cmds, Command{
		Op:       OpDispatch,
		Kernel:   k,
		GroupsX:  gx,
		GroupsY:  gy,
		Bindings: append([]Buffer(nil), bindings...),
	})
}

// CopyBuffer records a copy of the first size bytes of src into dst.
func (e *Encoder) CopyBuffer(dst, src Buffer, size int) {
	switch {
	case !src.Usage().Has(UsageCopySrc):
		e.fail(fmt.Errorf("%w: copy source %s lacks CopySrc", ErrInvalidConfig, src.Label()))
		return
	case !dst.Usage().Has(UsageCopyDst):
		e.fail(fmt.Errorf("%w: copy destination %s lacks CopyDst", ErrInvalidConfig, dst.Label()))
		return
	case size <= 0 || size > src.Size() || size > dst.Size():
		e.fail(fmt.Errorf("%w: copy of %d bytes from %s (%d) to %s (%d)",
			ErrInvalidConfig, size, src.Label(), src.Size(), dst.Label(), dst.Size()))
		return
	}
	e.cmds = append(e.cmds, Command{Op: OpCopyBuffer, Dst: dst, Src: src, Size: size})
}

// Finish returns the recorded commands, or the first recording error.
func (e *Encoder) Finish() (*CommandBuffer, error) {
	if e.err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.label, e.err)
	}
	cb := &CommandBuffer{Label: e.label, Commands: e.cmds}
	e.cmds = nil
	return cb, nil
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
