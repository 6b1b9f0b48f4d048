package sidebar

import (
	"fmt"
	"io"
)

// InjectionTarget receives the formatted prompt block. Implementations
// adapt a host surface (an editor pane, a chat input, a pipe); they accept
// the whole block each push rather than diffs.
type InjectionTarget interface {
	Inject(formatted string) error
}

// WriterTarget injects by writing the block to an io.Writer, separated by
// a form feed so consumers can split consecutive pushes.
type WriterTarget struct {
	W io.Writer
}

func (t WriterTarget) Inject(formatted string) error {
	if _, err := fmt.Fprintf(t.W, "%s\f", formatted); err != nil {
		return fmt.Errorf("sidebar: inject: %w", err)
	}
	return nil
}
