package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Out receives command results, Err receives diagnostics
	Out io.Writer
	Err io.Writer

	// Logger is the structured logger shared with the services
	Logger zerolog.Logger

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context
func NewContext() *Context {
	return &Context{
		Context:      context.Background(),
		OutputFormat: "table",
		Out:          os.Stdout,
		Err:          os.Stderr,
		Logger:       zerolog.Nop(),
	}
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(message string) {
	c.Logger.Debug().Msg(message)
	if !c.Quiet && c.Verbose && c.Err != nil {
		fmt.Fprintln(c.Err, message)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	c.Logger.Error().Msg(message)
	if !c.Quiet && c.Err != nil {
		fmt.Fprintln(c.Err, "Error:", message)
	}
}
