package mock

import "github.com/fwojciec/docpipe"

var _ docpipe.Converter = (*Converter)(nil)

// Converter is a mock implementation of docpipe.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
