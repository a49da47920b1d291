package extract

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// PlainText returns the file bytes as UTF-8 text, verbatim.
type PlainText struct{}

func (p *PlainText) Extract(_ context.Context, req Request) (string, error) {
	if !utf8.Valid(req.Data) {
		return "", fmt.Errorf("failed to read text file: content is not valid UTF-8")
	}
	return string(req.Data), nil
}
