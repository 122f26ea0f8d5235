package service

import (
	"fmt"
	"strings"
)

type reportWriter struct {
	b strings.Builder
}

func (w *reportWriter) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *reportWriter) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *reportWriter) rule(ch string, width int) {
	w.line(strings.Repeat(ch, width))
}

func (w *reportWriter) section(title string) {
	w.line("")
	w.line(title)
	w.rule("-", 30)
}

func (w *reportWriter) String() string {
	return w.b.String()
}
