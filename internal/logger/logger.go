// Package logger is the single process-wide error sink described by the
// core's external interfaces: a source position, a message kind, and a
// counter that callers use to decide whether to keep running dependent
// passes. It intentionally looks and behaves like clang's diagnostic
// format, matching the shape every other pass in this repository expects.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Loc is a byte offset into a Source. The parser (out of scope here) is
// responsible for producing valid locations; this package only renders them.
type Loc struct {
	Start int32
}

// Source is the minimal slice of a parsed file the core needs in order to
// render a diagnostic: its path and its raw text (to print the offending line).
type Source struct {
	Index        uint32
	KeyPath      string
	PrettyPath   string
	Contents     string
}

// LineColumn returns a 1-based line and column for a location inside this source.
func (s *Source) LineColumn(loc Loc) (line int, column int, lineText string) {
	line = 1
	lineStart := 0
	text := s.Contents
	n := len(text)
	pos := int(loc.Start)
	if pos > n {
		pos = n
	}
	if pos < 0 {
		pos = 0
	}
	for i := 0; i < pos; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := n
	if idx := strings.IndexByte(text[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	column = pos - lineStart
	return line, column, text[lineStart:lineEnd]
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Note
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		panic("logger: unknown message kind")
	}
}

type MsgLocation struct {
	File     string
	Line     int
	Column   int
	LineText string
}

type MsgData struct {
	Text     string
	Location *MsgLocation
}

type Msg struct {
	Kind  MsgKind
	Data  MsgData
	Notes []MsgData
}

func (msg Msg) String(useColor bool) string {
	var b strings.Builder
	loc := msg.Data.Location
	if loc != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", loc.File, loc.Line, loc.Column+1)
	}
	kindText := msg.Kind.String()
	if useColor {
		color := "\033[1;31m"
		if msg.Kind == Warning {
			color = "\033[1;33m"
		} else if msg.Kind == Note {
			color = "\033[1;36m"
		}
		fmt.Fprintf(&b, "%s%s:\033[0m \033[1m%s\033[0m\n", color, kindText, msg.Data.Text)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", kindText, msg.Data.Text)
	}
	if loc != nil && loc.LineText != "" {
		fmt.Fprintf(&b, "    %s\n", loc.LineText)
		fmt.Fprintf(&b, "    %s^\n", strings.Repeat(" ", loc.Column))
	}
	for _, note := range msg.Notes {
		fmt.Fprintf(&b, "  note: %s\n", note.Text)
	}
	return b.String()
}

// Log is the process-wide error sink. Every pass reports through
// AddMsg; HasErrors lets a later pass decide whether to short-circuit
// flow-dependent work; Done drains the accumulated messages.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	ErrorCount func() int
	Done      func() []Msg
}

type sortableMsgs []Msg

func (a sortableMsgs) Len() int      { return len(a) }
func (a sortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a sortableMsgs) Less(i, j int) bool {
	li, lj := a[i].Data.Location, a[j].Data.Location
	if li == nil || lj == nil {
		return li == nil && lj != nil
	}
	if li.File != lj.File {
		return li.File < lj.File
	}
	if li.Line != lj.Line {
		return li.Line < lj.Line
	}
	return li.Column < lj.Column
}

// NewStderrLog streams each message to stderr as it arrives, colorized when
// stderr is a real terminal.
func NewStderrLog() Log {
	var mutex sync.Mutex
	var msgs sortableMsgs
	errors := 0
	info := GetTerminalInfo(os.Stderr)

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)
			if msg.Kind == Error {
				errors++
			}
			os.Stderr.WriteString(msg.String(info.UseColorEscapes))
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		ErrorCount: func() int {
			mutex.Lock()
			defer mutex.Unlock()
			return errors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

// NewDeferLog buffers every message instead of printing it, for use by the
// pipeline's callers (tests, or a host embedding the compiler) that want to
// collect and inspect diagnostics rather than have them hit a terminal.
func NewDeferLog() Log {
	var mutex sync.Mutex
	var msgs sortableMsgs
	errors := 0

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)
			if msg.Kind == Error {
				errors++
			}
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		ErrorCount: func() int {
			mutex.Lock()
			defer mutex.Unlock()
			return errors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func makeLocation(source *Source, loc Loc) *MsgLocation {
	if source == nil {
		return nil
	}
	line, column, text := source.LineColumn(loc)
	return &MsgLocation{File: source.PrettyPath, Line: line, Column: column, LineText: text}
}

func (log Log) AddError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Error, Data: MsgData{Text: text, Location: makeLocation(source, loc)}})
}

func (log Log) AddErrorWithNotes(source *Source, loc Loc, text string, notes []MsgData) {
	log.AddMsg(Msg{Kind: Error, Data: MsgData{Text: text, Location: makeLocation(source, loc)}, Notes: notes})
}

func (log Log) AddWarning(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Warning, Data: MsgData{Text: text, Location: makeLocation(source, loc)}})
}

func RangeNote(source *Source, loc Loc, text string) MsgData {
	return MsgData{Text: text, Location: makeLocation(source, loc)}
}
