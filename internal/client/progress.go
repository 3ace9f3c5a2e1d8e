package client

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fileshare/internal/pkg/format"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// ProgressBar draws a single-line ASCII transfer indicator.
type ProgressBar struct {
	out           io.Writer
	prefix        string
	total         int64
	current       int64
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func NewProgressBar(out io.Writer, prefix string) *ProgressBar {
	return &ProgressBar{out: out, prefix: prefix, total: -1}
}

// Update matches ProgressFunc.
func (p *ProgressBar) Update(done, total int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.current = done
	p.total = total
	p.mu.Unlock()
	p.render(false)
}

func (p *ProgressBar) render(force bool) {
	p.mu.Lock()
	now := time.Now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		p.mu.Unlock()
		return
	}
	line := p.lineLocked()
	padding := p.paddingLocked(line)
	p.lastRender = now
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r%s%s", line, padding)
}

func (p *ProgressBar) lineLocked() string {
	var b strings.Builder
	b.WriteString(p.prefix)
	b.WriteByte(' ')

	if p.total <= 0 {
		b.WriteString(format.FileSize(p.current))
		b.WriteString(" transferred")
		return b.String()
	}

	ratio := float64(p.current) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(progressBarWidth) + 0.5)
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", progressBarWidth-filled))
	fmt.Fprintf(&b, "] %3d%% %s/%s", int(ratio*100+0.5), format.FileSize(p.current), format.FileSize(p.total))
	return b.String()
}

// paddingLocked returns the blanks needed to overwrite the previous line.
// Widths are terminal columns, not bytes.
func (p *ProgressBar) paddingLocked(line string) string {
	width := lipgloss.Width(line)
	prev := p.lastLineWidth
	p.lastLineWidth = width
	if prev > width {
		return strings.Repeat(" ", prev-width)
	}
	return ""
}

func (p *ProgressBar) Finish() { p.complete(nil) }

func (p *ProgressBar) Fail(err error) { p.complete(err) }

func (p *ProgressBar) complete(err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	suffix := " ✓"
	if err != nil {
		suffix = fmt.Sprintf(" ✗ %v", err)
	}
	line := p.lineLocked() + suffix
	padding := p.paddingLocked(line)
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r%s%s\n", line, padding)
}
