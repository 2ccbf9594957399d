package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/nguyentantai21042004/demozone/internal/speech"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// writeTranscript writes the plain-text transcript and, when enabled, the
// .srt and .docx renditions next to it.
func (p *implProcessor) writeTranscript(ctx context.Context, txtPath, transcript string, segments []speech.Segment) error {
	if err := os.MkdirAll(filepath.Dir(txtPath), 0755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	if err := os.WriteFile(txtPath, []byte(transcript), 0644); err != nil {
		return err
	}
	p.logger.Info(ctx, "Transcript saved: %s", txtPath)

	base := strings.TrimSuffix(txtPath, filepath.Ext(txtPath))

	if p.cfg.Transcript.SRT {
		srtPath := base + ".srt"
		if err := os.WriteFile(srtPath, []byte(formatSRT(segments)), 0644); err != nil {
			p.logger.Warn(ctx, "Failed to write SRT %s: %v", srtPath, err)
		}
	}

	if p.cfg.Transcript.DOCX {
		docxPath := base + ".docx"
		title := strings.TrimSuffix(filepath.Base(txtPath), filepath.Ext(txtPath))
		if err := segmentsToDocx(title, segments, docxPath); err != nil {
			p.logger.Warn(ctx, "Failed to write DOCX %s: %v", docxPath, err)
		}
	}

	return nil
}

// formatSRT renders segments as SRT cues, prefixing the speaker when known.
func formatSRT(segments []speech.Segment) string {
	var b strings.Builder
	n := 0
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		n++
		if s.Speaker != "" {
			text = fmt.Sprintf("[%s] %s", s.Speaker, text)
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, srtTimestamp(s.Start), srtTimestamp(s.End), text)
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// segmentsToDocx writes a transcript document: a bold title, then one
// paragraph per speaker turn with consecutive segments merged.
func segmentsToDocx(title string, segments []speech.Segment, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	doc.AddParagraph("")

	var (
		speaker string
		buf     []string
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		p := doc.AddParagraph("")
		if speaker != "" {
			addStyledRun(p, speaker+": ", true, fontSize)
		}
		addStyledRun(p, strings.Join(buf, " "), false, fontSize)
		buf = buf[:0]
	}

	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.Speaker != speaker {
			flush()
			speaker = s.Speaker
		}
		buf = append(buf, text)
	}
	flush()

	return doc.SaveTo(outputPath)
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
