package report

import (
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docxFont  = "Calibri"
	docxSize  = 11
	docxBlack = "000000"
	docxGrey  = "595959"
)

// WriteDocx renders r as a Word document with the same sections as the text
// report. Summary bullets ("- " or "* ") become "•" paragraphs.
func WriteDocx(r Report, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	styledRun(doc.AddParagraph(""), combinedTitle, true, 16, docxBlack)
	styledRun(doc.AddParagraph(""), "Generated on: "+r.GeneratedAt.Format(TimestampLayout), false, 10, docxGrey)
	if r.SourceID != "" {
		styledRun(doc.AddParagraph(""), "Audio file: "+r.SourceID, false, 10, docxGrey)
	}

	styledRun(doc.AddParagraph(""), strings.TrimSuffix(summaryLabel, ":"), true, 14, docxBlack)
	for _, line := range strings.Split(r.Summary, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if rest, ok := bullet(trimmed); ok {
			trimmed = "• " + rest
		}
		styledRun(doc.AddParagraph(""), trimmed, false, docxSize, docxBlack)
	}

	styledRun(doc.AddParagraph(""), strings.TrimSuffix(transcriptLabel, ":"), true, 14, docxBlack)
	for _, para := range strings.Split(r.Transcript, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			styledRun(doc.AddParagraph(""), para, false, docxSize, docxBlack)
		}
	}

	return doc.SaveTo(path)
}

func bullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(strings.ReplaceAll(rest, "**", "")), true
		}
	}
	return "", false
}

func styledRun(p *docx.Paragraph, text string, bold bool, size uint64, color string) {
	run := p.AddText(text).Font(docxFont).Size(size).Color(color)
	if bold {
		run.Bold(true)
	}
}
