package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/medreport/internal/ocr"
)

func (r *Reader) readPDF(ctx context.Context, path string) (TextExtractionResult, error) {
	text, pages, err := pdfText(path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	if strings.TrimSpace(text) != "" || !r.pdfFallback || r.rasterizer == nil || r.engine == nil {
		return TextExtractionResult{Text: text, Pages: pages, Method: MethodPDFText}, nil
	}

	r.logger.Info("pdf has no text layer, falling back to ocr", "path", path, "pages", pages)
	return r.ocrPDF(ctx, path)
}

// pdfText rebuilds the lines of every page from positioned glyphs. The pdf package panics on
// some malformed files, so panics are turned into errors.
func pdfText(path string) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var b strings.Builder
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range pageLines(page.Content().Text) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String(), pages, nil
}

// textRun is a sequence of glyphs drawn one after another without a jump in position.
type textRun struct {
	x, y     float64
	size     float64
	endX     float64 // x + width of the last glyph
	lastX    float64
	contents strings.Builder
}

const lineTolerance = 2.0

// pageLines groups glyphs into lines by baseline, top to bottom, and orders the runs on each
// line left to right. Runs that are not adjacent are separated by a single space.
func pageLines(texts []pdf.Text) []string {
	var runs []*textRun
	var cur *textRun
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if cur == nil || startsNewRun(cur, t) {
			cur = &textRun{x: t.X, y: t.Y, size: t.FontSize}
			runs = append(runs, cur)
		}
		cur.contents.WriteString(t.S)
		cur.lastX = t.X
		cur.endX = t.X + t.W
	}

	type line struct {
		y    float64
		runs []*textRun
	}
	var lines []*line
	for _, r := range runs {
		var target *line
		for _, l := range lines {
			if math.Abs(l.y-r.y) <= lineTolerance {
				target = l
				break
			}
		}
		if target == nil {
			target = &line{y: r.y}
			lines = append(lines, target)
		}
		target.runs = append(target.runs, r)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.runs, func(i, j int) bool { return l.runs[i].x < l.runs[j].x })
		var b strings.Builder
		for _, r := range l.runs {
			s := r.contents.String()
			if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(s, " ") {
				b.WriteByte(' ')
			}
			b.WriteString(s)
		}
		if text := strings.TrimRight(b.String(), " "); strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out
}

// startsNewRun reports whether glyph t was positioned away from where run r left off: another
// baseline, a move back, or a forward gap wider than a space.
func startsNewRun(r *textRun, t pdf.Text) bool {
	if math.Abs(t.Y-r.y) > lineTolerance {
		return true
	}
	if t.X < r.lastX-lineTolerance {
		return true
	}
	gap := math.Max(r.size, 1) * 0.3
	return t.X-r.endX > gap
}

func (r *Reader) ocrPDF(ctx context.Context, path string) (TextExtractionResult, error) {
	images, err := r.rasterizer.Rasterize(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}

	var b strings.Builder
	var failed []error
	for i, img := range images {
		txt, err := r.engine.Recognize(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return TextExtractionResult{}, ctx.Err()
			}
			r.logger.Warn("page ocr failed", "path", path, "page", i+1, "error", err)
			failed = append(failed, fmt.Errorf("page %d: %w", i+1, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ocr.Normalize(txt))
	}
	if len(failed) == len(images) {
		return TextExtractionResult{}, errors.Join(failed...)
	}
	return TextExtractionResult{
		Text:   b.String(),
		Pages:  len(images),
		Method: MethodPDFOCR,
		Engine: r.engine.Name(),
	}, nil
}
