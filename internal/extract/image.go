package extract

import (
	"context"
	"errors"
	"os"

	"github.com/joseph-ayodele/medreport/internal/ocr"
)

func (r *Reader) readImage(ctx context.Context, path string) (TextExtractionResult, error) {
	if r.engine == nil {
		return TextExtractionResult{}, errors.New("no OCR engine configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	defer f.Close()

	png, err := ocr.PreparePNG(f)
	if err != nil {
		return TextExtractionResult{}, err
	}
	txt, err := r.engine.Recognize(ctx, png)
	if err != nil {
		return TextExtractionResult{}, err
	}
	return TextExtractionResult{
		Text:   ocr.Normalize(txt),
		Pages:  1,
		Method: MethodImageOCR,
		Engine: r.engine.Name(),
	}, nil
}
