package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Name() string { return "mock" }

func (m *mockEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	args := m.Called(ctx, png)
	return args.String(0), args.Error(1)
}

type stubRasterizer struct {
	pages [][]byte
	err   error
}

func (s stubRasterizer) Rasterize(context.Context, string) ([][]byte, error) {
	return s.pages, s.err
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Lab Report</w:t></w:r></w:p>
    <w:p>
      <w:r><w:t xml:space="preserve">Test Normal </w:t></w:r>
      <w:r><w:t>Range</w:t><w:tab/><w:t>Result</w:t></w:r>
    </w:p>
    <w:p><w:r><w:t>Glucose 70-100 Normal 95</w:t><w:br/><w:t>second line</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>in a table</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p/>
    <w:sectPr/>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestBodyParagraphs(t *testing.T) {
	got, err := bodyParagraphs(strings.NewReader(documentXML))
	require.NoError(t, err)
	assert.Equal(t, "Lab Report\nTest Normal Range\tResult\nGlucose 70-100 Normal 95\nsecond line\n\n", got)
}

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), "report.docx", documentXML)

	res, err := NewReader(nil, nil, false, nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.DOCX, res.Format)
	assert.Equal(t, MethodDOCX, res.Method)
	assert.Contains(t, res.Text, "Glucose 70-100 Normal 95\n")
	assert.NotContains(t, res.Text, "in a table")
}

func TestExtractDOCXWithoutDocumentPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("docProps/core.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = NewReader(nil, nil, false, nil).Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error reading Word file: "), err.Error())
	assert.Equal(t, common.CodeReadDOCX, common.CodeOf(err))
}

func TestExtractUnsupported(t *testing.T) {
	r := NewReader(nil, nil, false, nil)
	for _, p := range []string{"notes.txt", "REPORT.PDF", "scan.PNG", "legacy.doc"} {
		_, err := r.Extract(context.Background(), p)
		assert.ErrorIs(t, err, common.ErrUnsupportedFormat, p)
		assert.Equal(t, "Unsupported file format. Please provide a PDF, Word, or image file.", err.Error())
	}
}

func TestExtractMissingFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewReader(&mockEngine{}, nil, false, nil)
	cases := map[string]string{
		"missing.pdf":  "Error reading PDF file: ",
		"missing.docx": "Error reading Word file: ",
		"missing.png":  "Error reading image file: ",
	}
	for name, prefix := range cases {
		_, err := r.Extract(context.Background(), filepath.Join(dir, name))
		require.Error(t, err, name)
		assert.True(t, strings.HasPrefix(err.Error(), prefix), err.Error())
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 not really"), 0o644))

	_, err := NewReader(nil, nil, false, nil).Extract(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, common.CodeReadPDF, common.CodeOf(err))
}

func TestExtractImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), "scan.png")

	eng := &mockEngine{}
	eng.On("Recognize", mock.Anything, mock.MatchedBy(func(b []byte) bool {
		return bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n"))
	})).Return("Test  Normal\tRange Result\r\nGlucose 70-100 Normal 95\r\n", nil).Once()

	res, err := NewReader(eng, nil, false, nil).Extract(context.Background(), path)
	require.NoError(t, err)
	eng.AssertExpectations(t)

	assert.Equal(t, "Test Normal Range Result\nGlucose 70-100 Normal 95", res.Text)
	assert.Equal(t, constants.IMAGE, res.Format)
	assert.Equal(t, MethodImageOCR, res.Method)
	assert.Equal(t, "mock", res.Engine)
	assert.Equal(t, 1, res.Pages)
}

func TestExtractImageFailures(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a jpeg"), 0o644))
	_, err := NewReader(&mockEngine{}, nil, false, nil).Extract(context.Background(), corrupt)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error reading image file: decode image"), err.Error())

	good := writePNG(t, dir, "scan.png")
	eng := &mockEngine{}
	eng.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("tesseract exploded"))
	_, err = NewReader(eng, nil, false, nil).Extract(context.Background(), good)
	require.Error(t, err)
	assert.Equal(t, "Error reading image file: tesseract exploded", err.Error())

	_, err = NewReader(nil, nil, false, nil).Extract(context.Background(), good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no OCR engine configured")
}

func TestOCRPDF(t *testing.T) {
	eng := &mockEngine{}
	eng.On("Recognize", mock.Anything, []byte("p1")).Return("Test Normal Range Result\n", nil)
	eng.On("Recognize", mock.Anything, []byte("p2")).Return("", errors.New("blurry"))
	eng.On("Recognize", mock.Anything, []byte("p3")).Return("Glucose 70-100 Normal 95", nil)

	r := NewReader(eng, stubRasterizer{pages: [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}}, true, nil)
	res, err := r.ocrPDF(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Test Normal Range Result\nGlucose 70-100 Normal 95", res.Text)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, MethodPDFOCR, res.Method)
}

func TestOCRPDFAllPagesFail(t *testing.T) {
	eng := &mockEngine{}
	eng.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("blurry"))

	r := NewReader(eng, stubRasterizer{pages: [][]byte{[]byte("p1")}}, true, nil)
	_, err := r.ocrPDF(context.Background(), "scan.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1: blurry")

	r = NewReader(eng, stubRasterizer{err: errors.New("no pdftoppm")}, true, nil)
	_, err = r.ocrPDF(context.Background(), "scan.pdf")
	assert.EqualError(t, err, "no pdftoppm")
}
