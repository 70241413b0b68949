package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// DocumentChunker splits per-page PDF text into overlapping fixed-size
// windows. The overlap keeps semantic context spanning a window boundary
// retrievable from both sides.
type DocumentChunker struct {
	maxChunkSize int
	overlap      int
}

// NewDocumentChunker creates a chunker. maxChunkSize and overlap are in
// characters; overlap must be smaller than maxChunkSize.
func NewDocumentChunker(maxChunkSize, overlap int) *DocumentChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 3000
	}
	if overlap < 0 || overlap >= maxChunkSize {
		overlap = maxChunkSize / 3
	}
	return &DocumentChunker{
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
	}
}

// ChunkFile reads the PDF at path and returns its chunks plus the page
// count. Pages with no extractable text are skipped, not errors. A file
// that cannot be opened or parsed at all fails with a document-read
// error; the caller decides whether to skip the file or abort.
func (c *DocumentChunker) ChunkFile(path, pdfName string) ([]models.Chunk, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, 0, NewDocumentReadError(path, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	var chunks []models.Chunk

	for pageNum := 1; pageNum <= pages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "pdf", pdfName, "page", pageNum, "error", err)
			continue
		}

		pageChunks := c.chunkPage(text, pageNum, pdfName, path)
		chunks = append(chunks, pageChunks...)
	}

	logger.Info("Chunked PDF", "pdf", pdfName, "pages", pages, "chunks", len(chunks))
	return chunks, pages, nil
}

// chunkPage splits one page's text into chunk records. Chunk ids are
// "<page>_<index-within-page>": stable for a given split, not globally
// unique across re-chunking with different parameters.
func (c *DocumentChunker) chunkPage(text string, pageNum int, pdfName, path string) []models.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	windows := c.splitText(text)
	chunks := make([]models.Chunk, 0, len(windows))
	for i, window := range windows {
		chunks = append(chunks, models.Chunk{
			ChunkID: fmt.Sprintf("%d_%d", pageNum, i),
			PDFName: pdfName,
			PageNum: pageNum,
			Text:    window,
			PDFPath: path,
		})
	}
	return chunks
}

// splitText produces overlapping windows over the text. Consecutive
// windows share exactly `overlap` characters, so the concatenation of
// windows with overlaps removed reconstructs the input without gaps.
func (c *DocumentChunker) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.maxChunkSize {
		return []string{text}
	}

	step := c.maxChunkSize - c.overlap
	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + c.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}
