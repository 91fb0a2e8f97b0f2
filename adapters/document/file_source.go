package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

const MIMETypePDF = "application/pdf"

// PageCounter reports how many pages a PDF has, failing on broken files.
type PageCounter interface {
	PageCount(data []byte) (int, error)
}

var disablePDFCPUConfig sync.Once

// PDFCPUPageCounter counts pages with pdfcpu. pdfcpu's on-disk config
// directory is disabled so loading a document never writes to the user's
// home.
type PDFCPUPageCounter struct{}

func (PDFCPUPageCounter) PageCount(data []byte) (int, error) {
	disablePDFCPUConfig.Do(api.DisableConfigDir)
	return api.PageCount(bytes.NewReader(data), nil)
}

type fileSource struct {
	pages PageCounter
	log   logger.Logger
}

// NewFileSource reads documents from the local filesystem on every call.
// pages may be nil to skip PDF inspection.
func NewFileSource(pages PageCounter, log logger.Logger) service.DocumentSource {
	return &fileSource{pages: pages, log: log}
}

func (s *fileSource) Load(ctx context.Context, path string) (*service.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.NewDocumentIO(path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NewDocumentNotFound(path, err)
		}
		return nil, apperror.NewDocumentIO(path, err)
	}
	if len(data) == 0 {
		return nil, apperror.NewDocumentIO(path, errors.New("document is empty"))
	}

	sum := sha256.Sum256(data)
	doc := &service.Document{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: mimetype.Detect(data).String(),
		Data:     data,
		SHA256:   hex.EncodeToString(sum[:]),
	}

	if doc.MIMEType == MIMETypePDF && s.pages != nil {
		pages, err := s.pages.PageCount(data)
		if err != nil {
			return nil, apperror.NewDocumentIO(path, fmt.Errorf("invalid PDF: %w", err))
		}
		doc.Pages = pages
	}

	s.log.Debug("Document loaded",
		zap.String("path", path),
		zap.String("mime_type", doc.MIMEType),
		zap.Int("bytes", len(data)),
		zap.Int("pages", doc.Pages),
	)
	return doc, nil
}
