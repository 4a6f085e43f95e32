package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wine-concierge-be/internal/dto"
	"wine-concierge-be/internal/entity"
	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/internal/repository/contract"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/document"
)

type IDocumentService interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*dto.UploadResponse, error)
	List(ctx context.Context) ([]*dto.DocumentResponse, error)
	RequestRebuild(ctx context.Context, reason string) (*dto.RebuildRequestedResponse, error)
	SyncCatalog(ctx context.Context) error
}

type documentService struct {
	docsDir      string
	maxBytes     int64
	repo         contract.DocumentRepository
	indexService IIndexService
	publisher    IPublisherService
	logger       logger.ILogger
}

func NewDocumentService(
	docsDir string,
	maxBytes int64,
	repo contract.DocumentRepository,
	indexService IIndexService,
	publisher IPublisherService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		docsDir:      docsDir,
		maxBytes:     maxBytes,
		repo:         repo,
		indexService: indexService,
		publisher:    publisher,
		logger:       log,
	}
}

// SanitizeFilename strips any directory part a client sent.
func SanitizeFilename(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == "/" || base == ".." || strings.HasPrefix(base, ".") {
		return "", apperr.Newf(apperr.ErrInvalidInput, 400, "invalid file name %q", name)
	}
	return base, nil
}

// Upload stores the file, then rebuilds and republishes the index before
// returning, so the next question already sees the new document.
func (s *documentService) Upload(ctx context.Context, filename string, content io.Reader) (*dto.UploadResponse, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	if !document.IsSupported(name) {
		return nil, apperr.New(apperr.ErrUnsupportedFile, 400, "only .txt and .pdf files are supported")
	}

	size, err := s.writeFile(name, content)
	if err != nil {
		return nil, err
	}

	doc := &entity.Document{
		Name:      name,
		Extension: strings.ToLower(filepath.Ext(name)),
		SizeBytes: size,
	}
	if err := s.repo.Upsert(ctx, doc); err != nil {
		s.logger.Warn("DOCUMENT", "failed to record upload in catalog", map[string]interface{}{
			"file":  name,
			"error": err.Error(),
		})
	}

	s.logger.Info("DOCUMENT", "document stored", map[string]interface{}{"file": name, "bytes": size})

	res, err := s.indexService.Refresh(ctx, "upload:"+name)
	if errors.Is(err, apperr.ErrNoDocuments) {
		return &dto.UploadResponse{
			Response: fmt.Sprintf("%s %s uploaded, but no extractable text was found; index not updated.", apperr.WarningMarker, name),
			Filename: name,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &dto.UploadResponse{
		Response:  fmt.Sprintf("✅ %s uploaded and index updated.", name),
		Filename:  name,
		Documents: res.Documents,
	}
	if res.Index != nil {
		out.Chunks = res.Index.Len()
	}
	for _, sk := range res.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedFileDTO{Source: sk.Source, Reason: sk.Reason})
	}
	return out, nil
}

// writeFile replaces docsDir/name atomically. The temp file is hidden so a
// concurrent rebuild never reads a partial upload.
func (s *documentService) writeFile(name string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(s.docsDir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.docsDir, ".upload-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	reader := content
	if s.maxBytes > 0 {
		reader = io.LimitReader(content, s.maxBytes+1)
	}
	size, err := io.Copy(tmp, reader)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		tmp.Close()
		return 0, apperr.Newf(apperr.ErrInvalidInput, 413, "file exceeds %d bytes", s.maxBytes)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmpName, filepath.Join(s.docsDir, name)); err != nil {
		return 0, err
	}
	return size, nil
}

func (s *documentService) List(ctx context.Context) ([]*dto.DocumentResponse, error) {
	docs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	indexed := make(map[string]bool)
	if st, err := s.indexService.Status(ctx); err == nil {
		for _, src := range st.Sources {
			indexed[src] = true
		}
	}

	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, &dto.DocumentResponse{
			Id:         d.Id,
			Name:       d.Name,
			Extension:  d.Extension,
			SizeBytes:  d.SizeBytes,
			UploadedAt: d.CreatedAt,
			ReplacedAt: d.UpdatedAt,
			Indexed:    indexed[d.Name],
		})
	}
	return out, nil
}

func (s *documentService) RequestRebuild(ctx context.Context, reason string) (*dto.RebuildRequestedResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}
	if err := s.publisher.PublishRebuild(ctx, reason); err != nil {
		return nil, err
	}
	return &dto.RebuildRequestedResponse{Message: "Index rebuild queued.", Reason: reason}, nil
}

// SyncCatalog records files already in the docs directory, e.g. ones
// copied there by hand or kept across a restart with the memory catalog.
func (s *documentService) SyncCatalog(ctx context.Context) error {
	entries, err := os.ReadDir(s.docsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !document.IsSupported(e.Name()) {
			continue
		}
		existing, err := s.repo.FindByName(ctx, e.Name())
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if err := s.repo.Upsert(ctx, &entity.Document{
			Name:      e.Name(),
			Extension: strings.ToLower(filepath.Ext(e.Name())),
			SizeBytes: info.Size(),
		}); err != nil {
			return err
		}
	}
	return nil
}
