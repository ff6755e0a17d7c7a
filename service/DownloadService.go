package service

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bim-export/bim-export-service/archive"
	"github.com/bim-export/bim-export-service/client"
	"github.com/bim-export/bim-export-service/config"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/metrics"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/bim-export/bim-export-service/view"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type DownloadService interface {
	// StreamSingleFile resolves one derivative and streams its bytes as an
	// attachment. A non-nil error means nothing was written yet.
	StreamSingleFile(ctx secctx.SecurityContext, w http.ResponseWriter, pdfUrn string, mainUrn string) error

	// StreamArchive resolves every file of the batch concurrently and
	// streams one zip archive. A non-nil error means the archive was not
	// started and the caller still owns the response; once streaming has
	// begun all per-file failures are logged and swallowed, and the zip
	// trailer is always written.
	StreamArchive(ctx secctx.SecurityContext, w http.ResponseWriter, req view.DownloadAllReq) error
}

func NewDownloadService(signedUrlService SignedUrlService, apsClient client.ApsClient, cfg config.ApsConfig) DownloadService {
	return &downloadServiceImpl{
		signedUrlService: signedUrlService,
		apsClient:        apsClient,
		cfg:              cfg,
	}
}

type downloadServiceImpl struct {
	signedUrlService SignedUrlService
	apsClient        client.ApsClient
	cfg              config.ApsConfig
}

type archiveEntry struct {
	name string
	data []byte
}

func (d downloadServiceImpl) StreamSingleFile(ctx secctx.SecurityContext, w http.ResponseWriter, pdfUrn string, mainUrn string) error {
	access, err := d.signedUrlService.ResolveSignedAccess(ctx, mainUrn, pdfUrn)
	if err != nil {
		return err
	}
	body, err := d.apsClient.FetchSignedFile(access)
	if err != nil {
		return err
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", access.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		// response already committed, nothing left to report to the caller
		log.Warnf("Download of %s aborted mid-stream: %s", access.FileName, err.Error())
	}
	return nil
}

func (d downloadServiceImpl) StreamArchive(ctx secctx.SecurityContext, w http.ResponseWriter, req view.DownloadAllReq) error {
	if len(req.Files) == 0 {
		return &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyFileSet,
			Message: exception.EmptyFileSetMsg,
		}
	}

	archiveName := view.ArchiveNameOriginal
	if req.NameType == view.NameTypeShortened {
		archiveName = view.ArchiveNameShortened
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", archiveName))
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	batchId := uuid.NewString()
	log.Infof("Bulk download %s: archiving %d files (%s names)", batchId, len(req.Files), req.NameType)

	entries := make(chan archiveEntry)
	var eg errgroup.Group
	eg.SetLimit(d.cfg.DownloadConcurrency)
	utils.SafeAsync(func() {
		for _, file := range req.Files {
			file := file
			eg.Go(func() error {
				data, name, err := d.fetchFile(ctx, file)
				if err != nil {
					// a bad file is dropped, never the whole batch
					log.Warnf("Bulk download %s: skipping %s: %s", batchId, file.PdfUrn, err.Error())
					metrics.SkippedFiles.Inc()
					return nil
				}
				entries <- archiveEntry{name: entryName(name, req.NameType), data: data}
				return nil
			})
		}
		eg.Wait()
		close(entries)
	})

	// the consumer below is the only writer of the response stream
	zw := archive.NewMaxCompressionWriter(w)
	var writeErr error
	for entry := range entries {
		if writeErr != nil {
			continue // keep draining so workers can finish
		}
		if err := archive.AddFileToZip(zw, entry.name, entry.data); err != nil {
			log.Warnf("Bulk download %s: archive stream broke on %s: %s", batchId, entry.name, err.Error())
			writeErr = err
			continue
		}
		metrics.ArchivedFiles.Inc()
	}
	if err := zw.Close(); err != nil && writeErr == nil {
		log.Warnf("Bulk download %s: failed to finalize archive: %s", batchId, err.Error())
	}
	return nil
}

func (d downloadServiceImpl) fetchFile(ctx secctx.SecurityContext, file view.FileRef) ([]byte, string, error) {
	access, err := d.signedUrlService.ResolveSignedAccess(ctx, file.MainUrn, file.PdfUrn)
	if err != nil {
		return nil, "", err
	}
	body, err := d.apsClient.FetchSignedFile(access)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", err
	}
	return data, access.FileName, nil
}

// entryName picks the archive entry name for one resolved file. Shortened
// mode keeps only the first whitespace-delimited token of the resolved
// name and forces a .pdf extension.
func entryName(resolvedName string, nameType string) string {
	if nameType != view.NameTypeShortened {
		return resolvedName
	}
	token := resolvedName
	if fields := strings.Fields(resolvedName); len(fields) > 0 {
		token = fields[0]
	}
	return strings.TrimSuffix(token, ".pdf") + ".pdf"
}
