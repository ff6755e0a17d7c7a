package controller

import (
	"encoding/json"
	"io"
	"net/http"

	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/service"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/bim-export/bim-export-service/view"
	log "github.com/sirupsen/logrus"
)

type DownloadController interface {
	GetDownload(w http.ResponseWriter, r *http.Request)
	PostDownloadAll(w http.ResponseWriter, r *http.Request)
}

func NewDownloadController(downloadService service.DownloadService) DownloadController {
	return &downloadControllerImpl{downloadService: downloadService}
}

type downloadControllerImpl struct {
	downloadService service.DownloadService
}

func (c downloadControllerImpl) GetDownload(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.Create(r)
	if ctx.GetUserToken() == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusUnauthorized,
			Code:    exception.MissingAccessToken,
			Message: exception.MissingAccessTokenMsg,
		})
		return
	}

	pdfUrn := r.URL.Query().Get("pdfurn")
	mainUrn := r.URL.Query().Get("mainUrn")
	if pdfUrn == "" || mainUrn == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "pdfurn, mainUrn"},
		})
		return
	}

	if err := c.downloadService.StreamSingleFile(ctx, w, pdfUrn, mainUrn); err != nil {
		utils.RespondWithError(w, "Failed to download file", err)
	}
}

func (c downloadControllerImpl) PostDownloadAll(w http.ResponseWriter, r *http.Request) {
	ctx := secctx.Create(r)
	if ctx.GetUserToken() == "" {
		respondWithErrorObject(w, http.StatusUnauthorized, exception.MissingAccessTokenMsg)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithErrorObject(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var req view.DownloadAllReq
	if err := json.Unmarshal(body, &req); err != nil {
		respondWithErrorObject(w, http.StatusBadRequest, "failed to decode request body")
		return
	}
	if req.NameType == "" {
		req.NameType = view.NameTypeOriginal
	}
	if !view.ValidNameType(req.NameType) {
		respondWithErrorObject(w, http.StatusBadRequest, "nameType must be 'original' or 'shortened'")
		return
	}

	if err := c.downloadService.StreamArchive(ctx, w, req); err != nil {
		log.Errorf("Failed to build download archive: %s", err.Error())
		status := http.StatusInternalServerError
		if customError, ok := err.(*exception.CustomError); ok {
			status = customError.Status
		}
		respondWithErrorObject(w, status, err.Error())
	}
}

// respondWithErrorObject writes the flat error shape the bulk download
// clients expect instead of the regular error body.
func respondWithErrorObject(w http.ResponseWriter, status int, msg string) {
	utils.RespondWithJson(w, status, map[string]string{"error": msg})
}
