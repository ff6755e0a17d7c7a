package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bim-export/bim-export-service/client"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/bim-export/bim-export-service/view"
	log "github.com/sirupsen/logrus"
)

// DerivativeController exposes thin passthroughs to the model-derivative
// API for clients that drive translation and metadata lookups themselves.
type DerivativeController interface {
	GetFormats(w http.ResponseWriter, r *http.Request)
	GetManifest(w http.ResponseWriter, r *http.Request)
	DeleteManifest(w http.ResponseWriter, r *http.Request)
	GetMetadata(w http.ResponseWriter, r *http.Request)
	GetHierarchy(w http.ResponseWriter, r *http.Request)
	GetProperties(w http.ResponseWriter, r *http.Request)
	PostExport(w http.ResponseWriter, r *http.Request)
}

func NewDerivativeController(apsClient client.ApsClient) DerivativeController {
	return &derivativeControllerImpl{apsClient: apsClient}
}

type derivativeControllerImpl struct {
	apsClient client.ApsClient
}

func (c derivativeControllerImpl) GetFormats(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	body, err := c.apsClient.GetFormats(ctx)
	if err != nil {
		utils.RespondWithError(w, "Failed to list supported formats", err)
		return
	}
	respondWithRawJson(w, body)
}

func (c derivativeControllerImpl) GetManifest(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	urn, err := getUnescapedStringParam(r, "urn")
	if err != nil {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "urn"},
			Debug:   err.Error(),
		})
		return
	}
	body, err := c.apsClient.GetManifest(ctx, client.UrlSafeUrn(urn))
	if err != nil {
		utils.RespondWithError(w, "Failed to get manifest", err)
		return
	}
	respondWithRawJson(w, body)
}

func (c derivativeControllerImpl) DeleteManifest(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	urn, err := getUnescapedStringParam(r, "urn")
	if err != nil {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "urn"},
			Debug:   err.Error(),
		})
		return
	}
	body, err := c.apsClient.DeleteManifest(ctx, client.UrlSafeUrn(urn))
	if err != nil {
		utils.RespondWithError(w, "Failed to delete manifest", err)
		return
	}
	respondWithRawJson(w, body)
}

func (c derivativeControllerImpl) GetMetadata(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	urn, err := getUnescapedStringParam(r, "urn")
	if err != nil {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.InvalidParameterValue,
			Message: exception.InvalidParameterValueMsg,
			Params:  map[string]interface{}{"param": "urn"},
			Debug:   err.Error(),
		})
		return
	}
	body, err := c.apsClient.GetMetadata(ctx, client.UrlSafeUrn(urn))
	if err != nil {
		utils.RespondWithError(w, "Failed to get model metadata", err)
		return
	}
	respondWithRawJson(w, body)
}

// GetHierarchy returns the object tree of one model view. The vendor
// answers 202 with an empty data section while extraction is still
// running; that state is surfaced as {"result": "accepted"} so clients
// can poll.
func (c derivativeControllerImpl) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	urn, guid, ok := requireUrnAndGuid(w, r)
	if !ok {
		return
	}
	body, err := c.apsClient.GetModelViewMetadata(ctx, urn, guid)
	if err != nil {
		utils.RespondWithError(w, "Failed to get model hierarchy", err)
		return
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err == nil {
		if _, hasData := probe["data"]; !hasData {
			utils.RespondWithJson(w, http.StatusOK, map[string]string{"result": "accepted"})
			return
		}
	}
	respondWithRawJson(w, body)
}

func (c derivativeControllerImpl) GetProperties(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	urn, guid, ok := requireUrnAndGuid(w, r)
	if !ok {
		return
	}
	body, err := c.apsClient.GetModelViewProperties(ctx, urn, guid)
	if err != nil {
		utils.RespondWithError(w, "Failed to get model properties", err)
		return
	}
	respondWithRawJson(w, body)
}

func (c derivativeControllerImpl) PostExport(w http.ResponseWriter, r *http.Request) {
	ctx, ok := requireToken(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	var req view.ExportReq
	if err := json.Unmarshal(body, &req); err != nil {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	if req.Urn == "" || req.Format == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "urn, format"},
		})
		return
	}

	resp, err := c.apsClient.Translate(ctx, makeTranslationJob(req))
	if err != nil {
		utils.RespondWithError(w, "Failed to start translation", err)
		return
	}
	respondWithRawJson(w, resp)
}

func makeTranslationJob(req view.ExportReq) view.TranslationJob {
	format := view.TranslationFormat{
		Type:     req.Format,
		Advanced: req.Advanced,
	}
	if req.Format == "svf" {
		format.Views = []string{"2d", "3d"}
	}
	job := view.TranslationJob{
		Input: view.TranslationInput{Urn: req.Urn},
		Output: view.TranslationOutput{
			Destination: view.TranslationDestination{Region: "us"},
			Formats:     []view.TranslationFormat{format},
		},
	}
	// composite designs arrive as a zip; translation needs the root model
	// inside the archive named explicitly
	if req.FileExtType == view.CompositeDesignExtensionType || strings.HasSuffix(req.RootFileName, ".zip") {
		job.Input.RootFilename = strings.TrimSuffix(req.RootFileName, ".zip")
		job.Input.CompressedUrn = true
	}
	return job
}

func requireToken(w http.ResponseWriter, r *http.Request) (secctx.SecurityContext, bool) {
	ctx := secctx.Create(r)
	if ctx.GetUserToken() == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusUnauthorized,
			Code:    exception.MissingAccessToken,
			Message: exception.MissingAccessTokenMsg,
		})
		return nil, false
	}
	return ctx, true
}

func requireUrnAndGuid(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	urn := r.URL.Query().Get("urn")
	guid := r.URL.Query().Get("guid")
	if urn == "" || guid == "" {
		utils.RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "urn, guid"},
		})
		return "", "", false
	}
	return urn, guid, true
}

func respondWithRawJson(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Errorf("failed to write http response: %v", err)
	}
}
