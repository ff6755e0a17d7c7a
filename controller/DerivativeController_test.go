package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bim-export/bim-export-service/client"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDerivativeClient struct {
	client.ApsClient
	getModelViewMetadataFn func(urn string, guid string) (json.RawMessage, error)
}

func (f *fakeDerivativeClient) GetModelViewMetadata(_ secctx.SecurityContext, urn string, guid string) (json.RawMessage, error) {
	return f.getModelViewMetadataFn(urn, guid)
}

func TestMakeTranslationJobSvfViews(t *testing.T) {
	job := makeTranslationJob(view.ExportReq{Urn: "urn:design", Format: "svf"})

	assert.Equal(t, "urn:design", job.Input.Urn)
	assert.False(t, job.Input.CompressedUrn)
	require.Len(t, job.Output.Formats, 1)
	assert.Equal(t, "svf", job.Output.Formats[0].Type)
	assert.Equal(t, []string{"2d", "3d"}, job.Output.Formats[0].Views)
}

func TestMakeTranslationJobCompositeDesign(t *testing.T) {
	job := makeTranslationJob(view.ExportReq{
		Urn:          "urn:design",
		Format:       "svf",
		RootFileName: "model.zip",
		FileExtType:  view.CompositeDesignExtensionType,
	})
	assert.True(t, job.Input.CompressedUrn)
	assert.Equal(t, "model", job.Input.RootFilename)

	// a .zip root file marks a composite design even without the extension type
	job = makeTranslationJob(view.ExportReq{Urn: "urn:design", Format: "obj", RootFileName: "model.zip"})
	assert.True(t, job.Input.CompressedUrn)
	assert.Equal(t, "model", job.Input.RootFilename)

	job = makeTranslationJob(view.ExportReq{Urn: "urn:design", Format: "obj", RootFileName: "model.rvt"})
	assert.False(t, job.Input.CompressedUrn)
	assert.Empty(t, job.Input.RootFilename)
}

func TestGetHierarchyPendingExtraction(t *testing.T) {
	c := NewDerivativeController(&fakeDerivativeClient{
		getModelViewMetadataFn: func(urn string, guid string) (json.RawMessage, error) {
			return json.RawMessage(`{"result":"success"}`), nil
		},
	})
	rec := httptest.NewRecorder()

	req := authorized(httptest.NewRequest(http.MethodGet, "/md/hierarchy?urn=u&guid=g", nil))
	c.GetHierarchy(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["result"])
}

func TestGetHierarchyReady(t *testing.T) {
	payload := `{"data":{"type":"objects","objects":[]}}`
	c := NewDerivativeController(&fakeDerivativeClient{
		getModelViewMetadataFn: func(urn string, guid string) (json.RawMessage, error) {
			return json.RawMessage(payload), nil
		},
	})
	rec := httptest.NewRecorder()

	req := authorized(httptest.NewRequest(http.MethodGet, "/md/hierarchy?urn=u&guid=g", nil))
	c.GetHierarchy(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, payload, rec.Body.String())
}
