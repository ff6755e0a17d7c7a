package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bim-export/bim-export-service/config"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/utils"
	"github.com/bim-export/bim-export-service/view"
	"github.com/pkg/errors"
)

// ApsClient wraps the vendor's data-management and model-derivative REST
// APIs. Every call is a single outbound request; no retries, no caching.
type ApsClient interface {
	GetHubs(ctx secctx.SecurityContext) ([]view.DataItem, error)
	GetHubProjects(ctx secctx.SecurityContext, hubId string) ([]view.DataItem, error)
	GetProjectTopFolders(ctx secctx.SecurityContext, hubId string, projectId string) ([]view.DataItem, error)
	SearchFolderContents(ctx secctx.SecurityContext, projectId string, folderId string, filter config.FolderFilterConfig) ([]view.DataItem, error)
	GetVersion(ctx secctx.SecurityContext, projectId string, versionId string) (*view.DataItem, error)

	GetFormats(ctx secctx.SecurityContext) (json.RawMessage, error)
	GetManifest(ctx secctx.SecurityContext, urn string) (json.RawMessage, error)
	DeleteManifest(ctx secctx.SecurityContext, urn string) (json.RawMessage, error)
	GetMetadata(ctx secctx.SecurityContext, urn string) (json.RawMessage, error)
	GetModelViewMetadata(ctx secctx.SecurityContext, urn string, guid string) (json.RawMessage, error)
	GetModelViewProperties(ctx secctx.SecurityContext, urn string, guid string) (json.RawMessage, error)
	Translate(ctx secctx.SecurityContext, job view.TranslationJob) (json.RawMessage, error)

	GetSignedCookies(ctx secctx.SecurityContext, mainUrn string, derivativeUrn string) (*SignedCookiesResponse, error)
	FetchSignedFile(access *view.SignedAccess) (io.ReadCloser, error)
}

// SignedCookiesResponse carries the signed-cookie grant exactly as the
// vendor returned it: the target url from the body and the raw Set-Cookie
// header values. Parsing the cookie triplet is the caller's job.
type SignedCookiesResponse struct {
	Url        string
	SetCookies []string
}

func NewApsClient(cfg config.ApsConfig) ApsClient {
	tlsConfig := utils.GetSecureTLSConfig()
	if cfg.InsecureProxy {
		tlsConfig.InsecureSkipVerify = true
	}
	return &apsClientImpl{
		baseUrl:   strings.TrimSuffix(cfg.BaseUrl, "/"),
		pageLimit: cfg.PageLimit,
		httpClient: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
			Timeout:   time.Duration(cfg.RequestTimeoutSec) * time.Second,
		},
	}
}

type apsClientImpl struct {
	baseUrl    string
	pageLimit  int
	httpClient *http.Client
}

// UrlSafeUrn encodes a raw version id the way the model-derivative API
// expects design urns: url-safe base64 without padding.
func UrlSafeUrn(versionId string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(versionId))
}

func (c *apsClientImpl) GetHubs(ctx secctx.SecurityContext) ([]view.DataItem, error) {
	return c.getItemList(ctx, c.baseUrl+"/project/v1/hubs")
}

func (c *apsClientImpl) GetHubProjects(ctx secctx.SecurityContext, hubId string) ([]view.DataItem, error) {
	return c.getItemList(ctx, fmt.Sprintf("%s/project/v1/hubs/%s/projects", c.baseUrl, url.PathEscape(hubId)))
}

func (c *apsClientImpl) GetProjectTopFolders(ctx secctx.SecurityContext, hubId string, projectId string) ([]view.DataItem, error) {
	return c.getItemList(ctx, fmt.Sprintf("%s/project/v1/hubs/%s/projects/%s/topFolders",
		c.baseUrl, url.PathEscape(hubId), url.PathEscape(projectId)))
}

// SearchFolderContents runs one filtered search and walks the vendor's
// links.next chain until the listing is exhausted, concatenating pages in
// ascending page order.
func (c *apsClientImpl) SearchFolderContents(ctx secctx.SecurityContext, projectId string, folderId string, filter config.FolderFilterConfig) ([]view.DataItem, error) {
	query := url.Values{}
	query.Set("filter[fileType]", filter.FileType)
	if filter.ExtensionType != "" {
		query.Set("filter[attributes.extension.type]", filter.ExtensionType)
	}
	query.Set("page[limit]", strconv.Itoa(c.pageLimit))

	next := fmt.Sprintf("%s/data/v1/projects/%s/folders/%s/search?%s",
		c.baseUrl, url.PathEscape(projectId), url.PathEscape(folderId), query.Encode())

	var items []view.DataItem
	for next != "" {
		body, err := c.doRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var page view.DataPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, errors.Wrap(err, "failed to decode folder search page")
		}
		items = append(items, page.Data...)
		next = ""
		if page.Links.Next != nil {
			next = page.Links.Next.Href
		}
	}
	return items, nil
}

func (c *apsClientImpl) GetVersion(ctx secctx.SecurityContext, projectId string, versionId string) (*view.DataItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/data/v1/projects/%s/versions/%s", c.baseUrl, url.PathEscape(projectId), url.PathEscape(versionId)), nil)
	if err != nil {
		return nil, err
	}
	var resp view.SingleItemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode version response")
	}
	return &resp.Data, nil
}

func (c *apsClientImpl) GetFormats(ctx secctx.SecurityContext) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, c.baseUrl+"/modelderivative/v2/designdata/formats", nil)
}

func (c *apsClientImpl) GetManifest(ctx secctx.SecurityContext, urn string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/modelderivative/v2/designdata/%s/manifest", c.baseUrl, url.PathEscape(urn)), nil)
}

func (c *apsClientImpl) DeleteManifest(ctx secctx.SecurityContext, urn string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodDelete,
		fmt.Sprintf("%s/modelderivative/v2/designdata/%s/manifest", c.baseUrl, url.PathEscape(urn)), nil)
}

func (c *apsClientImpl) GetMetadata(ctx secctx.SecurityContext, urn string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/modelderivative/v2/designdata/%s/metadata", c.baseUrl, url.PathEscape(urn)), nil)
}

func (c *apsClientImpl) GetModelViewMetadata(ctx secctx.SecurityContext, urn string, guid string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/modelderivative/v2/designdata/%s/metadata/%s", c.baseUrl, url.PathEscape(urn), url.PathEscape(guid)), nil)
}

func (c *apsClientImpl) GetModelViewProperties(ctx secctx.SecurityContext, urn string, guid string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/modelderivative/v2/designdata/%s/metadata/%s/properties", c.baseUrl, url.PathEscape(urn), url.PathEscape(guid)), nil)
}

func (c *apsClientImpl) Translate(ctx secctx.SecurityContext, job view.TranslationJob) (json.RawMessage, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode translation job")
	}
	return c.doRequest(ctx, http.MethodPost, c.baseUrl+"/modelderivative/v2/designdata/job", payload)
}

func (c *apsClientImpl) GetSignedCookies(ctx secctx.SecurityContext, mainUrn string, derivativeUrn string) (*SignedCookiesResponse, error) {
	// the derivative urn contains path separators the vendor expects verbatim
	requestUrl := fmt.Sprintf("%s/modelderivative/v2/designdata/%s/manifest/%s/signedcookies?useCdn=true",
		c.baseUrl, url.PathEscape(mainUrn), derivativeUrn)

	req, err := http.NewRequest(http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ctx.GetUserToken())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(requestUrl, resp.StatusCode, body)
	}

	var grant struct {
		Url string `json:"url"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, errors.Wrap(err, "failed to decode signed cookies response")
	}
	return &SignedCookiesResponse{
		Url:        grant.Url,
		SetCookies: resp.Header.Values("Set-Cookie"),
	}, nil
}

func (c *apsClientImpl) FetchSignedFile(access *view.SignedAccess) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, access.Url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", fmt.Sprintf("CloudFront-Policy=%s; CloudFront-Key-Pair-Id=%s; CloudFront-Signature=%s",
		access.Policy, access.KeyPairId, access.Signature))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, upstreamError(access.Url, resp.StatusCode, nil)
	}
	return resp.Body, nil
}

func (c *apsClientImpl) getItemList(ctx secctx.SecurityContext, requestUrl string) ([]view.DataItem, error) {
	body, err := c.doRequest(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	var page view.DataPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.Wrap(err, "failed to decode item list")
	}
	return page.Data, nil
}

func (c *apsClientImpl) doRequest(ctx secctx.SecurityContext, method string, requestUrl string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, requestUrl, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ctx.GetUserToken())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(requestUrl, resp.StatusCode, body)
	}
	return body, nil
}

func upstreamError(requestUrl string, status int, body []byte) error {
	endpoint := requestUrl
	if parsed, err := url.Parse(requestUrl); err == nil {
		endpoint = parsed.Path
	}
	return &exception.CustomError{
		Status:  http.StatusInternalServerError,
		Code:    exception.UpstreamApiError,
		Message: exception.UpstreamApiErrorMsg,
		Params:  map[string]interface{}{"endpoint": endpoint, "status": status},
		Debug:   strings.TrimSpace(string(body)),
	}
}
