package service

import (
	"net/http"
	"strings"

	"github.com/bim-export/bim-export-service/client"
	secctx "github.com/bim-export/bim-export-service/context"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/bim-export/bim-export-service/view"
)

type SignedUrlService interface {
	ResolveSignedAccess(ctx secctx.SecurityContext, mainUrn string, derivativeUrn string) (*view.SignedAccess, error)
}

func NewSignedUrlService(apsClient client.ApsClient) SignedUrlService {
	return &signedUrlServiceImpl{apsClient: apsClient}
}

type signedUrlServiceImpl struct {
	apsClient client.ApsClient
}

const (
	cloudFrontPolicy    = "CloudFront-Policy"
	cloudFrontKeyPairId = "CloudFront-Key-Pair-Id"
	cloudFrontSignature = "CloudFront-Signature"
)

func (s signedUrlServiceImpl) ResolveSignedAccess(ctx secctx.SecurityContext, mainUrn string, derivativeUrn string) (*view.SignedAccess, error) {
	if mainUrn == "" || derivativeUrn == "" {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.RequiredParamsMissing,
			Message: exception.RequiredParamsMissingMsg,
			Params:  map[string]interface{}{"params": "mainUrn, pdfUrn"},
		}
	}

	// base64 padding is the only part of the otherwise opaque urn the
	// vendor refuses in the request path
	grant, err := s.apsClient.GetSignedCookies(ctx, strings.ReplaceAll(mainUrn, "=", ""), derivativeUrn)
	if err != nil {
		return nil, err
	}
	if len(grant.SetCookies) == 0 {
		return nil, signingError(derivativeUrn, "response contains no Set-Cookie headers")
	}

	cookies := parseCookieValues(grant.SetCookies)
	policy, keyPairId, signature := cookies[cloudFrontPolicy], cookies[cloudFrontKeyPairId], cookies[cloudFrontSignature]
	if policy == "" || keyPairId == "" || signature == "" {
		return nil, signingError(derivativeUrn, "signed cookie triplet is incomplete")
	}

	segments := strings.Split(derivativeUrn, "/")
	return &view.SignedAccess{
		Url:       grant.Url,
		FileName:  segments[len(segments)-1],
		Policy:    policy,
		KeyPairId: keyPairId,
		Signature: signature,
	}, nil
}

// parseCookieValues extracts name=value pairs out of raw Set-Cookie
// values. Values may arrive as separate headers or comma-joined into one;
// fragments produced by commas inside attribute values (e.g. Expires
// dates) simply fail the prefix match and are ignored.
func parseCookieValues(setCookies []string) map[string]string {
	values := map[string]string{}
	for _, header := range setCookies {
		for _, candidate := range strings.Split(header, ",") {
			cookie := strings.SplitN(strings.TrimSpace(candidate), ";", 2)[0]
			eq := strings.Index(cookie, "=")
			if eq <= 0 {
				continue
			}
			values[cookie[:eq]] = cookie[eq+1:]
		}
	}
	return values
}

func signingError(derivativeUrn string, reason string) error {
	return &exception.CustomError{
		Status:  http.StatusInternalServerError,
		Code:    exception.SignedCookiesMissing,
		Message: exception.SignedCookiesMissingMsg,
		Params:  map[string]interface{}{"derivative": derivativeUrn},
		Debug:   reason,
	}
}
