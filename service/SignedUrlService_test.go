package service

import (
	"testing"

	"github.com/bim-export/bim-export-service/client"
	"github.com/bim-export/bim-export-service/exception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSignedAccessRequiresBothUrns(t *testing.T) {
	s := NewSignedUrlService(&fakeApsClient{})

	_, err := s.ResolveSignedAccess(testCtx(), "", "urn:derivative/plan.pdf")
	require.Error(t, err)
	assert.True(t, exception.IsCode(err, exception.RequiredParamsMissing))

	_, err = s.ResolveSignedAccess(testCtx(), "urn:main", "")
	require.Error(t, err)
	assert.True(t, exception.IsCode(err, exception.RequiredParamsMissing))
}

func TestResolveSignedAccessStripsUrnPadding(t *testing.T) {
	var requestedMainUrn string
	aps := &fakeApsClient{
		getSignedCookiesFn: func(mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error) {
			requestedMainUrn = mainUrn
			return &client.SignedCookiesResponse{
				Url: "https://cdn.example/plan.pdf",
				SetCookies: []string{
					"CloudFront-Policy=pol; Path=/",
					"CloudFront-Key-Pair-Id=kp; Path=/",
					"CloudFront-Signature=sig; Path=/",
				},
			}, nil
		},
	}
	s := NewSignedUrlService(aps)

	access, err := s.ResolveSignedAccess(testCtx(), "dXJuOm1haW4=", "urn:derivative/plan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "dXJuOm1haW4", requestedMainUrn)
	assert.Equal(t, "plan.pdf", access.FileName)
	assert.Equal(t, "pol", access.Policy)
	assert.Equal(t, "kp", access.KeyPairId)
	assert.Equal(t, "sig", access.Signature)
	assert.Equal(t, "https://cdn.example/plan.pdf", access.Url)
}

func TestResolveSignedAccessCommaJoinedCookies(t *testing.T) {
	// some proxies collapse the three Set-Cookie headers into one
	aps := &fakeApsClient{
		getSignedCookiesFn: func(mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error) {
			return &client.SignedCookiesResponse{
				Url:        "https://cdn.example/plan.pdf",
				SetCookies: []string{"CloudFront-Policy=pol; Path=/, CloudFront-Key-Pair-Id=kp; Path=/, CloudFront-Signature=sig; Path=/"},
			}, nil
		},
	}
	s := NewSignedUrlService(aps)

	access, err := s.ResolveSignedAccess(testCtx(), "urn:main", "urn:derivative/plan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pol", access.Policy)
	assert.Equal(t, "kp", access.KeyPairId)
	assert.Equal(t, "sig", access.Signature)
}

func TestResolveSignedAccessMissingCookies(t *testing.T) {
	aps := &fakeApsClient{
		getSignedCookiesFn: func(mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error) {
			return &client.SignedCookiesResponse{Url: "https://cdn.example/plan.pdf"}, nil
		},
	}
	s := NewSignedUrlService(aps)

	_, err := s.ResolveSignedAccess(testCtx(), "urn:main", "urn:derivative/plan.pdf")
	require.Error(t, err)
	assert.True(t, exception.IsCode(err, exception.SignedCookiesMissing))
}

func TestResolveSignedAccessIncompleteTriplet(t *testing.T) {
	aps := &fakeApsClient{
		getSignedCookiesFn: func(mainUrn string, derivativeUrn string) (*client.SignedCookiesResponse, error) {
			return &client.SignedCookiesResponse{
				Url:        "https://cdn.example/plan.pdf",
				SetCookies: []string{"CloudFront-Policy=pol; Path=/"},
			}, nil
		},
	}
	s := NewSignedUrlService(aps)

	_, err := s.ResolveSignedAccess(testCtx(), "urn:main", "urn:derivative/plan.pdf")
	require.Error(t, err)
	assert.True(t, exception.IsCode(err, exception.SignedCookiesMissing))
}
