package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/provider"
)

var baseCreds = provider.Credentials{
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "secret",
	Region:          "eu-west-1",
	Bucket:          "docs",
}

func withEndpoint(endpoint string) provider.Credentials {
	c := baseCreds
	c.Endpoint = endpoint

	return c
}

func TestParseType(t *testing.T) {
	cases := map[string]provider.Type{
		"s3":            provider.TypeS3,
		"aws-s3":        provider.TypeS3,
		"R2":            provider.TypeR2,
		"cloudflare-r2": provider.TypeR2,
		"minio":         provider.TypeMinIO,
	}
	for in, want := range cases {
		got, err := provider.ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := provider.ParseType("gcs")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "1700000000123-my_report__final_.pdf", provider.ObjectKey("", "my report (final).pdf", now))
	assert.Equal(t, "f-1/1700000000123-a.b-c.txt", provider.ObjectKey("f-1", "a.b-c.txt", now))
	assert.Equal(t, "1700000000123-r_sum_.pdf", provider.ObjectKey("", "résumé.pdf", now))
	assert.False(t, strings.HasPrefix(provider.ObjectKey("", "x", now), "/"))
}

func TestEndpointRequirements(t *testing.T) {
	_, err := provider.NewR2(baseCreds)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = provider.NewMinIO(baseCreds)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = provider.NewS3(baseCreds)
	require.NoError(t, err)

	missing := baseCreds
	missing.Bucket = ""
	_, err = provider.NewS3(missing)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestBucketInfoRegion(t *testing.T) {
	r2, err := provider.NewR2(withEndpoint("https://acct.r2.cloudflarestorage.com"))
	require.NoError(t, err)
	assert.Equal(t, provider.BucketInfo{Name: "docs", Region: "auto"}, r2.Bucket())

	noRegion := withEndpoint("http://localhost:9000")
	noRegion.Region = ""
	mc, err := provider.NewMinIO(noRegion)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", mc.Bucket().Region)
	assert.Equal(t, provider.TypeMinIO, mc.Type())
}

func parse(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)

	return u
}

func TestPresignAllProviders(t *testing.T) {
	ctx := context.Background()
	ttl := 900 * time.Second

	builders := map[string]func() (provider.Provider, error){
		"s3": func() (provider.Provider, error) { return provider.NewS3(baseCreds) },
		"r2": func() (provider.Provider, error) {
			return provider.NewR2(withEndpoint("https://acct.r2.cloudflarestorage.com"))
		},
		"minio": func() (provider.Provider, error) { return provider.NewMinIO(withEndpoint("http://localhost:9000")) },
	}

	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			p, err := build()
			require.NoError(t, err)

			up, err := p.GenerateUploadURL(ctx, "f1/1700000000000-a.pdf", "application/pdf", ttl)
			require.NoError(t, err)

			u := parse(t, up)
			assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
			assert.Contains(t, u.Path, "1700000000000-a.pdf")
			assert.Contains(t, strings.ToLower(u.Query().Get("X-Amz-SignedHeaders")), "content-type")

			down, err := p.GenerateDownloadURL(ctx, "f1/1700000000000-a.pdf", "a.pdf", ttl)
			require.NoError(t, err)
			assert.Equal(t, `attachment; filename="a.pdf"`, parse(t, down).Query().Get("response-content-disposition"))

			prev, err := p.GeneratePreviewURL(ctx, "f1/1700000000000-a.pdf", "a.pdf", ttl)
			require.NoError(t, err)
			assert.Equal(t, `inline; filename="a.pdf"`, parse(t, prev).Query().Get("response-content-disposition"))
		})
	}
}

func TestMinIOPathStyle(t *testing.T) {
	p, err := provider.NewMinIO(withEndpoint("http://localhost:9000"))
	require.NoError(t, err)

	raw, err := p.GenerateDownloadURL(context.Background(), "k.txt", "k.txt", time.Minute)
	require.NoError(t, err)

	u := parse(t, raw)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/docs/k.txt", u.Path)
	assert.Equal(t, "http", u.Scheme)
}

func TestRegistry(t *testing.T) {
	r := provider.NewRegistry()
	assert.Equal(t, []provider.Type{provider.TypeMinIO, provider.TypeR2, provider.TypeS3}, r.Types())

	_, err := r.Build("gcs", baseCreds)
	require.ErrorIs(t, err, errs.ErrValidation)

	p, err := r.Build(provider.TypeS3, baseCreds)
	require.NoError(t, err)
	assert.Equal(t, provider.TypeS3, p.Type())
}

func TestConnectionFailsWithoutRetry(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	builders := map[string]func() (provider.Provider, error){
		"s3":    func() (provider.Provider, error) { return provider.NewS3(withEndpoint(srv.URL)) },
		"r2":    func() (provider.Provider, error) { return provider.NewR2(withEndpoint(srv.URL)) },
		"minio": func() (provider.Provider, error) { return provider.NewMinIO(withEndpoint(srv.URL)) },
	}

	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			hits.Store(0)

			p, err := build()
			require.NoError(t, err)

			res := p.TestConnection(context.Background())
			assert.False(t, res.Success)
			assert.False(t, res.Details.BucketExists)
			assert.NotEmpty(t, res.Error)
			assert.Equal(t, int32(1), hits.Load(), "bucket check must hit the server exactly once")
		})
	}
}
