package provider

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket 记录调用顺序，可为任意步骤注入错误.
type fakeBucket struct {
	calls   []string
	fail    map[string]error
	created []string
}

func (f *fakeBucket) step(name string) error {
	f.calls = append(f.calls, name)

	return f.fail[name]
}

func (f *fakeBucket) HeadBucket(context.Context) error { return f.step("head") }

func (f *fakeBucket) PutObject(_ context.Context, key, body, _ string) error {
	f.created = append(f.created, key)
	if body != writeCheckBody {
		return errors.New("unexpected body")
	}

	return f.step("put")
}

func (f *fakeBucket) DeleteObject(context.Context, string) error { return f.step("delete") }
func (f *fakeBucket) GetBucketCORS(context.Context) error        { return f.step("cors") }

func (f *fakeBucket) CreateMultipart(context.Context, string) (string, error) {
	if err := f.step("mpu-create"); err != nil {
		return "", err
	}

	return "upload-1", nil
}

func (f *fakeBucket) AbortMultipart(_ context.Context, _, id string) error {
	if id != "upload-1" {
		return errors.New("wrong upload id")
	}

	return f.step("mpu-abort")
}

func fixedClock() func() time.Time {
	t := time.UnixMilli(1700000000000)

	return func() time.Time {
		t = t.Add(5 * time.Millisecond)

		return t
	}
}

func TestDiagnosticsAllPass(t *testing.T) {
	ops := &fakeBucket{}
	res := runDiagnostics(context.Background(), TypeS3, ops, fixedClock())

	assert.True(t, res.Success)
	assert.Equal(t, "AWS S3 connection successful", res.Message)
	assert.Equal(t, []string{"head", "put", "delete", "cors", "mpu-create", "mpu-abort"}, ops.calls)
	assert.Equal(t, Checks{true, true, true, true, true}, res.Details)
	assert.Equal(t, int64(5), res.ResponseTime)
	require.Len(t, ops.created, 1)
	assert.True(t, strings.HasPrefix(ops.created[0], ".test-write-"))
}

func TestDiagnosticsMissingBucketStopsEarly(t *testing.T) {
	ops := &fakeBucket{fail: map[string]error{"head": errors.New("NoSuchBucket")}}
	res := runDiagnostics(context.Background(), TypeR2, ops, fixedClock())

	assert.False(t, res.Success)
	assert.Equal(t, []string{"head"}, ops.calls)
	assert.Equal(t, "Cloudflare R2 bucket does not exist or is not accessible", res.Message)
	assert.Equal(t, "NoSuchBucket", res.Error)
	assert.Equal(t, Checks{}, res.Details)
}

func TestDiagnosticsWriteDenied(t *testing.T) {
	ops := &fakeBucket{fail: map[string]error{"put": errors.New("AccessDenied")}}
	res := runDiagnostics(context.Background(), TypeMinIO, ops, fixedClock())

	assert.False(t, res.Success)
	assert.Equal(t, []string{"head", "put"}, ops.calls)
	assert.True(t, res.Details.BucketExists)
	assert.False(t, res.Details.WritePermission)
	assert.Equal(t, "MinIO write permission denied: AccessDenied", res.Summary())
}

func TestDiagnosticsAdvisoryFailuresStillSucceed(t *testing.T) {
	ops := &fakeBucket{fail: map[string]error{
		"cors":       errors.New("NoSuchCORSConfiguration"),
		"mpu-create": errors.New("NotImplemented"),
	}}
	res := runDiagnostics(context.Background(), TypeS3, ops, fixedClock())

	assert.True(t, res.Success)
	assert.False(t, res.Details.CORSConfigured)
	assert.False(t, res.Details.MultipartSupported)
	assert.True(t, res.Details.WritePermission)
	assert.Empty(t, res.Error)
}

func TestDiagnosticsLogsFailedMultipartAbort(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	ops := &fakeBucket{fail: map[string]error{"mpu-abort": errors.New("AccessDenied")}}
	res := runDiagnostics(ctx, TypeMinIO, ops, fixedClock())

	assert.True(t, res.Success)
	assert.True(t, res.Details.MultipartSupported)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"upload_id":"upload-1"`)
	assert.Contains(t, buf.String(), "AccessDenied")
}
