package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/infrastructure/scanner"
)

const purchaseBody = `{
	"data": {
		"id": 17,
		"created_at": "2025-09-19T10:00:00.000000Z",
		"event": {"name": "Jazz Night"},
		"email": "guest@example.com",
		"ticket_type": "VIP",
		"quantity": "2",
		"used": "0",
		"checked_in_by": null,
		"checked_in_at": null
	}
}`

type backendStub struct {
	mu       sync.Mutex
	requests []string
	auth     []string
	handlers map[string]string
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.requests = append(b.requests, route)
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	body, ok := b.handlers[route]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Ticket not found"}`))
		return
	}
	_, _ = w.Write([]byte(body))
}

func (b *backendStub) seen() ([]string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...), append([]string(nil), b.auth...)
}

// cliEnv isolates a CLI run from the developer's environment and starts a fake backend.
type cliEnv struct {
	t       *testing.T
	backend *backendStub
	url     string
	envFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	for _, key := range []string{
		"BACKEND_URL", "STORAGE_URL", "BACKEND_TIMEOUT", "REDIS_ADDR", "POSTGRES_URL",
		"HTTP_ADDR", "SCAN_TIMEOUT", "SCAN_POLL_INTERVAL", "NOTIFICATION_TTL",
		"CHECKIN_LOCK_TTL", "STATION", "JAEGER_ENDPOINT", "LOG_LEVEL", "FRONTDESK_TOKEN",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("AUTH_STORE", "file")
	t.Setenv("AUTH_FILE", filepath.Join(dir, "session.json"))
	t.Setenv("CAMERAS_DIR", filepath.Join(dir, "cameras"))

	backend := &backendStub{handlers: map[string]string{}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	return &cliEnv{
		t:       t,
		backend: backend,
		url:     srv.URL + "/api",
		envFile: filepath.Join(dir, "missing.env"),
	}
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()

	var out bytes.Buffer
	cliApp := newCLIApp()
	cliApp.Writer = &out
	cliApp.ErrWriter = io.Discard

	argv := append([]string{"frontdesk", "--env-file", e.envFile, "--backend-url", e.url, "--station", "desk-cli"}, args...)
	err := cliApp.Run(argv)

	return out.String(), err
}

func (e *cliEnv) login() {
	e.t.Helper()

	_, err := e.run("auth", "set-token", "--token", "token-1")
	require.NoError(e.t, err)
}

func TestValidateByReference(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.backend.handlers["GET /api/tickets/reference/TXN68cd3c347a069"] = purchaseBody

	out, err := env.run("validate", "--reference", "TXN68cd3c347a069")
	require.NoError(t, err)

	assert.Contains(t, out, "Jazz Night")
	assert.Contains(t, out, "VIP x2")

	requests, auth := env.backend.seen()
	assert.Equal(t, []string{"GET /api/tickets/reference/TXN68cd3c347a069"}, requests)
	assert.Equal(t, []string{"Bearer token-1"}, auth)
}

func TestValidateByCode(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.backend.handlers["GET /api/tickets/verify/QR-PAYLOAD-17"] = purchaseBody

	out, err := env.run("validate", "--code", "QR-PAYLOAD-17")
	require.NoError(t, err)
	assert.Contains(t, out, "Purchase")

	requests, _ := env.backend.seen()
	assert.Equal(t, []string{"GET /api/tickets/verify/QR-PAYLOAD-17"}, requests)
}

func TestValidate_CodeOnlyIdentifiesPurchases(t *testing.T) {
	env := newCLIEnv(t)
	env.login()

	_, err := env.run("validate", "--code", "QR-PAYLOAD-17", "--kind", "booking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--code")

	requests, _ := env.backend.seen()
	assert.Empty(t, requests)
}

func TestValidate_UnknownKind(t *testing.T) {
	env := newCLIEnv(t)
	env.login()

	_, err := env.run("validate", "--reference", "BK-9", "--kind", "voucher")
	assert.ErrorIs(t, err, checkin.ErrUnknownKind)

	requests, _ := env.backend.seen()
	assert.Empty(t, requests)
}

func TestValidate_NotFound(t *testing.T) {
	env := newCLIEnv(t)
	env.login()

	_, err := env.run("validate", "--reference", "TXN-missing")
	assert.ErrorIs(t, err, checkin.ErrNotFound)
}

func TestValidate_WithoutToken(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("validate", "--reference", "TXN68cd3c347a069")
	assert.ErrorIs(t, err, checkin.ErrUnauthenticated)

	requests, _ := env.backend.seen()
	assert.Empty(t, requests)
}

func TestCheckIn(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.backend.handlers["GET /api/tickets/reference/TXN68cd3c347a069"] = purchaseBody
	env.backend.handlers["POST /api/tickets/17/check-in"] = `{"message":"Checked in successfully"}`

	out, err := env.run("check-in", "--reference", "TXN68cd3c347a069", "--operator", "alice")
	require.NoError(t, err)

	assert.Contains(t, out, "Jazz Night")
	assert.Contains(t, out, "Checked in successfully")

	requests, _ := env.backend.seen()
	assert.Equal(t, []string{
		"GET /api/tickets/reference/TXN68cd3c347a069",
		"POST /api/tickets/17/check-in",
	}, requests)
}

func TestScanImageWithoutValidation(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "ticket.png")
	writeQR(t, path, "QR-PAYLOAD-17")

	out, err := env.run("scan", "--image", path, "--no-validate")
	require.NoError(t, err)
	assert.Equal(t, "QR-PAYLOAD-17\n", out)

	requests, _ := env.backend.seen()
	assert.Empty(t, requests)
}

func TestScanOnce_Cancelled(t *testing.T) {
	cam := t.TempDir()
	s := scanner.NewScanner(
		scanner.StaticEnumerator{scanner.NewSnapshotDevice(cam, 10*time.Millisecond)},
		scanner.NewQRDecoder(),
		scanner.Config{},
	)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := scanOnce(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.InUse())

	// the camera lock is released with the session
	stream, err := scanner.NewSnapshotDevice(cam, 0).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Close())
}

func writeQR(t *testing.T, path, text string) {
	t.Helper()

	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)

	img := image.NewGray(image.Rect(0, 0, matrix.GetWidth(), matrix.GetHeight()))
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}
