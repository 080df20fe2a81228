package api

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"hash/crc32"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "stegguard/internal/hashing/pixeldigest"
	_ "stegguard/internal/hashing/sha256"
	"stegguard/internal/lsb"
	"stegguard/internal/models"
	_ "stegguard/internal/watermarking/lsbimage"
)

type testServer struct {
	store  *memStore
	router http.Handler
}

func newTestServer(maxUpload int64) *testServer {
	store := newMemStore()
	return &testServer{
		store: store,
		router: NewRouter(store, Options{
			DefaultAlgorithm: "lsb-sentinel",
			MaxUploadBytes:   maxUpload,
		}),
	}
}

func testPNG(t *testing.T, w, h int, fill func(x, y int) color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pattern(x, y int) color.NRGBA {
	return color.NRGBA{uint8(x * 9), uint8(y * 5), uint8(x + y), 0xff}
}

// multipartRequest builds a POST with a "media" file part and the given fields.
func multipartRequest(t *testing.T, path string, media []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if media != nil {
		part, err := mw.CreateFormFile("media", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(media)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestWatermarkAlgorithmListing(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/watermarks/algorithms", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Algorithms []models.Algorithm `json:"algorithms"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Algorithms, 2)
	assert.Equal(t, "lsb-framed", resp.Algorithms[0].Name)
	assert.Equal(t, "lsb-sentinel", resp.Algorithms[1].Name)
}

func TestEmbedAndExtract(t *testing.T) {
	for _, algorithm := range []string{"lsb-sentinel", "lsb-framed"} {
		t.Run(algorithm, func(t *testing.T) {
			s := newTestServer(0)
			cover := testPNG(t, 24, 24, pattern)
			config := `{"algorithm":"` + algorithm + `"}`

			rec := s.do(multipartRequest(t, "/api/v1/watermarks", cover, map[string]string{
				"config": config,
				"data":   "issued to desk 7",
			}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "watermarked_cover.png")

			fileUUID, err := uuid.Parse(rec.Header().Get("X-File-UUID"))
			require.NoError(t, err)
			marked := rec.Body.Bytes()

			rec = s.do(multipartRequest(t, "/api/v1/query/watermarks", marked, map[string]string{"config": config}))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp models.WatermarkResponse
			decodeJSON(t, rec, &resp)
			assert.Equal(t, algorithm, resp.Algorithm)
			assert.Equal(t, "issued to desk 7", resp.Payload)
			assert.Equal(t, "utf-8", resp.Encoding)

			history := s.store.marks[fileUUID]
			require.Len(t, history, 1)
			assert.Equal(t, algorithm, history[0].Algorithm)
			assert.Equal(t, md5Hex(marked), history[0].MD5)
			assert.Contains(t, s.store.hashes[fileUUID], "pixeldigest")
		})
	}
}

func TestEmbedUsesDefaultAlgorithm(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(multipartRequest(t, "/api/v1/watermarks", testPNG(t, 8, 8, pattern), map[string]string{"data": "x"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(multipartRequest(t, "/api/v1/query/watermarks", rec.Body.Bytes(), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.WatermarkResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "lsb-sentinel", resp.Algorithm)
	assert.Equal(t, "x", resp.Payload)
}

func TestEmbedErrors(t *testing.T) {
	cover := testPNG(t, 4, 4, pattern)
	tests := []struct {
		name   string
		media  []byte
		fields map[string]string
		status int
	}{
		{"missing media", nil, map[string]string{"data": "x"}, http.StatusBadRequest},
		{"missing data", cover, nil, http.StatusBadRequest},
		{"bad config", cover, map[string]string{"config": "{", "data": "x"}, http.StatusBadRequest},
		{"unknown algorithm", cover, map[string]string{"config": `{"algorithm":"dct"}`, "data": "x"}, http.StatusBadRequest},
		{"not an image", []byte("plain text"), map[string]string{"data": "x"}, http.StatusUnsupportedMediaType},
		{"too large", cover, map[string]string{"data": strings.Repeat("x", 64)}, http.StatusUnprocessableEntity},
		{"ambiguous", cover, map[string]string{"data": "\xff"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(0)
			rec := s.do(multipartRequest(t, "/api/v1/watermarks", tt.media, tt.fields))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Empty(t, s.store.marks)
		})
	}
}

func TestExtractUnmarked(t *testing.T) {
	s := newTestServer(0)
	black := testPNG(t, 8, 8, func(x, y int) color.NRGBA { return color.NRGBA{0, 0, 0, 0xff} })
	rec := s.do(multipartRequest(t, "/api/v1/query/watermarks", black, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No recoverable payload")
}

func TestExtractUnmarkedFramed(t *testing.T) {
	covers := map[string]func(x, y int) color.NRGBA{
		"black": func(x, y int) color.NRGBA { return color.NRGBA{0, 0, 0, 0xff} },
		"even":  func(x, y int) color.NRGBA { return color.NRGBA{uint8(x * 2), uint8(y * 4), uint8(x+y) &^ 1, 0xff} },
		"noise": pattern,
	}
	config := map[string]string{"config": `{"algorithm":"lsb-framed"}`}
	for name, fill := range covers {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(0)
			rec := s.do(multipartRequest(t, "/api/v1/query/watermarks", testPNG(t, 8, 8, fill), config))
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), "No recoverable payload")
		})
	}
}

func TestExtractBinaryPayload(t *testing.T) {
	s := newTestServer(0)
	config := map[string]string{"config": `{"algorithm":"lsb-framed"}`}
	rec := s.do(multipartRequest(t, "/api/v1/watermarks", testPNG(t, 16, 16, pattern), map[string]string{
		"config": config["config"],
		"data":   "\xff\xfe\x00",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(multipartRequest(t, "/api/v1/query/watermarks", rec.Body.Bytes(), config))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.WatermarkResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "base64", resp.Encoding)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00}), resp.Payload)
}

func TestWatermarkCapacity(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(multipartRequest(t, "/api/v1/watermarks/capacity", testPNG(t, 8, 8, pattern), map[string]string{
		"config": `{"algorithm":"lsb-framed"}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.CapacityResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, models.CapacityResponse{Algorithm: "lsb-framed", Capacity: 8*8*3/8 - lsb.HeaderBytes}, resp)
}

func TestListMediaHashes(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(multipartRequest(t, "/api/v1/watermarks", testPNG(t, 8, 8, pattern), map[string]string{"data": "a"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fileUUID := rec.Header().Get("X-File-UUID")

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/"+fileUUID, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.FileResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, fileUUID, resp.FileUUID)
	assert.Equal(t, "cover.png", resp.Filename)
	assert.Contains(t, resp.Hashes, "pixeldigest")
	require.Len(t, resp.Watermarks, 1)
	assert.Equal(t, "lsb-sentinel", resp.Watermarks[0].Algorithm)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHashes(t *testing.T) {
	s := newTestServer(0)
	cover := testPNG(t, 8, 8, pattern)
	config := `{"hashAlgorithms":[{"algorithm":"sha256"},{"algorithm":"pixeldigest"}]}`

	rec := s.do(multipartRequest(t, "/api/v1/hashes", cover, map[string]string{"config": config}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first models.HashResponse
	decodeJSON(t, rec, &first)
	assert.Len(t, first.Hashes, 2)

	// second upload of the same bytes is served from the store
	rec = s.do(multipartRequest(t, "/api/v1/hashes", cover, map[string]string{"config": config}))
	require.Equal(t, http.StatusOK, rec.Code)
	var second models.HashResponse
	decodeJSON(t, rec, &second)
	assert.Equal(t, first, second)

	rec = s.do(multipartRequest(t, "/api/v1/hashes", cover, map[string]string{"config": `{"hashAlgorithms":[{"algorithm":"nope"}]}`}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// A watermarked copy has new file bytes but the same pixel digest.
func TestQueryByMediaFindsCover(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(multipartRequest(t, "/api/v1/watermarks", testPNG(t, 12, 12, pattern), map[string]string{"data": "trace me"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	coverUUID := rec.Header().Get("X-File-UUID")

	rec = s.do(multipartRequest(t, "/api/v1/query/hashes/by-media", rec.Body.Bytes(), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var entries []models.EntrySimilarity
	decodeJSON(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "pixeldigest", entries[0].Algorithm)
	assert.Equal(t, coverUUID, entries[0].UUID)
}

func TestQueryByHashValue(t *testing.T) {
	s := newTestServer(0)
	rec := s.do(multipartRequest(t, "/api/v1/hashes", testPNG(t, 8, 8, pattern), map[string]string{
		"config": `{"hashAlgorithms":[{"algorithm":"sha256"}]}`,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created models.HashResponse
	decodeJSON(t, rec, &created)

	body, err := json.Marshal(models.HashValueQueryRequest{Hashes: map[string]string{
		"sha256":  created.Hashes["sha256"],
		"unknown": "abc",
	}})
	require.NoError(t, err)
	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/query/hashes/by-hash", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []models.EntrySimilarity
	decodeJSON(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, created.FileUUID, entries[0].UUID)
}

func TestUploadLimit(t *testing.T) {
	s := newTestServer(64)
	rec := s.do(multipartRequest(t, "/api/v1/watermarks", testPNG(t, 64, 64, pattern), map[string]string{"data": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// hugePNG is a small PNG stream whose header declares width x height pixels.
func hugePNG(t *testing.T, width, height uint32) []byte {
	data := append([]byte(nil), testPNG(t, 8, 8, pattern)...)
	binary.BigEndian.PutUint32(data[16:], width)
	binary.BigEndian.PutUint32(data[20:], height)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestOversizedImageRejected(t *testing.T) {
	media := hugePNG(t, 50000, 50000)
	tests := []struct {
		name   string
		path   string
		fields map[string]string
	}{
		{"capacity", "/api/v1/watermarks/capacity", nil},
		{"embed", "/api/v1/watermarks", map[string]string{"data": "x"}},
		{"extract", "/api/v1/query/watermarks", nil},
		{"hashes", "/api/v1/hashes", map[string]string{"config": `{"hashAlgorithms":[{"algorithm":"pixeldigest"}]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(1 << 20)
			rec := s.do(multipartRequest(t, tt.path, media, tt.fields))
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
		})
	}
}
