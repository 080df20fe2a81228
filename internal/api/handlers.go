package api

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"stegguard/internal/database"
	"stegguard/internal/hashing"
	"stegguard/internal/lsb"
	"stegguard/internal/models"
	"stegguard/internal/pixels"
	"stegguard/internal/watermarking"
)

// coverHashAlgorithm is recorded for every watermarked cover so that
// marked copies can be traced back to it.
const coverHashAlgorithm = "pixeldigest"

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Store database.Store
	// DefaultAlgorithm is used when a watermark request carries no config.
	DefaultAlgorithm string
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(store database.Store, defaultAlgorithm string) *Handlers {
	return &Handlers{Store: store, DefaultAlgorithm: defaultAlgorithm}
}

// --- Helper Functions ---

// respondWithJSON is a helper to send a JSON response.
func (h *Handlers) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// respondWithError is a helper to send a JSON error message.
func (h *Handlers) respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("Error: %s", message)
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// watermarkErrorStatus maps watermarking failures to HTTP status codes.
func watermarkErrorStatus(err error) int {
	switch {
	case errors.Is(err, pixels.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pixels.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, pixels.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case lsb.IsKind(err, lsb.KindCapacityExceeded), lsb.IsKind(err, lsb.KindAmbiguousPayload):
		return http.StatusUnprocessableEntity
	case lsb.IsKind(err, lsb.KindSentinelNotFound), lsb.IsKind(err, lsb.KindCorruptHeader):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// readMedia returns the uploaded "media" part and its content.
func readMedia(r *http.Request) (*multipart.FileHeader, []byte, error) {
	file, header, err := r.FormFile("media")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid media file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return header, fileBytes, nil
}

// parseCreateHashesRequest parses the multipart form data to extract the file,
// its content, and the hash configuration.
func (h *Handlers) parseCreateHashesRequest(r *http.Request) (*multipart.FileHeader, *models.HashConfig, []byte, error) {
	header, fileBytes, err := readMedia(r)
	if err != nil {
		return nil, nil, nil, err
	}

	var config models.HashConfig
	configStr := r.FormValue("config")
	if configStr != "" {
		if err := json.Unmarshal([]byte(configStr), &config); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid config JSON: %w", err)
		}
	}
	return header, &config, fileBytes, nil
}

// parseQueryHashesRequest parses the multipart form data of a by-media query.
func (h *Handlers) parseQueryHashesRequest(r *http.Request) (*models.HashMediaQueryRequest, []byte, error) {
	_, fileBytes, err := readMedia(r)
	if err != nil {
		return nil, nil, err
	}

	var config models.HashMediaQueryRequest
	configStr := r.FormValue("config")
	if configStr != "" {
		if err := json.Unmarshal([]byte(configStr), &config); err != nil {
			return nil, nil, fmt.Errorf("invalid config JSON: %w", err)
		}
	}
	return &config, fileBytes, nil
}

// parseWatermarkRequest reads the media and resolves the watermarker named
// by the optional "config" field.
func (h *Handlers) parseWatermarkRequest(r *http.Request) (*multipart.FileHeader, []byte, watermarking.Watermarker, error) {
	header, fileBytes, err := readMedia(r)
	if err != nil {
		return nil, nil, nil, err
	}

	config := models.WatermarkConfig{Algorithm: h.DefaultAlgorithm}
	if configStr := r.FormValue("config"); configStr != "" {
		if err := json.Unmarshal([]byte(configStr), &config); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid config JSON: %w", err)
		}
	}

	watermarker, err := watermarking.GetWatermarker(config.Algorithm)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unknown watermark algorithm: %w", err)
	}
	return header, fileBytes, watermarker, nil
}

// areAllHashesPresent checks if all requested hashes are already in the database.
func areAllHashesPresent(requestedAlgos []models.HashAlgorithmConfig, storedHashes map[string]string) bool {
	for _, algo := range requestedAlgos {
		if _, ok := storedHashes[algo.Algorithm]; !ok {
			return false
		}
	}
	return true
}

// registerFile returns the UUID of the file with fileBytes' MD5, inserting a
// new record when it has not been seen before.
func (h *Handlers) registerFile(ctx context.Context, header *multipart.FileHeader, fileBytes []byte) (uuid.UUID, bool, error) {
	md5Hash := md5Hex(fileBytes)
	fileUUID, found, err := h.Store.FindFileByMD5(ctx, md5Hash)
	if err != nil || found {
		return fileUUID, found, err
	}
	fileUUID, err = h.Store.InsertFile(ctx, header.Filename, header.Header.Get("Content-Type"), md5Hash)
	return fileUUID, false, err
}

// generateAndStoreHashes generates hashes for the given file and stores them.
func (h *Handlers) generateAndStoreHashes(ctx context.Context, fileBytes []byte, fileUUID uuid.UUID, algos []models.HashAlgorithmConfig) (map[string]string, error) {
	hashValues := make(map[string]string)
	for _, algo := range algos {
		log.Printf("Configured hasher: %s with parameters: %+v", algo.Algorithm, algo.Parameters)
		hasher, err := hashing.GetHasher(algo.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("invalid config for hasher %s: %w", algo.Algorithm, err)
		}

		hashValue, err := hasher.ExtractHash(bytes.NewReader(fileBytes))
		if err != nil {
			return nil, fmt.Errorf("failed hashing with %s: %w", algo.Algorithm, err)
		}

		log.Printf("%s : %s", algo.Algorithm, hashValue)
		hashValues[algo.Algorithm] = hashValue

		if err := h.Store.InsertHash(ctx, fileUUID, algo.Algorithm, hashValue); err != nil {
			return nil, err
		}
	}
	return hashValues, nil
}

// HandleCreateHashes handles the creation of hashes for a media file.
func (h *Handlers) HandleCreateHashes(w http.ResponseWriter, r *http.Request) {
	header, config, fileBytes, err := h.parseCreateHashesRequest(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileUUID, found, err := h.registerFile(r.Context(), header, fileBytes)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while registering file.")
		return
	}

	if found {
		storedHashes, err := h.Store.StoredHashes(r.Context(), fileUUID)
		if err != nil {
			h.respondWithError(w, http.StatusInternalServerError, "Database error while getting stored hashes.")
			return
		}

		if areAllHashesPresent(config.HashAlgorithms, storedHashes) {
			response := models.HashResponse{
				FileUUID: fileUUID.String(),
				Filename: filepath.Base(header.Filename),
				Hashes:   storedHashes,
			}
			h.respondWithJSON(w, http.StatusOK, response)
			return
		}
	}

	_, err = h.generateAndStoreHashes(r.Context(), fileBytes, fileUUID, config.HashAlgorithms)
	if err != nil {
		if strings.Contains(err.Error(), "invalid config") {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
		} else if status := watermarkErrorStatus(err); status != http.StatusInternalServerError {
			h.respondWithError(w, status, "Failed to hash media: "+err.Error())
		} else {
			h.respondWithError(w, http.StatusInternalServerError, "Error during hashing process.")
		}
		return
	}

	// Refetch all hashes to ensure the response is complete
	allHashes, err := h.Store.StoredHashes(r.Context(), fileUUID)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while retrieving final hashes.")
		return
	}

	response := models.HashResponse{
		FileUUID: fileUUID.String(),
		Filename: filepath.Base(header.Filename),
		Hashes:   allHashes,
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// --- Other Handlers ---

// Lists all the available hashes and watermarks for this file
func (h *Handlers) HandleListMediaHashes(w http.ResponseWriter, r *http.Request) {
	fileUUID, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid file UUID format")
		return
	}

	filename, err := h.Store.FileName(r.Context(), fileUUID)
	if errors.Is(err, database.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while retrieving file information")
		return
	}

	hashes, err := h.Store.StoredHashes(r.Context(), fileUUID)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while retrieving hashes")
		return
	}

	watermarks, err := h.Store.WatermarkHistory(r.Context(), fileUUID)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while retrieving watermarks")
		return
	}

	response := models.FileResponse{
		FileUUID:   fileUUID.String(),
		Filename:   filepath.Base(filename),
		Hashes:     hashes,
		Watermarks: watermarks,
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// HandleEmbedWatermark embeds a watermark into the provided media file.
func (h *Handlers) HandleEmbedWatermark(w http.ResponseWriter, r *http.Request) {
	header, fileBytes, watermarker, err := h.parseWatermarkRequest(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An empty payload is valid; a missing field is not.
	if _, ok := r.MultipartForm.Value["data"]; !ok {
		h.respondWithError(w, http.StatusBadRequest, "Missing watermark data")
		return
	}
	watermarkData := []byte(r.FormValue("data"))

	resultReader, err := watermarker.Embed(bytes.NewReader(fileBytes), watermarkData)
	if err != nil {
		h.respondWithError(w, watermarkErrorStatus(err), "Failed to embed watermark: "+err.Error())
		return
	}
	resultBytes, err := io.ReadAll(resultReader)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to read watermarked media: "+err.Error())
		return
	}

	// Register the cover only once embedding succeeded
	fileUUID, found, err := h.registerFile(r.Context(), header, fileBytes)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Database error while registering file.")
		return
	}
	if !found {
		algos := []models.HashAlgorithmConfig{{Algorithm: coverHashAlgorithm}}
		if _, err := h.generateAndStoreHashes(r.Context(), fileBytes, fileUUID, algos); err != nil {
			log.Printf("[ERROR] Failed to fingerprint cover %s: %v", fileUUID, err)
		}
	}

	if err := h.Store.InsertWatermark(r.Context(), fileUUID, md5Hex(resultBytes), watermarker.Name()); err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to register watermark: "+err.Error())
		return
	}

	name := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	ext := ".png"
	if http.DetectContentType(resultBytes) == "image/bmp" {
		ext = ".bmp"
	}

	w.Header().Set("Content-Type", http.DetectContentType(resultBytes))
	w.Header().Set("Content-Disposition", `attachment; filename="watermarked_`+name+ext+`"`)
	w.Header().Set("X-File-UUID", fileUUID.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resultBytes)
}

// HandleExtractWatermark recovers the payload hidden in the provided media file.
func (h *Handlers) HandleExtractWatermark(w http.ResponseWriter, r *http.Request) {
	_, fileBytes, watermarker, err := h.parseWatermarkRequest(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := watermarker.Extract(bytes.NewReader(fileBytes))
	if err != nil {
		status := watermarkErrorStatus(err)
		if status == http.StatusNotFound {
			h.respondWithError(w, status, "No recoverable payload: "+err.Error())
			return
		}
		h.respondWithError(w, status, "Failed to extract watermark: "+err.Error())
		return
	}

	response := models.WatermarkResponse{
		Algorithm: watermarker.Name(),
		Payload:   string(payload),
		Encoding:  "utf-8",
	}
	if !utf8.Valid(payload) {
		response.Payload = base64.StdEncoding.EncodeToString(payload)
		response.Encoding = "base64"
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// HandleWatermarkCapacity reports how many payload bytes the media can carry.
func (h *Handlers) HandleWatermarkCapacity(w http.ResponseWriter, r *http.Request) {
	_, fileBytes, watermarker, err := h.parseWatermarkRequest(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	capacity, err := watermarker.Capacity(bytes.NewReader(fileBytes))
	if err != nil {
		h.respondWithError(w, watermarkErrorStatus(err), "Failed to read media: "+err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, models.CapacityResponse{
		Algorithm: watermarker.Name(),
		Capacity:  capacity,
	})
}

func (h *Handlers) HandleQueryHashesByMedia(w http.ResponseWriter, r *http.Request) {
	config, fileBytes, err := h.parseQueryHashesRequest(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	//If the config is empty add all available algorithm names to config
	if len(config.Algorithms) == 0 {
		for _, algo := range hashing.ListSupportedAlgorithms() {
			config.Algorithms = append(config.Algorithms, algo.Name)
		}
	}

	results := make([]models.EntrySimilarity, 0)
	for _, algo := range config.Algorithms {
		hasher, err := hashing.GetHasher(algo)
		if err != nil {
			log.Printf("[ERROR] Failed to get hasher for algorithm %s: %v", algo, err)
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to get hasher for algorithm %s", algo))
			return
		}

		entries, err := hasher.CheckHash(bytes.NewReader(fileBytes))
		if err != nil {
			// pixeldigest cannot fingerprint non-image media; skip it
			log.Printf("[ERROR] failed to check hashes for algorithm %s: %v", algo, err)
			continue
		}

		//Link every entry to a registered file, dropping those without one
		for _, entry := range entries {
			fileUUID, err := h.Store.FileByHash(r.Context(), entry.Algorithm, entry.HashId)
			if err != nil {
				if !errors.Is(err, database.ErrNotFound) {
					log.Printf("[ERROR] Failed to find linked uuid for hash %s: %v", entry.HashId, err)
				}
				continue
			}
			entry.UUID = fileUUID.String()
			results = append(results, entry)
		}
	}

	h.respondWithJSON(w, http.StatusOK, results)
}

func (h *Handlers) HandleQueryHashesByHashValue(w http.ResponseWriter, r *http.Request) {
	var req models.HashValueQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results := make([]models.EntrySimilarity, 0)
	for algo, hashValue := range req.Hashes {
		hasher, err := hashing.GetHasher(algo)
		if err != nil {
			log.Printf("Unknown hasher: %s", algo)
			continue // skip unknown hashers
		}

		fileUUID, err := h.Store.FileByHash(r.Context(), hasher.Name(), hashValue)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				log.Printf("Error checking hash for %s: %v", algo, err)
			}
			continue
		}

		results = append(results, models.EntrySimilarity{
			Algorithm:  hasher.Name(),
			UUID:       fileUUID.String(),
			Similarity: 100,
			HashId:     hashValue,
		})
	}

	h.respondWithJSON(w, http.StatusOK, results)
}

// HandleHashAlgorithmListing returns a list of supported hash algorithms.
func (h *Handlers) HandleHashAlgorithmListing(w http.ResponseWriter, r *http.Request) {
	algorithms := hashing.ListSupportedAlgorithms()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"algorithms": algorithms})
}

// HandleWatermarkAlgorithmListing returns a list of supported watermarking algorithms.
func (h *Handlers) HandleWatermarkAlgorithmListing(w http.ResponseWriter, r *http.Request) {
	watermarks := watermarking.ListSupportedAlgorithms()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"algorithms": watermarks})
}
