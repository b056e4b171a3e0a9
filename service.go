// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/project-3-sem/backend/clips"
	"github.com/project-3-sem/backend/config"
	"github.com/project-3-sem/backend/metrics"
	"github.com/project-3-sem/backend/pronunciation"
	"github.com/project-3-sem/backend/speech"
	"github.com/project-3-sem/backend/texts"
)

// multipart overhead allowed on top of the audio size limit
const formOverhead = 1 << 20

type PronunciationService struct {
	pipeline *pronunciation.Service
	clips    *clips.Server
	texts    texts.Resolver
	config   *config.Config
	logger   *slog.Logger
}

// CorrectionClip points at a synthesized pronunciation of one word.
type CorrectionClip struct {
	Word string `json:"word"`
	File string `json:"file"`
	URL  string `json:"url"`
}

type ProcessResponse struct {
	TaskID             string           `json:"taskId"`
	RecognizedText     string           `json:"recognizedText"`
	MispronouncedWords []string         `json:"mispronouncedWords"`
	CorrectionClips    []CorrectionClip `json:"correctionClips"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// apiError pairs an HTTP status with the body sent to the client.
type apiError struct {
	status int
	body   ErrorResponse
}

func (e *apiError) Error() string {
	return e.body.Error
}

func newAPIError(status int, code, msg string) *apiError {
	return &apiError{status: status, body: ErrorResponse{Error: msg, Code: code}}
}

// texts may be nil when text_id lookups are not configured.
func NewPronunciationService(cfg *config.Config, pipeline *pronunciation.Service, clipServer *clips.Server, resolver texts.Resolver, logger *slog.Logger) *PronunciationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PronunciationService{
		pipeline: pipeline,
		clips:    clipServer,
		texts:    resolver,
		config:   cfg,
		logger:   logger,
	}
}

// @Summary     Check pronunciation
// @Description Compare a 16 kHz mono WAV recording against a reference text and report mispronounced words. Identical submissions are answered from cache.
// @Tags        pronunciation
// @Accept      multipart/form-data
// @Produce     json
// @Param       text       formData string false "Reference text (mutually exclusive with text_id)"
// @Param       text_id    formData int    false "Id of a stored reference text"
// @Param       audio      formData file   true  "WAV recording, mono, 16000 Hz"
// @Param       enable_tts formData string false "Synthesize correction clips (1/true/yes/y/on)"
// @Success     200 {object} ProcessResponse
// @Failure     400 {object} ErrorResponse
// @Failure     401 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     422 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Security    BearerAuth
// @Router      /audio/process [post]
func (s *PronunciationService) ProcessHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes()+formOverhead)

	req, apiErr := s.parseProcessRequest(c)
	if apiErr != nil {
		s.fail(c, apiErr)
		return
	}
	if closer, ok := req.Audio.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	result, err := s.pipeline.Process(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		s.fail(c, classify(err))
		return
	}

	status := "ok"
	if result.Cached {
		status = "cached"
	}
	metrics.AnalysisRequests.WithLabelValues(status).Inc()

	resp := ProcessResponse{
		TaskID:             result.TaskID,
		RecognizedText:     result.RecognizedText,
		MispronouncedWords: result.MispronouncedWords,
		CorrectionClips:    make([]CorrectionClip, 0, len(result.Clips)),
	}
	if resp.MispronouncedWords == nil {
		resp.MispronouncedWords = []string{}
	}
	for _, clip := range result.Clips {
		resp.CorrectionClips = append(resp.CorrectionClips, CorrectionClip{
			Word: clip.Word,
			File: clip.File,
			URL:  s.clipURL(result.TaskID, clip.File),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *PronunciationService) parseProcessRequest(c *gin.Context) (pronunciation.Request, *apiError) {
	var req pronunciation.Request

	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, s.tooLarge()
		}
		return req, newAPIError(http.StatusBadRequest, "invalid_form", "request must be multipart/form-data")
	}

	text := strings.TrimSpace(c.PostForm("text"))
	rawTextID := strings.TrimSpace(c.PostForm("text_id"))
	switch {
	case text == "" && rawTextID == "":
		return req, newAPIError(http.StatusBadRequest, "text_required", "text is required")
	case text != "" && rawTextID != "":
		return req, newAPIError(http.StatusBadRequest, "text_conflict", "provide only one of text or text_id")
	}

	var textID int64
	if rawTextID != "" {
		id, err := strconv.ParseInt(rawTextID, 10, 64)
		if err != nil || id <= 0 {
			return req, newAPIError(http.StatusBadRequest, "invalid_text_id", "text_id must be a positive integer")
		}
		if s.texts == nil {
			return req, newAPIError(http.StatusBadRequest, "invalid_text_id", "text_id lookups are not enabled")
		}
		textID = id
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return req, newAPIError(http.StatusBadRequest, "audio_required", "audio is required")
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".wav") {
		return req, newAPIError(http.StatusBadRequest, "invalid_audio_extension", "audio must be a .wav file")
	}
	if file.Size > s.config.MaxUploadBytes() {
		return req, s.tooLarge()
	}

	enableTTS, err := config.ParseBool(c.PostForm("enable_tts"))
	if err != nil {
		return req, newAPIError(http.StatusBadRequest, "invalid_enable_tts", "enable_tts must be a boolean")
	}
	if enableTTS && !s.pipeline.TTSConfigured() {
		return req, newAPIError(http.StatusBadRequest, "tts_not_configured", "text-to-speech credentials are not configured")
	}

	if textID != 0 {
		text, err = s.texts.ReferenceText(c.Request.Context(), textID)
		if errors.Is(err, texts.ErrNotFound) {
			return req, newAPIError(http.StatusNotFound, "text_not_found", "text not found")
		}
		if err != nil {
			s.logger.Error("failed to resolve reference text", "text_id", textID, "err", err)
			return req, newAPIError(http.StatusInternalServerError, "internal_error", "internal server error while processing audio")
		}
	}

	audio, err := file.Open()
	if err != nil {
		s.logger.Error("failed to open uploaded audio", "err", err)
		return req, newAPIError(http.StatusInternalServerError, "internal_error", "internal server error while processing audio")
	}

	req.ReferenceText = text
	req.Audio = audio
	req.EnableTTS = enableTTS
	return req, nil
}

func (s *PronunciationService) tooLarge() *apiError {
	return newAPIError(http.StatusBadRequest, "file_too_large",
		fmt.Sprintf("File too large. Maximum size is %dMB", s.config.Audio.MaxFileSize))
}

func classify(err error) *apiError {
	switch {
	case errors.Is(err, pronunciation.ErrTTSNotConfigured):
		return newAPIError(http.StatusBadRequest, "tts_not_configured", "text-to-speech credentials are not configured")
	case errors.Is(err, pronunciation.ErrInvalidAudio):
		return newAPIError(http.StatusBadRequest, "invalid_audio", "audio must be a valid WAV (mono, 16000 Hz)")
	case errors.Is(err, speech.ErrNoSpeech):
		return newAPIError(http.StatusUnprocessableEntity, "no_speech", "could not recognize any speech from the audio")
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal server error while processing audio")
	}
}

func (s *PronunciationService) fail(c *gin.Context, e *apiError) {
	label := "bad_request"
	switch {
	case e.status >= http.StatusInternalServerError:
		label = "error"
		s.logger.Error("analysis request failed", "code", e.body.Code, "err", c.Errors.Last())
	case e.status == http.StatusUnprocessableEntity:
		label = "no_speech"
	}
	metrics.AnalysisRequests.WithLabelValues(label).Inc()
	c.JSON(e.status, e.body)
}

func (s *PronunciationService) clipURL(taskID, file string) string {
	return strings.TrimSuffix(s.config.API.BasePath, "/") + "/audio/corrections/" + taskID + "/" + file
}

// @Summary     Download a correction clip
// @Description Stream an MP3 clip produced for a task by the process endpoint.
// @Tags        pronunciation
// @Produce     audio/mpeg
// @Param       task_id  path string true "Task id (canonical UUID)"
// @Param       filename path string true "Clip file name"
// @Success     200 {file} binary
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /audio/corrections/{task_id}/{filename} [get]
func (s *PronunciationService) CorrectionHandler(c *gin.Context) {
	taskID := c.Param("task_id")
	filename := c.Param("filename")

	f, info, err := s.clips.Open(taskID, filename)
	switch {
	case errors.Is(err, clips.ErrInvalidName):
		metrics.ClipDownloads.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file name", Code: "invalid_file_name"})
		return
	case errors.Is(err, clips.ErrNotFound):
		metrics.ClipDownloads.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found", Code: "file_not_found"})
		return
	case err != nil:
		metrics.ClipDownloads.WithLabelValues("error").Inc()
		s.logger.Error("failed to serve correction clip", "task_id", taskID, "file", filename, "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"})
		return
	}
	defer f.Close()

	metrics.ClipDownloads.WithLabelValues("ok").Inc()
	c.Header("Content-Type", "audio/mpeg")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
