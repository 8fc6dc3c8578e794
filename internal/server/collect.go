package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bananadb/internal/fetch"
	"bananadb/internal/library"
	"bananadb/internal/logging"
	"bananadb/internal/vision"
)

// CollectRequest is the body of POST /api/collect_url.
type CollectRequest struct {
	ImageURL    string `json:"image_url"`
	PageURL     string `json:"page_url"`
	ContextText string `json:"context_text"`
	SkipAI      bool   `json:"skip_ai"`
}

// CollectData is the data member of a successful collect or upload.
type CollectData struct {
	ImageID  int64           `json:"image_id"`
	Filename string          `json:"filename"`
	Analysis vision.Analysis `json:"analysis"`
}

const (
	messageCollected = "圖片收集成功"
	messageUploaded  = "圖片上傳成功"
)

func (s *Server) handleCollectURL(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "image_url is required")
		return
	}
	ctx := r.Context()
	logger := logging.WithContext(ctx, s.logger)

	res, err := s.downloader.Download(ctx, req.ImageURL, req.PageURL, s.store.UploadDir())
	if err != nil {
		logging.WarnWithContext(logger, "image download failed", "download_failed",
			logging.String("image_url", req.ImageURL),
			logging.String(logging.FieldImpact, "image not collected"),
			logging.Error(err))
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("圖片下載失敗: %v", err))
		return
	}
	logger.Info("image downloaded",
		logging.String("filename", res.Filename),
		logging.Int64("bytes", res.Size))

	var analysis vision.Analysis
	if req.SkipAI && strings.TrimSpace(req.ContextText) != "" {
		analysis = s.describePrompt(ctx, req.ContextText)
	} else {
		analysis = s.analyze(ctx, res.Path, s.cleanHint(req.ContextText))
	}

	id, err := s.store.Insert(ctx, library.NewImage{
		Filename:         res.Filename,
		PositivePrompt:   analysis.PositivePrompt,
		PositivePromptZh: analysis.PositivePromptZh,
		NegativePrompt:   analysis.NegativePrompt,
		Tags:             analysis.Tags,
		SourceURL:        req.ImageURL,
		Category:         analysis.Category,
	})
	if err != nil {
		_ = os.Remove(res.Path)
		logging.ErrorWithContext(logger, "image record not saved", "library_insert_failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("處理失敗: %v", err))
		return
	}
	logger.Info("image collected",
		logging.Int64(logging.FieldImageID, id),
		logging.String("category", analysis.Category),
		logging.Bool("skip_ai", req.SkipAI))
	s.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: messageCollected,
		Data:    CollectData{ImageID: id, Filename: res.Filename, Analysis: analysis},
	})
}

// describePrompt builds an analysis from a prompt the user supplied: the
// prompt is translated and tagged instead of analysing the image.
func (s *Server) describePrompt(ctx context.Context, prompt string) vision.Analysis {
	translation := s.analyzer.Translate(ctx, prompt)
	tags, category := s.analyzer.ExtractTags(ctx, prompt)
	positive := translation.English
	if positive == "" {
		positive = prompt
	}
	return vision.Analysis{
		PositivePrompt:   positive,
		PositivePromptZh: translation.Chinese,
		NegativePrompt:   vision.DefaultNegativePrompt,
		Tags:             tags,
		Category:         category,
	}
}

// analyze runs the vision model, keeping the placeholder analysis when it
// fails so the image is still recorded.
func (s *Server) analyze(ctx context.Context, path, hint string) vision.Analysis {
	analysis, err := s.analyzer.AnalyzeImage(ctx, path, hint)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "image analysis failed", "vision_analyze_failed",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "placeholder analysis stored"),
			logging.String(logging.FieldErrorHint, "check vision api key and model"),
			logging.Error(err))
	}
	return analysis
}

// cleanHint strips markup from page text before it reaches the model.
func (s *Server) cleanHint(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		s.writeError(w, http.StatusBadRequest, "不支援的檔案類型，請上傳圖片檔案")
		return
	}

	ctx := r.Context()
	logger := logging.WithContext(ctx, s.logger)
	filename := fetch.NewFilename(fetch.Extension(header.Filename))
	path := filepath.Join(s.store.UploadDir(), filename)
	if err := saveUpload(path, file); err != nil {
		logging.ErrorWithContext(logger, "upload not stored", "upload_write_failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("上傳失敗: %v", err))
		return
	}

	analysis := s.analyze(ctx, path, "")
	id, err := s.store.Insert(ctx, library.NewImage{
		Filename:         filename,
		PositivePrompt:   analysis.PositivePrompt,
		PositivePromptZh: analysis.PositivePromptZh,
		NegativePrompt:   analysis.NegativePrompt,
		Tags:             analysis.Tags,
		Category:         analysis.Category,
	})
	if err != nil {
		_ = os.Remove(path)
		logging.ErrorWithContext(logger, "image record not saved", "library_insert_failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("上傳失敗: %v", err))
		return
	}
	logger.Info("image uploaded", logging.Int64(logging.FieldImageID, id), logging.String("filename", filename))
	s.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: messageUploaded,
		Data:    CollectData{ImageID: id, Filename: filename, Analysis: analysis},
	})
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
