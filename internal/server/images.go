package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bananadb/internal/library"
	"bananadb/internal/logging"
	"bananadb/internal/textutil"
	"bananadb/internal/vision"
)

// DeleteBatchRequest is the body of POST /api/images/delete_batch.
type DeleteBatchRequest struct {
	ImageIDs []int64 `json:"image_ids"`
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	var (
		images []library.Image
		err    error
	)
	switch category := strings.TrimSpace(r.URL.Query().Get("category")); category {
	case "":
		images, err = s.store.List(r.Context())
	case library.CategoryFavorites:
		images, err = s.store.ListFavorites(r.Context())
	default:
		images, err = s.store.ListByCategory(r.Context(), category)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("查詢失敗: %v", err))
		return
	}
	s.writeImages(w, images)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	images, err := s.store.ListFavorites(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("收藏查詢失敗: %v", err))
		return
	}
	s.writeImages(w, images)
}

func (s *Server) writeImages(w http.ResponseWriter, images []library.Image) {
	if images == nil {
		images = []library.Image{}
	}
	s.writeList(w, images, len(images))
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.imageID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("刪除失敗: %v", err))
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "圖片不存在")
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Message: fmt.Sprintf("成功刪除圖片 ID: %d", id)})
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req DeleteBatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	deleted, err := s.store.DeleteBatch(r.Context(), req.ImageIDs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("批次刪除失敗: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: fmt.Sprintf("成功刪除 %d 張圖片", deleted),
		Data:    map[string]int{"deleted_count": deleted},
	})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := s.imageID(w, r)
	if !ok {
		return
	}
	favorited, err := s.store.ToggleFavorite(r.Context(), id)
	if errors.Is(err, library.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "圖片不存在")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("收藏操作失敗: %v", err))
		return
	}
	verb := "移除"
	if favorited {
		verb = "加入"
	}
	s.writeJSON(w, http.StatusOK, struct {
		Success     bool   `json:"success"`
		IsFavorited bool   `json:"is_favorited"`
		Message     string `json:"message"`
	}{true, favorited, fmt.Sprintf("圖片已%s收藏", verb)})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("分類查詢失敗: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, Envelope{Success: true, Data: categories})
}

// handleSearch asks the vision model to rank stored images against the
// query. Without a configured model it falls back to substring matching.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "q is required")
		return
	}
	all, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("搜尋失敗: %v", err))
		return
	}
	if len(all) == 0 {
		s.writeImages(w, nil)
		return
	}

	candidates := make([]vision.Candidate, 0, len(all))
	byID := make(map[int64]library.Image, len(all))
	for _, img := range all {
		byID[img.ID] = img
		candidates = append(candidates, vision.Candidate{
			ID:               img.ID,
			PositivePrompt:   img.PositivePrompt,
			PositivePromptZh: img.PositivePromptZh,
			Tags:             img.Tags,
		})
	}
	ids, err := s.analyzer.Search(r.Context(), query, candidates)
	if errors.Is(err, vision.ErrNotConfigured) {
		logging.WithContext(r.Context(), s.logger).Debug("vision not configured, using keyword search")
		ids, err = keywordSearch(query, all), nil
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("搜尋失敗: %v", err))
		return
	}

	results := make([]library.Image, 0, len(ids))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			results = append(results, img)
		}
	}
	s.writeImages(w, results)
}

// minKeywordScore is the similarity a non-verbatim keyword hit must reach.
const minKeywordScore = 0.2

// keywordSearch ranks images against query without the vision model:
// verbatim hits first, then TF-IDF token matches.
func keywordSearch(query string, images []library.Image) []int64 {
	docs := make([]textutil.Document, 0, len(images))
	for _, img := range images {
		text := strings.Join(append([]string{img.PositivePrompt, img.PositivePromptZh, img.Category}, img.Tags...), "\n")
		docs = append(docs, textutil.Document{ID: img.ID, Text: text})
	}
	matches := textutil.Rank(query, docs, minKeywordScore)
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids
}

func (s *Server) imageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid image id")
		return 0, false
	}
	return id, true
}
