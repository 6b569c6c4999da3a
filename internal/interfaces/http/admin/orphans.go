package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/interfaces/http/common"
)

const (
	defaultPageSize = 50
	requestTimeout  = 5 * time.Second
)

func (h *Handler) orphanListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		queryValues := r.URL.Query()
		page, _ := common.ParsePositiveInt(queryValues.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(queryValues.Get("limit"), defaultPageSize)

		status := strings.TrimSpace(queryValues.Get("status"))
		if status != "" && status != domain.OrphanStatusPending && status != domain.OrphanStatusResolved {
			common.WriteError(h.logger, w, http.StatusBadRequest, "status は pending か resolved を指定してください", "")
			return
		}

		filter := application.OrphanFilter{
			Status:    status,
			StoreName: queryValues.Get("store"),
		}
		orphans, err := h.orphans.List(ctx, filter, application.Paging{Page: page, Limit: limit})
		if err != nil {
			h.logger.Error().Err(err).Msg("孤立アップロード一覧の取得に失敗")
			common.WriteError(h.logger, w, http.StatusInternalServerError, "孤立アップロードの取得に失敗しました", "")
			return
		}

		items := make([]orphanResponse, 0, len(orphans))
		for _, orphan := range orphans {
			items = append(items, toOrphanResponse(orphan))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, orphanListResponse{Items: items, Page: page, Limit: limit})
	}
}

func (h *Handler) orphanResolveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		id := chi.URLParam(r, "id")

		var req orphanResolveRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, common.MaxJSONRequestBody))
		if err := decoder.Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "JSON の解析に失敗しました", err.Error())
			return
		}
		if strings.TrimSpace(req.Status) != domain.OrphanStatusResolved {
			common.WriteError(h.logger, w, http.StatusBadRequest, "status は resolved のみ指定できます", "")
			return
		}

		orphan, err := h.orphans.Resolve(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, application.ErrOrphanNotFound):
			common.WriteError(h.logger, w, http.StatusNotFound, "孤立アップロードが見つかりません", "")
			return
		case domain.IsKind(err, domain.KindValidation):
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error(), "")
			return
		default:
			h.logger.Error().Err(err).Str("orphan_id", id).Msg("孤立アップロードの更新に失敗")
			common.WriteError(h.logger, w, http.StatusInternalServerError, "孤立アップロードの更新に失敗しました", "")
			return
		}

		if operator, ok := common.OperatorFromContext(r.Context()); ok {
			h.logger.Info().Str("orphan_id", orphan.ID).Str("operator_id", operator.ID).Msg("孤立アップロードを解決済みに更新")
		}
		common.WriteJSON(h.logger, w, http.StatusOK, toOrphanResponse(*orphan))
	}
}
