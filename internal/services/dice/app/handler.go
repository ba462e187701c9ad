package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/louisbranch/bloodroll/internal/platform/errors"
	"github.com/louisbranch/bloodroll/internal/platform/pagination"
	"github.com/louisbranch/bloodroll/internal/platform/requestctx"
	"github.com/louisbranch/bloodroll/internal/services/dice/filter"
	"github.com/louisbranch/bloodroll/internal/services/dice/storage"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/bus"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/effects"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/overlay"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/pool"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/sheet"
	"github.com/louisbranch/bloodroll/internal/systems/vtm/tracks"
)

const (
	orderSeqDesc = "seq desc"
	orderSeqAsc  = "seq"

	maxBodyBytes = 64 * 1024
)

var (
	rollPageSize = pagination.PageSizeConfig{Default: 20, Max: 100}
	rollOrderBy  = pagination.OrderByConfig{Default: orderSeqDesc, Allowed: []string{orderSeqDesc, orderSeqAsc}}
)

// CharacterSummary is one entry of the character list.
type CharacterSummary struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Clan   string       `json:"clan,omitempty"`
	Tracks tracks.State `json:"tracks"`
}

// CharacterResponse is a sheet plus its overlay.
type CharacterResponse struct {
	Character sheet.Character `json:"character"`
	Overlay   overlay.View    `json:"overlay"`
}

// SelectionResponse reports the pool a selection composes to.
type SelectionResponse struct {
	OK     bool        `json:"ok"`
	Result pool.Result `json:"result"`
}

// RollRequest starts a roll. An empty kind rolls the composed pool.
type RollRequest struct {
	Kind       string `json:"kind,omitempty"`
	Difficulty *int   `json:"difficulty,omitempty"`
}

// ToggleResponse lists the dice selected for the Willpower reroll.
type ToggleResponse struct {
	Selected []int `json:"selected"`
}

// RollListResponse is one page of the journal.
type RollListResponse struct {
	Rolls         []storage.RollRecord `json:"rolls"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type handler struct {
	registry *Registry
	journal  storage.Journal
	events   *bus.Bus
}

// NewHandler builds the dice API routes. Journal routes are only mounted
// when journal is set.
func NewHandler(registry *Registry, journal storage.Journal, events *bus.Bus) http.Handler {
	h := &handler{registry: registry, journal: journal, events: events}

	r := mux.NewRouter()
	r.Use(localeMiddleware)
	r.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/characters", h.listCharacters).Methods(http.MethodGet)
	r.HandleFunc("/characters/{id}", h.getCharacter).Methods(http.MethodGet)
	r.HandleFunc("/characters/{id}/selection", h.putSelection).Methods(http.MethodPut)
	r.HandleFunc("/characters/{id}/rolls", h.postRoll).Methods(http.MethodPost)
	r.HandleFunc("/characters/{id}/dice/{index:[0-9]+}/toggle", h.postToggle).Methods(http.MethodPost)
	r.HandleFunc("/characters/{id}/reroll", h.postReroll).Methods(http.MethodPost)
	r.HandleFunc("/characters/{id}/overlay", h.deleteOverlay).Methods(http.MethodDelete)
	r.HandleFunc("/characters/{id}/stream", h.stream).Methods(http.MethodGet)

	if journal != nil {
		r.HandleFunc("/rolls", h.listRolls).Methods(http.MethodGet)
		r.HandleFunc("/rolls/{id}", h.getRoll).Methods(http.MethodGet)
	}
	return r
}

func localeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestctx.WithLocale(r.Context(), r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	sheets := h.registry.Sheets().List(r.Context())
	out := make([]CharacterSummary, 0, len(sheets))
	for _, sh := range sheets {
		c := sh.Character()
		out = append(out, CharacterSummary{ID: c.ID, Name: c.Name, Clan: c.Clan, Tracks: sh.Tracks()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"characters": out})
}

func (h *handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.controller(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sh, err := h.registry.Sheets().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, characterError(id, err))
		return
	}
	writeJSON(w, http.StatusOK, CharacterResponse{Character: sh.Character(), Overlay: c.Snapshot()})
}

func (h *handler) putSelection(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var state pool.ComposerState
	if err := decodeBody(w, r, &state); err != nil {
		writeError(w, r, invalidState(err))
		return
	}
	result, ok := c.Compose(state)
	writeJSON(w, http.StatusOK, SelectionResponse{OK: ok, Result: result})
}

func (h *handler) postRoll(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req RollRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, invalidState(err))
		return
	}
	kind, ok := effects.ParseKind(strings.TrimSpace(req.Kind))
	if !ok {
		writeError(w, r, apperrors.WithMetadata(apperrors.CodeRollUnknownKind,
			fmt.Sprintf("unknown roll kind %q", req.Kind), map[string]string{"kind": req.Kind}))
		return
	}
	if req.Difficulty != nil && *req.Difficulty < 0 {
		writeError(w, r, apperrors.New(apperrors.CodeDifficultyNegative, "difficulty is negative"))
		return
	}

	// A throw outlives the request; only Wipe or a newer roll aborts it.
	ctx := context.WithoutCancel(r.Context())
	var res overlay.Resolution
	if kind == effects.KindPool {
		res, err = c.Roll(ctx, overlay.RollOptions{Difficulty: req.Difficulty})
	} else {
		res, err = c.QuickRoll(ctx, kind)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) postToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := h.controller(r.Context(), vars["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeError(w, r, invalidState(err))
		return
	}
	selected, err := c.Select(index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if selected == nil {
		selected = []int{}
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Selected: selected})
}

func (h *handler) postReroll(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := c.Reroll(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) deleteOverlay(w http.ResponseWriter, r *http.Request) {
	c, err := h.controller(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.Wipe()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listRolls(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, err := pagination.ParsePageSize(query.Get("page_size"), rollPageSize)
	if err != nil {
		writeError(w, r, apperrors.Wrap(apperrors.CodeJournalInvalidPageSize, err.Error(), err))
		return
	}
	orderBy, err := pagination.NormalizeOrderBy(query.Get("order_by"), rollOrderBy)
	if err != nil {
		writeError(w, r, journalFilterError(err))
		return
	}
	filterStr := strings.TrimSpace(query.Get("filter"))
	cond, err := filter.ParseRollFilter(filterStr)
	if err != nil {
		writeError(w, r, journalFilterError(err))
		return
	}

	token := query.Get("page_token")
	cursor, err := pagination.DecodeToken(token)
	if err == nil && token != "" && !cursor.Matches(orderBy, filterStr) {
		err = pagination.ErrInvalidToken
	}
	if err != nil {
		writeError(w, r, apperrors.Wrap(apperrors.CodeJournalInvalidPageToken, err.Error(), err))
		return
	}

	page, err := h.journal.ListRolls(r.Context(), storage.ListRollsRequest{
		PageSize:     pageSize,
		AfterSeq:     cursor.Seq,
		Descending:   orderBy == orderSeqDesc,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := RollListResponse{Rolls: page.Records}
	if resp.Rolls == nil {
		resp.Rolls = []storage.RollRecord{}
	}
	if page.NextSeq != 0 {
		resp.NextPageToken = pagination.EncodeToken(pagination.Cursor{Seq: page.NextSeq, OrderBy: orderBy, Filter: filterStr})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getRoll(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := h.journal.GetRoll(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, apperrors.WithMetadata(apperrors.CodeRollNotFound, err.Error(), map[string]string{"id": id}))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) controller(ctx context.Context, id string) (*overlay.Controller, error) {
	c, err := h.registry.Controller(ctx, id)
	if err != nil {
		return nil, characterError(id, err)
	}
	return c, nil
}

func characterError(id string, err error) error {
	if errors.Is(err, sheet.ErrNotFound) {
		return apperrors.WithMetadata(apperrors.CodeCharacterNotFound, err.Error(), map[string]string{"id": id})
	}
	return err
}

func invalidState(err error) error {
	return &apperrors.Error{
		Code:     apperrors.CodePoolInvalidState,
		Message:  err.Error(),
		Metadata: map[string]string{"reason": err.Error()},
		Cause:    err,
	}
}

func journalFilterError(err error) error {
	return &apperrors.Error{
		Code:     apperrors.CodeJournalInvalidFilter,
		Message:  err.Error(),
		Metadata: map[string]string{"reason": err.Error()},
		Cause:    err,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
