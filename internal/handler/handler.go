package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/majin-sajjad/danny-bot/internal/models"
	"github.com/majin-sajjad/danny-bot/internal/points"
	"github.com/majin-sajjad/danny-bot/internal/repository"
	"github.com/majin-sajjad/danny-bot/internal/service"
	"github.com/majin-sajjad/danny-bot/pkg/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps the error taxonomy onto HTTP statuses. Storage errors
// on reads are retryable from the caller's side, hence 503 rather than 500.
func writeAppError(w http.ResponseWriter, err error) {
	switch errors.CodeOf(err) {
	case errors.ErrValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.ErrNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case errors.ErrPermissionDenied:
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func queryInt64(r *http.Request, key string) int64 {
	value, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return value
}

func queryInt(r *http.Request, key string) int {
	value, _ := strconv.Atoi(r.URL.Query().Get(key))
	return value
}

// pathID extracts the numeric segment after prefix, e.g. the 42 in
// /api/deals/42/points.
func pathID(path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type DealHandler struct {
	ledger     *service.LedgerService
	tournament *service.TournamentService
	disputes   *service.DisputeService
}

func NewDealHandler(ledger *service.LedgerService, tournament *service.TournamentService, disputes *service.DisputeService) *DealHandler {
	return &DealHandler{ledger: ledger, tournament: tournament, disputes: disputes}
}

type submitDealRequest struct {
	GuildID     int64  `json:"guild_id"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Niche       string `json:"niche"`
	DealType    string `json:"deal_type"`
	DealValue   string `json:"deal_value"`
	Description string `json:"description"`
	AdminUserID *int64 `json:"admin_user_id,omitempty"`
}

// Deals handles POST /api/deals (submission) and GET /api/deals (audit list).
func (h *DealHandler) Deals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *DealHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()

	value, err := points.ParseDealValue(req.DealValue)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if req.GuildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	week, err := h.tournament.CurrentWeek(ctx, req.GuildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	deal, err := h.ledger.RecordDeal(ctx, service.NewDeal{
		GuildID:     req.GuildID,
		UserID:      req.UserID,
		Username:    req.Username,
		Niche:       req.Niche,
		DealType:    req.DealType,
		DealValue:   value,
		Description: req.Description,
		WeekNumber:  week,
		AdminUserID: req.AdminUserID,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, deal)
}

func (h *DealHandler) list(w http.ResponseWriter, r *http.Request) {
	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	limit := queryInt(r, "limit")
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	deals, err := h.ledger.GetDeals(r.Context(), repository.DealFilter{
		GuildID:      guildID,
		UserID:       queryInt64(r, "user_id"),
		WeekNumber:   queryInt(r, "week"),
		VerifiedOnly: r.URL.Query().Get("verified_only") == "true",
		Limit:        limit,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": deals, "count": len(deals)})
}

type adjustPointsRequest struct {
	GuildID   int64  `json:"guild_id"`
	NewPoints int    `json:"new_points"`
	Reason    string `json:"reason"`
}

// AdjustPoints handles POST /api/deals/{id}/points — the direct clerical
// override path.
func (h *DealHandler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dealID, ok := pathID(r.URL.Path, "/api/deals/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/deals/{id}/points")
		return
	}

	var req adjustPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.disputes.AdjustPoints(r.Context(), req.GuildID, dealID, req.NewPoints, req.Reason); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GetLeaderboard handles GET /api/leaderboard?guild_id=&window=week|today&week=N.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	var window service.Window
	switch r.URL.Query().Get("window") {
	case "today":
		window = service.WindowToday()
	case "", "week":
		window = service.WindowWeek(queryInt(r, "week"))
	default:
		writeError(w, http.StatusBadRequest, "window must be 'today' or 'week'")
		return
	}

	entries, err := h.leaderboard.Rank(r.Context(), guildID, window)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// GetHistory handles GET /api/leaderboard/history?guild_id=&week=N, reading
// frozen snapshots rather than the live ledger.
func (h *LeaderboardHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	week := queryInt(r, "week")
	if guildID == 0 || week == 0 {
		writeError(w, http.StatusBadRequest, "guild_id and week are required")
		return
	}

	snapshots, err := h.leaderboard.History(r.Context(), guildID, week)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": snapshots, "count": len(snapshots)})
}

type StatsHandler struct {
	ledger     *service.LedgerService
	tournament *service.TournamentService
}

func NewStatsHandler(ledger *service.LedgerService, tournament *service.TournamentService) *StatsHandler {
	return &StatsHandler{ledger: ledger, tournament: tournament}
}

// GetUserStats handles GET /api/users/{id}/stats?guild_id=.
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := pathID(r.URL.Path, "/api/users/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/users/{id}/stats")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	ctx := r.Context()
	week, err := h.tournament.CurrentWeek(ctx, guildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	stats, err := h.ledger.GetUserStats(ctx, guildID, userID, week)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetTournamentStats handles GET /api/tournament/stats?guild_id=.
func (h *StatsHandler) GetTournamentStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	stats, err := h.tournament.Stats(r.Context(), guildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type DisputeHandler struct {
	disputes *service.DisputeService
}

func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

type raiseDisputeRequest struct {
	GuildID int64  `json:"guild_id"`
	DealID  int64  `json:"deal_id"`
	UserID  int64  `json:"user_id"`
	Reason  string `json:"reason"`
}

// RaiseDispute handles POST /api/disputes.
func (h *DisputeHandler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req raiseDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dispute, err := h.disputes.RaiseDispute(r.Context(), req.GuildID, req.DealID, req.UserID, req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dispute)
}

type resolveDisputeRequest struct {
	GuildID  int64  `json:"guild_id"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// ResolveDispute handles POST /api/disputes/{id}/resolve.
func (h *DisputeHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	disputeID, ok := pathID(r.URL.Path, "/api/disputes/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/disputes/{id}/resolve")
		return
	}

	var req resolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.disputes.Resolve(r.Context(), disputeID, req.GuildID, models.DisputeDecision(req.Decision), req.Reason)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// ListPending handles GET /api/disputes/pending?guild_id=.
func (h *DisputeHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	disputes, err := h.disputes.Pending(r.Context(), guildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": disputes, "count": len(disputes)})
}

type TournamentHandler struct {
	tournament *service.TournamentService
}

func NewTournamentHandler(tournament *service.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournament: tournament}
}

// GetCurrentWeek handles GET /api/tournament/week?guild_id=.
func (h *TournamentHandler) GetCurrentWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	week, err := h.tournament.CurrentWeek(r.Context(), guildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"guild_id": guildID, "current_week": week})
}

// AdvanceWeek handles POST /api/tournament/advance?guild_id= — the manual
// rotation trigger for the admin surface.
func (h *TournamentHandler) AdvanceWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	guildID := queryInt64(r, "guild_id")
	if guildID == 0 {
		writeError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	week, err := h.tournament.Advance(r.Context(), guildID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"guild_id": guildID, "current_week": week})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
