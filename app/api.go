package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("pricetracker", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", ctrl.createUser)

			r.Route("/{user_id}", func(r chi.Router) {
				r.Post("/items", ctrl.trackItem)
				r.Get("/items", ctrl.listItems)
				r.Get("/items/{item_id}", ctrl.itemDetail)
				r.Delete("/items/{item_id}", ctrl.deleteItem)

				r.Post("/alerts", ctrl.createAlert)
				r.Get("/alerts", ctrl.listAlerts)
				r.Patch("/alerts/{alert_id}", ctrl.patchAlert)
				r.Delete("/alerts/{alert_id}", ctrl.deleteAlert)

				r.Post("/searches", ctrl.createSearch)
				r.Get("/searches", ctrl.listSearches)
				r.Get("/searches/{request_id}", ctrl.searchDetail)
				r.Delete("/searches/{request_id}", ctrl.deleteSearch)
				r.Post("/searches/{request_id}/select", ctrl.selectCandidate)

				r.Get("/notifications", ctrl.listNotifications)
				r.Post("/notifications/{notification_id}/read", ctrl.markNotificationRead)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/recheck", ctrl.forceRecheck)
			r.Get("/joblog", ctrl.jobLog)
		})
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

// rejectErr maps service errors onto HTTP statuses.
func (ctrl *controller) rejectErr(w http.ResponseWriter, err error) {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		ctrl.reject(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrNotFound):
		ctrl.reject(w, http.StatusNotFound, err)
	case errors.Is(err, ErrAlreadyTracking):
		ctrl.reject(w, http.StatusConflict, err)
	default:
		ctrl.log.Sugar().Errorw("request failed", "err", err)
		ctrl.reject(w, http.StatusInternalServerError, err)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Error("Request failed", "error", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return invalid("malformed JSON body: %s", err)
	}
	return nil
}

func (ctrl *controller) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	user, err := ctrl.svc.CreateUser(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, UserView{}.From(user))
}

func (ctrl *controller) trackItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	item, err := ctrl.svc.TrackItem(r.Context(), parseInt(chi.URLParam(r, "user_id")), body.URL)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, ItemView{}.From(item))
}

func (ctrl *controller) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := ctrl.svc.ListItems(r.Context(), parseInt(chi.URLParam(r, "user_id")))
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.TrackedItem, ItemView](items))
}

func (ctrl *controller) itemDetail(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	itemID := parseInt(chi.URLParam(r, "item_id"))

	item, history, err := ctrl.svc.ItemDetail(r.Context(), userID, itemID)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"item":    ItemView{}.From(item),
		"history": FromMany[models.PricePoint, PricePointView](history),
	})
}

func (ctrl *controller) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	itemID := parseInt(chi.URLParam(r, "item_id"))

	if err := ctrl.svc.DeleteItem(r.Context(), userID, itemID); err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.reject(w, http.StatusNoContent, nil)
}

func (ctrl *controller) createAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemID            uint     `json:"item_id"`
		TargetPrice       *float64 `json:"target_price"`
		DiscountThreshold *float64 `json:"discount_threshold"`
		NotifyOnce        bool     `json:"notify_once"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	rule, err := ctrl.svc.CreateAlert(
		r.Context(), parseInt(chi.URLParam(r, "user_id")), body.ItemID,
		body.TargetPrice, body.DiscountThreshold, body.NotifyOnce,
	)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, AlertView{}.From(rule))
}

func (ctrl *controller) listAlerts(w http.ResponseWriter, r *http.Request) {
	rules, err := ctrl.svc.ListAlerts(r.Context(), parseInt(chi.URLParam(r, "user_id")))
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.AlertRule, AlertView](rules))
}

func (ctrl *controller) patchAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetPrice       *float64 `json:"target_price"`
		DiscountThreshold *float64 `json:"discount_threshold"`
		NotifyOnce        *bool    `json:"notify_once"`
		IsActive          *bool    `json:"is_active"`
		HasNotifiedOnce   *bool    `json:"has_notified_once"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	rule, err := ctrl.svc.PatchAlert(
		r.Context(), parseInt(chi.URLParam(r, "user_id")), parseInt(chi.URLParam(r, "alert_id")),
		AlertPatch{
			TargetPrice:       body.TargetPrice,
			DiscountThreshold: body.DiscountThreshold,
			NotifyOnce:        body.NotifyOnce,
			IsActive:          body.IsActive,
			HasNotifiedOnce:   body.HasNotifiedOnce,
		},
	)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, AlertView{}.From(rule))
}

func (ctrl *controller) deleteAlert(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	alertID := parseInt(chi.URLParam(r, "alert_id"))

	if err := ctrl.svc.DeleteAlert(r.Context(), userID, alertID); err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.reject(w, http.StatusNoContent, nil)
}

func (ctrl *controller) createSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string   `json:"platform"`
		Query    string   `json:"query"`
		Location string   `json:"location"`
		MaxPrice *float64 `json:"max_price"`
		Limit    int      `json:"limit"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	platform, err := models.ParsePlatform(body.Platform)
	if err != nil {
		ctrl.reject(w, http.StatusBadRequest, err)
		return
	}

	req, err := ctrl.svc.CreateSearchRequest(
		r.Context(), parseInt(chi.URLParam(r, "user_id")),
		platform, body.Query, body.Location, body.MaxPrice, body.Limit,
	)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, SearchRequestView{}.From(req))
}

func (ctrl *controller) listSearches(w http.ResponseWriter, r *http.Request) {
	reqs, err := ctrl.svc.ListSearchRequests(r.Context(), parseInt(chi.URLParam(r, "user_id")))
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.SearchRequest, SearchRequestView](reqs))
}

func (ctrl *controller) searchDetail(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	requestID := parseInt(chi.URLParam(r, "request_id"))

	req, err := ctrl.svc.SearchRequestDetail(r.Context(), userID, requestID)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SearchRequestView{}.From(req))
}

func (ctrl *controller) deleteSearch(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	requestID := parseInt(chi.URLParam(r, "request_id"))

	if err := ctrl.svc.DeleteSearchRequest(r.Context(), userID, requestID); err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.reject(w, http.StatusNoContent, nil)
}

func (ctrl *controller) selectCandidate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		ctrl.rejectErr(w, err)
		return
	}

	item, err := ctrl.svc.SelectCandidate(
		r.Context(), parseInt(chi.URLParam(r, "user_id")),
		parseInt(chi.URLParam(r, "request_id")), body.URL,
	)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, ItemView{}.From(item))
}

func (ctrl *controller) listNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	events, err := ctrl.svc.ListNotifications(r.Context(), parseInt(chi.URLParam(r, "user_id")), unreadOnly)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.NotificationEvent, NotificationView](events))
}

func (ctrl *controller) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := parseInt(chi.URLParam(r, "user_id"))
	eventID := parseInt(chi.URLParam(r, "notification_id"))

	if err := ctrl.svc.MarkNotificationRead(r.Context(), userID, eventID); err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.reject(w, http.StatusNoContent, nil)
}

func (ctrl *controller) forceRecheck(w http.ResponseWriter, r *http.Request) {
	ctrl.svc.ForceRecheck(r.Context())
	ctrl.resolve(w, http.StatusAccepted, map[string]any{"status": "recheck started"})
}

func (ctrl *controller) jobLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := ctrl.svc.RecentJobLog(r.Context(), limit)
	if err != nil {
		ctrl.rejectErr(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, entries)
}

func parseInt(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}
