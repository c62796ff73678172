package handler

import (
	"compress/flate"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/database"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/persistence"
)

const requestIDHeader = "X-Request-ID"

//RequestRouter wraps the concrete router implementation
type RequestRouter struct {
	impl *chi.Mux
}

func (router *RequestRouter) addTollHandlers(db database.Datastore, logger log.FieldLogger) {
	router.impl.Route("/api/v1", func(r chi.Router) {
		r.Get("/onboardunits/{id}/status", newGetOnBoardUnitStatusHandler(db, logger))
		r.Put("/onboardunits/{id}/status", newUpdateOnBoardUnitStatusHandler(db, logger))
		r.Get("/tollcharges/{id}/user", newGetUserNumberHandler(db, logger))
		r.Post("/vehicles", newRegisterVehicleHandler(db, logger))
		r.Delete("/vehicles/{id}", newDeleteVehicleHandler(db, logger))
		r.Get("/roadsegments", newListRoadSegmentsHandler(db, logger))
	})

	router.impl.Handle("/metrics", promhttp.Handler())
}

func newRequestRouter() *RequestRouter {
	router := &RequestRouter{impl: chi.NewRouter()}

	router.impl.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
		Debug:            false,
	}).Handler)

	// Enable gzip compression for json responses
	compressor := middleware.NewCompressor(flate.DefaultCompression, "application/json")
	router.impl.Use(compressor.Handler)
	router.impl.Use(requestID)
	router.impl.Use(middleware.Logger)

	return router
}

//CreateRouter creates a request router and registers all handlers on it
func CreateRouter(db database.Datastore, logger log.FieldLogger) http.Handler {
	router := newRequestRouter()
	router.addTollHandlers(db, logger)
	return router.impl
}

//CreateRouterAndStartServing creates a request router, registers all handlers and starts serving requests.
func CreateRouterAndStartServing(db database.Datastore, port string, logger log.FieldLogger) error {
	logger.Infof("Starting api-tollmanagement on port %s.", port)
	return http.ListenAndServe(":"+port, CreateRouter(db, logger))
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger log.FieldLogger, r *http.Request) log.FieldLogger {
	return logger.WithField("requestID", r.Header.Get(requestIDHeader))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, logger log.FieldLogger, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, database.ErrConnectionNotSet):
		status = http.StatusServiceUnavailable
	case database.IsConstraintViolation(err):
		status = http.StatusConflict
	}

	logger.Errorf("request failed with status %d: %s", status, err.Error())
	http.Error(w, http.StatusText(status), status)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func newGetOnBoardUnitStatusHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "on board unit id must be numeric", http.StatusBadRequest)
			return
		}

		status, found, err := db.GetStatusForOnBoardUnit(id)
		if err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		if !found {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

func newUpdateOnBoardUnitStatusHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "on board unit id must be numeric", http.StatusBadRequest)
			return
		}

		body := struct {
			Status *string `json:"status"`
		}{}
		if err = json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == nil {
			http.Error(w, "request body must contain a status", http.StatusBadRequest)
			return
		}

		if err = db.UpdateOnBoardUnitStatus(id, *body.Status); err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func newGetUserNumberHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "toll charge id must be numeric", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserNumber(id)
		if err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"userId": user})
	}
}

func newRegisterVehicleHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicle := persistence.Vehicle{}
		if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
			http.Error(w, "failed to decode vehicle: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := db.RegisterVehicle(vehicle); err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		w.Header().Set("Location", "/api/v1/vehicles/"+strconv.FormatInt(vehicle.ID, 10))
		w.WriteHeader(http.StatusCreated)
	}
}

func newDeleteVehicleHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			http.Error(w, "vehicle id must be numeric", http.StatusBadRequest)
			return
		}

		if err = db.DeleteVehicle(id); err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func newListRoadSegmentsHandler(db database.Datastore, logger log.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segmentType := r.URL.Query().Get("type")
		if segmentType == "" {
			http.Error(w, "the type query parameter is required", http.StatusBadRequest)
			return
		}

		segments, err := db.ListRoadSegments(segmentType)
		if err != nil {
			writeError(w, requestLogger(logger, r), err)
			return
		}

		writeJSON(w, http.StatusOK, segments)
	}
}
