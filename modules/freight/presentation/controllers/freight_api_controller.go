package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/form"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/presentation/controllers/dtos"
	"github.com/iota-uz/iota-freight/modules/freight/services"
	"github.com/iota-uz/iota-freight/pkg/application"
	"github.com/iota-uz/iota-freight/pkg/composables"
	"github.com/iota-uz/iota-freight/pkg/constants"
	"github.com/iota-uz/iota-freight/pkg/httpapi"
	"github.com/iota-uz/iota-freight/pkg/middleware"
)

const (
	defaultHeldLimit = 50
	multipartMemory  = 8 << 20
)

var queryDecoder = form.NewDecoder()

type holdOperations interface {
	HoldLoad(ctx context.Context, auth services.AuthContext, loadID uuid.UUID, in services.HoldLoadInput) (*services.HoldResult, error)
	ReleaseLoad(ctx context.Context, auth services.AuthContext, loadID uuid.UUID) (*services.ReleaseResult, error)
	BulkHoldLoads(ctx context.Context, auth services.AuthContext, loadIDs []uuid.UUID, in services.HoldLoadInput) (*services.BulkResult, error)
	BulkReleaseLoads(ctx context.Context, auth services.AuthContext, loadIDs []uuid.UUID) (*services.BulkResult, error)
	UploadPOD(ctx context.Context, auth services.AuthContext, loadID uuid.UUID, in services.UploadPODInput) (*services.UploadPODResult, error)
	UploadPODFile(ctx context.Context, auth services.AuthContext, loadID uuid.UUID, in services.UploadPODFileInput) (*services.UploadPODResult, error)
}

type lanePromotion interface {
	ConvertToContract(ctx context.Context, auth services.AuthContext, loadID uuid.UUID, in services.ConvertToContractInput) (*services.ConvertResult, error)
	CountMatchingSpotLoads(ctx context.Context, auth services.AuthContext, hcr, tripNumber string) (int64, error)
}

type reviewGate interface {
	ConfirmSpotLoad(ctx context.Context, auth services.AuthContext, loadID uuid.UUID) (*services.ConfirmSpotResult, error)
	CountReviewNeeded(ctx context.Context, auth services.AuthContext) (int64, error)
}

type heldListing interface {
	ListHeld(ctx context.Context, auth services.AuthContext, f services.HeldFilter) (*services.HeldPage, error)
}

// APIOptions configures the freight API surface.
type APIOptions struct {
	OrganizationHeader string
	ActorHeader        string
	PODMaxBytes        int64
	// RateLimit is applied to every route when set.
	RateLimit mux.MiddlewareFunc
}

type FreightAPIController struct {
	holds     holdOperations
	lanes     lanePromotion
	review    reviewGate
	loads     heldListing
	opts      APIOptions
	apiPrefix string
}

func NewFreightAPIController(app application.Application, opts APIOptions) application.Controller {
	return newFreightAPIController(
		app.Service(services.HoldService{}).(*services.HoldService),
		app.Service(services.LanePromotionService{}).(*services.LanePromotionService),
		app.Service(services.ReviewService{}).(*services.ReviewService),
		app.Service(services.LoadService{}).(*services.LoadService),
		opts,
	)
}

func newFreightAPIController(holds holdOperations, lanes lanePromotion, review reviewGate, loads heldListing, opts APIOptions) *FreightAPIController {
	if opts.OrganizationHeader == "" {
		opts.OrganizationHeader = "X-Organization-ID"
	}
	if opts.ActorHeader == "" {
		opts.ActorHeader = "X-Actor-ID"
	}
	if opts.PODMaxBytes <= 0 {
		opts.PODMaxBytes = 10 << 20
	}
	return &FreightAPIController{
		holds:     holds,
		lanes:     lanes,
		review:    review,
		loads:     loads,
		opts:      opts,
		apiPrefix: "/freight/api",
	}
}

func (c *FreightAPIController) Key() string {
	return c.apiPrefix
}

func (c *FreightAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	if c.opts.RateLimit != nil {
		api.Use(c.opts.RateLimit)
	}
	api.Use(
		middleware.TracedMiddleware("freight_api"),
		middleware.RequireOrganization(c.opts.OrganizationHeader),
	)

	api.HandleFunc("/loads:bulk-hold", c.BulkHold).Methods(http.MethodPost)
	api.HandleFunc("/loads:bulk-release", c.BulkRelease).Methods(http.MethodPost)
	api.HandleFunc("/loads:review-count", c.ReviewCount).Methods(http.MethodGet)
	api.HandleFunc("/loads:held", c.ListHeld).Methods(http.MethodGet)

	api.HandleFunc("/loads/{id}/hold", c.Hold).Methods(http.MethodPost)
	api.HandleFunc("/loads/{id}/release", c.Release).Methods(http.MethodPost)
	api.HandleFunc("/loads/{id}/pod", c.UploadPOD).Methods(http.MethodPost)
	api.HandleFunc("/loads/{id}/confirm-spot", c.ConfirmSpot).Methods(http.MethodPost)
	api.HandleFunc("/loads/{id}/convert-to-contract", c.ConvertToContract).Methods(http.MethodPost)

	api.HandleFunc("/lanes:matching-spot-count", c.MatchingSpotCount).Methods(http.MethodGet)
}

func (c *FreightAPIController) Hold(w http.ResponseWriter, r *http.Request) {
	auth, loadID, requestID, ok := c.requireLoadRequest(w, r)
	if !ok {
		return
	}
	var req dtos.HoldLoadRequest
	if !decodeBody(w, r, requestID, &req) {
		return
	}
	code, err := load.ParseHoldReasonCode(req.ReasonCode)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", err.Error(), nil)
		return
	}

	res, err := c.holds.HoldLoad(r.Context(), auth, loadID, services.HoldLoadInput{ReasonCode: code, Reason: req.Reason})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) Release(w http.ResponseWriter, r *http.Request) {
	auth, loadID, requestID, ok := c.requireLoadRequest(w, r)
	if !ok {
		return
	}
	res, err := c.holds.ReleaseLoad(r.Context(), auth, loadID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) BulkHold(w http.ResponseWriter, r *http.Request) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return
	}
	var req dtos.BulkHoldRequest
	if !decodeBody(w, r, requestID, &req) {
		return
	}
	code, err := load.ParseHoldReasonCode(req.ReasonCode)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", err.Error(), nil)
		return
	}

	res, err := c.holds.BulkHoldLoads(r.Context(), auth, req.LoadIDs, services.HoldLoadInput{ReasonCode: code, Reason: req.Reason})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) BulkRelease(w http.ResponseWriter, r *http.Request) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return
	}
	var req dtos.BulkReleaseRequest
	if !decodeBody(w, r, requestID, &req) {
		return
	}
	res, err := c.holds.BulkReleaseLoads(r.Context(), auth, req.LoadIDs)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

// UploadPOD accepts either a JSON reference to a stored document or a
// multipart upload with the document in the "file" field.
func (c *FreightAPIController) UploadPOD(w http.ResponseWriter, r *http.Request) {
	auth, loadID, requestID, ok := c.requireLoadRequest(w, r)
	if !ok {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		c.uploadPODFile(w, r, auth, loadID, requestID)
		return
	}

	var req dtos.UploadPODRequest
	if !decodeBody(w, r, requestID, &req) {
		return
	}
	res, err := c.holds.UploadPOD(r.Context(), auth, loadID, services.UploadPODInput{
		StorageID:   req.StorageID,
		AutoRelease: req.AutoRelease,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) uploadPODFile(w http.ResponseWriter, r *http.Request, auth services.AuthContext, loadID uuid.UUID, requestID string) {
	r.Body = http.MaxBytesReader(w, r.Body, c.opts.PODMaxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, requestID, "FREIGHT_POD_TOO_LARGE", "pod document is too large", nil)
			return
		}
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "invalid multipart body", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var fields dtos.UploadPODForm
	if err := queryDecoder.Decode(&fields, r.MultipartForm.Value); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "invalid form fields", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "file is required", map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the domain check to reject it.
	data, err := io.ReadAll(io.LimitReader(file, c.opts.PODMaxBytes+1))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "unable to read file", nil)
		return
	}

	res, err := c.holds.UploadPODFile(r.Context(), auth, loadID, services.UploadPODFileInput{
		FileName:    header.Filename,
		Data:        data,
		AutoRelease: fields.AutoRelease,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) ConfirmSpot(w http.ResponseWriter, r *http.Request) {
	auth, loadID, requestID, ok := c.requireLoadRequest(w, r)
	if !ok {
		return
	}
	res, err := c.review.ConfirmSpotLoad(r.Context(), auth, loadID)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) ConvertToContract(w http.ResponseWriter, r *http.Request) {
	auth, loadID, requestID, ok := c.requireLoadRequest(w, r)
	if !ok {
		return
	}
	var req dtos.ConvertToContractRequest
	if !decodeBody(w, r, requestID, &req) {
		return
	}
	if req.Rate != nil && req.Rate.IsNegative() {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "rate must not be negative", map[string]string{"rate": "min"})
		return
	}

	res, err := c.lanes.ConvertToContract(r.Context(), auth, loadID, services.ConvertToContractInput{
		ContractName:    req.ContractName,
		RateType:        req.RateType,
		Rate:            req.Rate,
		ExpectedMatches: req.ExpectedMatches,
	})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, res)
}

func (c *FreightAPIController) MatchingSpotCount(w http.ResponseWriter, r *http.Request) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return
	}
	var q dtos.MatchingSpotQuery
	if !decodeQuery(w, r, requestID, &q) {
		return
	}
	count, err := c.lanes.CountMatchingSpotLoads(r.Context(), auth, q.HCR, q.Trip)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.CountResponse{Count: count})
}

func (c *FreightAPIController) ReviewCount(w http.ResponseWriter, r *http.Request) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return
	}
	count, err := c.review.CountReviewNeeded(r.Context(), auth)
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.CountResponse{Count: count})
}

func (c *FreightAPIController) ListHeld(w http.ResponseWriter, r *http.Request) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return
	}
	var q dtos.HeldLoadsQuery
	if !decodeQuery(w, r, requestID, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultHeldLimit
	}

	page, err := c.loads.ListHeld(r.Context(), auth, services.HeldFilter{Limit: q.Limit, Offset: q.Offset, Query: q.Q})
	if err != nil {
		writeServiceError(w, requestID, err)
		return
	}
	data := make([]dtos.LoadResponse, 0, len(page.Loads))
	for _, l := range page.Loads {
		data = append(data, dtos.NewLoadResponse(l))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.HeldLoadsResponse{
		Data:   data,
		Total:  page.Total,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// requireAuth builds the caller identity from the organization resolved by
// middleware and the actor header.
func (c *FreightAPIController) requireAuth(w http.ResponseWriter, r *http.Request) (services.AuthContext, string, bool) {
	requestID := composables.UseRequestID(r.Context())
	orgID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_NO_AUTH_CONTEXT", "organization is required", nil)
		return services.AuthContext{}, requestID, false
	}
	actorID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(c.opts.ActorHeader)))
	if err != nil || actorID == uuid.Nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_NO_AUTH_CONTEXT", "actor header is missing or invalid", map[string]string{
			"header": c.opts.ActorHeader,
		})
		return services.AuthContext{}, requestID, false
	}
	return services.AuthContext{OrganizationID: orgID, ActorID: actorID}, requestID, true
}

func (c *FreightAPIController) requireLoadRequest(w http.ResponseWriter, r *http.Request) (services.AuthContext, uuid.UUID, string, bool) {
	auth, requestID, ok := c.requireAuth(w, r)
	if !ok {
		return auth, uuid.Nil, requestID, false
	}
	loadID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_ID", "load id is invalid", nil)
		return auth, uuid.Nil, requestID, false
	}
	return auth, loadID, requestID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, requestID string, dst any) bool {
	if err := httpapi.DecodeJSON(r, dst); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_BODY", "request body is invalid", httpapi.ValidationMeta(err))
		return false
	}
	return true
}

func decodeQuery(w http.ResponseWriter, r *http.Request, requestID string, dst any) bool {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_QUERY", "query is invalid", nil)
		return false
	}
	if err := constants.Validate.Struct(dst); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestID, "FREIGHT_INVALID_QUERY", "query is invalid", httpapi.ValidationMeta(err))
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message, nil)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "FREIGHT_INTERNAL", "internal error", nil)
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string, meta map[string]string) {
	if meta == nil {
		meta = map[string]string{}
	}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	_ = httpapi.WriteError(w, status, code, message, meta)
}
