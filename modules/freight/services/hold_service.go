package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/payable"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/poddocument"
	"github.com/iota-uz/iota-freight/modules/freight/domain/events"
)

type HoldLoadInput struct {
	// ReasonCode may be empty; it is then derived from Reason.
	ReasonCode load.HoldReasonCode
	Reason     string
}

type HoldResult struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	PayablesUnassigned int    `json:"payables_unassigned"`
}

type ReleaseResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type UploadPODInput struct {
	StorageID   string
	AutoRelease bool
}

type UploadPODResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	WasReleased bool   `json:"was_released"`
}

type BulkError struct {
	LoadID  uuid.UUID `json:"load_id"`
	Message string    `json:"message"`
}

type BulkResult struct {
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Errors     []BulkError `json:"errors"`
}

func (r *BulkResult) add(id uuid.UUID, ok bool, message string) {
	if ok {
		r.Successful++
		return
	}
	r.Failed++
	r.Errors = append(r.Errors, BulkError{LoadID: id, Message: message})
}

// HoldService blocks and unblocks loads from settlement.
type HoldService struct {
	engine
}

func NewHoldService(deps Dependencies) *HoldService {
	return &HoldService{engine: newEngine(deps)}
}

func (s *HoldService) HoldLoad(ctx context.Context, auth AuthContext, loadID uuid.UUID, in HoldLoadInput) (*HoldResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionHold)
	if err != nil {
		return nil, err
	}
	return s.holdOne(ctx, auth, loadID, in)
}

func (s *HoldService) ReleaseLoad(ctx context.Context, auth AuthContext, loadID uuid.UUID) (*ReleaseResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionRelease)
	if err != nil {
		return nil, err
	}
	return s.releaseOne(ctx, auth, loadID)
}

// BulkHoldLoads holds each load in its own transaction. Ids are processed in
// the given order, duplicates included.
func (s *HoldService) BulkHoldLoads(ctx context.Context, auth AuthContext, loadIDs []uuid.UUID, in HoldLoadInput) (*BulkResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionHold)
	if err != nil {
		return nil, err
	}
	out := &BulkResult{Errors: []BulkError{}}
	for _, id := range loadIDs {
		res, err := s.holdOne(ctx, auth, id, in)
		if err != nil {
			out.add(id, false, err.Error())
			continue
		}
		out.add(id, res.Success, res.Message)
	}
	logWithFields(ctx, logLevelInfo, "freight.load.bulk_hold", withFields(fieldsFor(auth), logrus.Fields{
		"requested":  len(loadIDs),
		"successful": out.Successful,
		"failed":     out.Failed,
	}))
	return out, nil
}

func (s *HoldService) BulkReleaseLoads(ctx context.Context, auth AuthContext, loadIDs []uuid.UUID) (*BulkResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionRelease)
	if err != nil {
		return nil, err
	}
	out := &BulkResult{Errors: []BulkError{}}
	for _, id := range loadIDs {
		res, err := s.releaseOne(ctx, auth, id)
		if err != nil {
			out.add(id, false, err.Error())
			continue
		}
		out.add(id, res.Success, res.Message)
	}
	logWithFields(ctx, logLevelInfo, "freight.load.bulk_release", withFields(fieldsFor(auth), logrus.Fields{
		"requested":  len(loadIDs),
		"successful": out.Successful,
		"failed":     out.Failed,
	}))
	return out, nil
}

// UploadPOD records the signed proof of delivery. With AutoRelease a load
// held for a missing POD is released in the same transaction; payables are
// not reattached.
func (s *HoldService) UploadPOD(ctx context.Context, auth AuthContext, loadID uuid.UUID, in UploadPODInput) (*UploadPODResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionUploadPOD)
	if err != nil {
		return nil, err
	}
	storageID := strings.TrimSpace(in.StorageID)
	if storageID == "" {
		recordOperation("upload_pod", "rejected")
		return &UploadPODResult{Message: "POD storage reference is required"}, nil
	}
	return s.attachPOD(ctx, auth, loadID, in.AutoRelease, func(context.Context) (string, error) {
		return storageID, nil
	})
}

type UploadPODFileInput struct {
	FileName    string
	Data        []byte
	AutoRelease bool
}

// UploadPODFile stores the document and attaches it to the load in one
// transaction. Invalid documents are rejected before anything is written.
func (s *HoldService) UploadPODFile(ctx context.Context, auth AuthContext, loadID uuid.UUID, in UploadPODFileInput) (*UploadPODResult, error) {
	ctx, err := authorize(ctx, s.Memberships, auth, LoadsAuthzObject, actionUploadPOD)
	if err != nil {
		return nil, err
	}
	doc, err := poddocument.New(auth.OrganizationID, loadID, auth.ActorID, in.FileName, in.Data, s.Options.PODMaxBytes)
	if err != nil {
		recordOperation("upload_pod", "rejected")
		return nil, podDocumentError(err)
	}
	return s.attachPOD(ctx, auth, loadID, in.AutoRelease, func(txCtx context.Context) (string, error) {
		stored, err := s.Documents.Create(txCtx, doc)
		if err != nil {
			return "", err
		}
		return stored.StorageID(), nil
	})
}

func podDocumentError(err error) error {
	switch {
	case errors.Is(err, poddocument.ErrTooLarge):
		return newServiceError(http.StatusRequestEntityTooLarge, "FREIGHT_POD_TOO_LARGE", "POD document is too large", err)
	case errors.Is(err, poddocument.ErrUnsupportedType):
		return newServiceError(http.StatusUnsupportedMediaType, "FREIGHT_POD_UNSUPPORTED_TYPE", "POD document must be a PDF or a scanned image", err)
	case errors.Is(err, poddocument.ErrEmpty):
		return newServiceError(http.StatusUnprocessableEntity, "FREIGHT_POD_EMPTY", "POD document is empty", err)
	}
	return err
}

func (s *HoldService) attachPOD(
	ctx context.Context,
	auth AuthContext,
	loadID uuid.UUID,
	autoRelease bool,
	store func(txCtx context.Context) (string, error),
) (*UploadPODResult, error) {
	var (
		result *UploadPODResult
		c      changes
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		before, err := s.Loads.GetForUpdate(txCtx, loadID)
		if err != nil {
			if errors.Is(err, load.ErrNotFound) {
				result = &UploadPODResult{Message: fmt.Sprintf("Load %s not found", loadID)}
				return nil
			}
			return err
		}
		storageID, err := store(txCtx)
		if err != nil {
			return err
		}

		now := s.now()
		after := before.AttachPOD(storageID, now)
		released := false
		if autoRelease && before.AwaitingPOD() {
			if after, err = after.Release(now); err != nil {
				return err
			}
			released = true
		}
		if err := s.Loads.Update(txCtx, after); err != nil {
			return err
		}
		if err := s.audit(txCtx, loadaudit.OperationUploadPOD, auth.ActorID, before, after); err != nil {
			return err
		}
		meta := s.meta(txCtx, auth)
		if err := s.emit(txCtx, &c, events.TopicLoadPODUploaded, auth.OrganizationID, events.PODUploadedEvent{
			Meta: meta, LoadID: loadID, StorageID: storageID, WasReleased: released,
		}); err != nil {
			return err
		}
		if released {
			if err := s.emit(txCtx, &c, events.TopicLoadReleased, auth.OrganizationID, events.LoadReleasedEvent{
				Meta: meta, LoadID: loadID, AutoRelease: true,
			}); err != nil {
				return err
			}
		}

		msg := fmt.Sprintf("POD uploaded for load %s", loadID)
		if released {
			msg += " and hold released"
		}
		result = &UploadPODResult{Success: true, Message: msg, WasReleased: released}
		return nil
	})
	if err != nil {
		recordOperation("upload_pod", "error")
		return nil, err
	}
	s.finish(ctx, "upload_pod", auth, loadID, result.Success, result.Message, &c)
	return result, nil
}

func (s *HoldService) holdOne(ctx context.Context, auth AuthContext, loadID uuid.UUID, in HoldLoadInput) (*HoldResult, error) {
	var (
		result *HoldResult
		c      changes
	)
	reject := func(format string, args ...any) error {
		result = &HoldResult{Message: fmt.Sprintf(format, args...)}
		return nil
	}

	err := s.runInTx(ctx, func(txCtx context.Context) error {
		before, err := s.Loads.GetForUpdate(txCtx, loadID)
		if err != nil {
			if errors.Is(err, load.ErrNotFound) {
				return reject("Load %s not found", loadID)
			}
			return err
		}
		if before.IsHeld() {
			return reject("Load %s is already on hold", loadID)
		}

		payables, err := s.Payables.ListByLoad(txCtx, loadID)
		if err != nil {
			return err
		}
		if len(payables) == 0 {
			return reject("Load %s has no payables to hold", loadID)
		}
		if msg, err := s.checkSettlements(txCtx, loadID, payables); err != nil || msg != "" {
			if err != nil {
				return err
			}
			return reject("%s", msg)
		}

		detached, err := s.Payables.DetachFromSettlements(txCtx, loadID)
		if err != nil {
			return err
		}
		after, err := before.Hold(in.ReasonCode, in.Reason, auth.ActorID, s.now())
		if err != nil {
			return err
		}
		if err := s.Loads.Update(txCtx, after); err != nil {
			return err
		}
		if err := s.audit(txCtx, loadaudit.OperationHold, auth.ActorID, before, after); err != nil {
			return err
		}
		if err := s.emit(txCtx, &c, events.TopicLoadHeld, auth.OrganizationID, events.LoadHeldEvent{
			Meta:               s.meta(txCtx, auth),
			LoadID:             loadID,
			ReasonCode:         string(after.HeldReasonCode()),
			Reason:             after.HeldReason(),
			DetachedPayableIDs: detached,
			DetachedTotals:     s.detachedTotals(txCtx, payables, detached),
		}); err != nil {
			return err
		}

		enginePayablesDetached.Add(float64(len(detached)))
		result = &HoldResult{
			Success:            true,
			Message:            fmt.Sprintf("Load %s placed on hold, %s unassigned", loadID, pluralize(len(detached), "payable")),
			PayablesUnassigned: len(detached),
		}
		return nil
	})
	if err != nil {
		recordOperation("hold", "error")
		return nil, err
	}
	s.finish(ctx, "hold", auth, loadID, result.Success, result.Message, &c)
	return result, nil
}

// checkSettlements returns a rejection message when any assigned payable sits
// in a settlement that may no longer change.
func (s *HoldService) checkSettlements(ctx context.Context, loadID uuid.UUID, payables []payable.Payable) (string, error) {
	var ids []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, p := range payables {
		if !p.IsAssigned() {
			continue
		}
		if _, ok := seen[*p.SettlementID]; ok {
			continue
		}
		seen[*p.SettlementID] = struct{}{}
		ids = append(ids, *p.SettlementID)
	}
	if len(ids) == 0 {
		return "", nil
	}
	batches, err := s.Settlements.GetByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	for _, p := range payables {
		if !p.IsAssigned() {
			continue
		}
		st, ok := batches[*p.SettlementID]
		if !ok {
			return fmt.Sprintf("Settlement %s referenced by payable %s not found", *p.SettlementID, p.ID), nil
		}
		if !st.AllowsDetach() {
			return fmt.Sprintf("Cannot hold load %s: payable is in settlement %s with status %s", loadID, st.StatementNumber, st.Status), nil
		}
	}
	return "", nil
}

func (s *HoldService) detachedTotals(ctx context.Context, payables []payable.Payable, detached []uuid.UUID) []string {
	if len(detached) == 0 {
		return nil
	}
	ids := make(map[uuid.UUID]struct{}, len(detached))
	for _, id := range detached {
		ids[id] = struct{}{}
	}
	var picked []payable.Payable
	for _, p := range payables {
		if _, ok := ids[p.ID]; ok {
			picked = append(picked, p)
		}
	}
	totals, err := payable.Totals(picked)
	if err != nil {
		logWithFields(ctx, logLevelWarn, "freight.load.hold_totals_failed", logrus.Fields{"error": err.Error()})
		return nil
	}
	return totals
}

func (s *HoldService) releaseOne(ctx context.Context, auth AuthContext, loadID uuid.UUID) (*ReleaseResult, error) {
	var (
		result *ReleaseResult
		c      changes
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		before, err := s.Loads.GetForUpdate(txCtx, loadID)
		if err != nil {
			if errors.Is(err, load.ErrNotFound) {
				result = &ReleaseResult{Message: fmt.Sprintf("Load %s not found", loadID)}
				return nil
			}
			return err
		}
		after, err := before.Release(s.now())
		if errors.Is(err, load.ErrNotHeld) {
			result = &ReleaseResult{Message: fmt.Sprintf("Load %s is not on hold", loadID)}
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Loads.Update(txCtx, after); err != nil {
			return err
		}
		if err := s.audit(txCtx, loadaudit.OperationRelease, auth.ActorID, before, after); err != nil {
			return err
		}
		if err := s.emit(txCtx, &c, events.TopicLoadReleased, auth.OrganizationID, events.LoadReleasedEvent{
			Meta: s.meta(txCtx, auth), LoadID: loadID,
		}); err != nil {
			return err
		}
		result = &ReleaseResult{Success: true, Message: fmt.Sprintf("Load %s released from hold", loadID)}
		return nil
	})
	if err != nil {
		recordOperation("release", "error")
		return nil, err
	}
	s.finish(ctx, "release", auth, loadID, result.Success, result.Message, &c)
	return result, nil
}

func (s *HoldService) finish(ctx context.Context, op string, auth AuthContext, loadID uuid.UUID, ok bool, message string, c *changes) {
	fields := withFields(fieldsFor(auth), logrus.Fields{"load_id": loadID.String(), "message": message})
	if !ok {
		recordOperation(op, "rejected")
		logWithFields(ctx, logLevelInfo, "freight.load."+op+"_rejected", fields)
		return
	}
	recordOperation(op, "ok")
	logWithFields(ctx, logLevelInfo, "freight.load."+op, fields)
	s.publish(c)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func withFields(base logrus.Fields, extra logrus.Fields) logrus.Fields {
	out := make(logrus.Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
