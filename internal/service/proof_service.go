package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/Sivanthsiv/food-ecommerce/internal/apperr"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/blob"
	"github.com/Sivanthsiv/food-ecommerce/internal/models"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProofRefPrefix is the serving route every proof reference points under
const ProofRefPrefix = "/api/orders/proof/"

const (
	tempProofPrefix     = "tmp-"
	attachedProofPrefix = "payment-"
	maxNameAttempts     = 3
)

var (
	proofRefPattern  = regexp.MustCompile(`^/api/orders/proof/[A-Za-z0-9\-_.]+\.(jpg|jpeg|png|webp)$`)
	proofNamePattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]+\.[A-Za-z0-9]{2,6}$`)
)

var proofExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// hasImageSignature checks the leading bytes against the declared type
func hasImageSignature(contentType string, data []byte) bool {
	switch contentType {
	case "image/jpeg":
		return bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	case "image/png":
		return bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	case "image/webp":
		return len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP"
	}
	return false
}

func ownerProofPrefix(caller *auth.Identity) string {
	return tempProofPrefix + caller.OwnerKey() + "-"
}

// checkProofRef validates a proof reference supplied at checkout. Only the
// caller's own temporary uploads may be attached.
func checkProofRef(ref string, caller *auth.Identity) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	if !proofRefPattern.MatchString(ref) || strings.Contains(ref, "..") {
		return nil, apperr.InvalidInput("Invalid payment screenshot reference")
	}
	if !caller.Authenticated() {
		return nil, apperr.Unauthorized("Sign in to attach a payment screenshot")
	}
	if !strings.HasPrefix(strings.TrimPrefix(ref, ProofRefPrefix), ownerProofPrefix(caller)) {
		return nil, apperr.Forbidden("Payment screenshot does not belong to you")
	}
	return &ref, nil
}

// UploadInput is an uploaded proof image
type UploadInput struct {
	ContentType string
	Data        []byte
}

// ProofUpload is the stored proof reference
type ProofUpload struct {
	Ref       string `json:"screenshotUrl"`
	Temporary bool   `json:"temporary"`
}

// Proof is an opened proof image. Callers close Body.
type Proof struct {
	Body        io.ReadCloser
	ContentType string
}

// ProofService stores and serves payment screenshots
type ProofService struct {
	orders   OrderStore
	blobs    blob.Store
	events   EventPublisher
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewProofService(orders OrderStore, blobs blob.Store, events EventPublisher, maxBytes int64, timeout time.Duration) *ProofService {
	return &ProofService{
		orders:   orders,
		blobs:    blobs,
		events:   events,
		maxBytes: maxBytes,
		timeout:  timeout,
		logger:   newLogger(),
		now:      time.Now,
	}
}

// Upload validates and stores a proof image. With an orderID the image is
// attached to that order, otherwise it is kept as the caller's temporary upload.
func (s *ProofService) Upload(ctx context.Context, in UploadInput, caller *auth.Identity, orderID string) (*ProofUpload, error) {
	ctx, span := util.StartSpan(ctx, "ProofService.Upload")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	upload, err := s.upload(ctx, in, caller, strings.TrimSpace(orderID))
	if err != nil {
		util.ProofUploadsTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}
	util.ProofUploadsTotal.WithLabelValues("stored").Inc()
	return upload, nil
}

func (s *ProofService) upload(ctx context.Context, in UploadInput, caller *auth.Identity, orderID string) (*ProofUpload, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthorized("Sign in to upload a payment screenshot")
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0]))
	ext, ok := proofExtensions[contentType]
	if !ok {
		return nil, apperr.InvalidInput("Only JPG, PNG, and WEBP files are allowed")
	}
	if len(in.Data) == 0 {
		return nil, apperr.InvalidInput("No screenshot uploaded")
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return nil, apperr.InvalidInput(fmt.Sprintf("Screenshot too large (max %dMB)", s.maxBytes>>20))
	}
	if !hasImageSignature(contentType, in.Data) {
		return nil, apperr.InvalidInput("Uploaded file failed validation")
	}

	var order *models.Order
	if orderID != "" {
		if _, err := uuid.Parse(orderID); err != nil {
			return nil, apperr.InvalidInput("Invalid orderId")
		}
		found, err := s.orders.GetOrderByID(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		if err != nil {
			return nil, unavailable(err)
		}
		if !found.IsProofHolder(caller.AccountID, caller.Email) {
			return nil, apperr.Forbidden("Forbidden")
		}
		if found.PaymentStatus != models.PaymentStatusPendingReview {
			return nil, apperr.InvalidInput(paymentAlreadyReviewed)
		}
		order = found
	}

	prefix := ownerProofPrefix(caller)
	if order != nil {
		prefix = attachedProofPrefix
	}

	name, err := s.create(ctx, prefix, ext, contentType, in.Data)
	if err != nil {
		return nil, err
	}
	ref := ProofRefPrefix + name

	if order != nil {
		err := s.orders.AttachProof(ctx, order.ID, ref)
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.InvalidInput(paymentAlreadyReviewed)
		}
		if err != nil {
			s.logger.Warn("Failed to link proof to order",
				zap.String("order_id", order.ID),
				zap.String("ref", ref),
				zap.Error(err))
		} else {
			order.PaymentProofRef = &ref
			publish(ctx, s.events, s.logger, models.NewOrderEvent(models.EventTypeProofAttached, order, ""))
		}
	}

	return &ProofUpload{Ref: ref, Temporary: order == nil}, nil
}

// create writes data under a fresh random name, retrying if the name is taken
func (s *ProofService) create(ctx context.Context, prefix, ext, contentType string, data []byte) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%s%d-%s.%s", prefix, s.now().UnixMilli(), uuid.NewString(), ext)
		err := s.blobs.Create(ctx, name, data, contentType)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, blob.ErrExists) {
			s.logger.Error("Failed to store proof", zap.String("name", name), zap.Error(err))
			return "", apperr.Unavailable("Unable to upload screenshot", err)
		}
	}
	return "", apperr.Unavailable("Unable to upload screenshot", blob.ErrExists)
}

// Serve opens a stored proof for a caller allowed to see it. Temporary proofs
// are visible to their uploader and admins; attached proofs to the order's
// holder and admins.
func (s *ProofService) Serve(ctx context.Context, name string, caller *auth.Identity) (*Proof, error) {
	ctx, span := util.StartSpan(ctx, "ProofService.Serve")
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if !caller.Authenticated() {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	if !proofNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return nil, apperr.InvalidInput("Invalid id")
	}

	if strings.HasPrefix(name, tempProofPrefix) {
		if !caller.Admin() && !strings.HasPrefix(name, ownerProofPrefix(caller)) {
			return nil, apperr.Forbidden("Forbidden")
		}
	} else {
		order, err := s.orders.GetOrderByProofRef(ctx, ProofRefPrefix+name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Not found")
		}
		if err != nil {
			return nil, unavailable(err)
		}
		if !caller.Admin() && !order.IsProofHolder(caller.AccountID, caller.Email) {
			return nil, apperr.Forbidden("Forbidden")
		}
	}

	// The body outlives this call's timeout; it is read by the HTTP layer.
	body, err := s.blobs.Open(context.WithoutCancel(ctx), name)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, apperr.NotFound("Not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("Unable to fetch file", err)
	}
	return &Proof{Body: body, ContentType: blob.ContentTypeFor(name)}, nil
}
