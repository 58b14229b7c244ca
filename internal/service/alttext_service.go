package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/makkenzo/alttext-service-api/internal/domain/image"
	"github.com/makkenzo/alttext-service-api/internal/domain/principal"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/metrics"
	"github.com/makkenzo/alttext-service-api/internal/util"
	"go.uber.org/zap"
)

type (
	PrincipalResolver interface {
		Resolve(ctx context.Context, creds Credentials) (principal.Principal, error)
	}
	QuotaChecker interface {
		Check(ctx context.Context, userID uuid.UUID) Quota
	}
	ResultCache interface {
		Get(ctx context.Context, locator string, variant caption.Variant) (string, bool)
		Put(ctx context.Context, locator string, variant caption.Variant, text string)
	}
	Captioner interface {
		Generate(ctx context.Context, imageURL string, variant caption.Variant) (string, error)
	}
	UsageRecorder interface {
		Record(ctx context.Context, p principal.Principal, status int, cached bool)
	}
	// URLResolver turns an object-storage key into a fetchable URL.
	URLResolver interface {
		URL(ctx context.Context, key string) (string, error)
	}
)

// GenerateRequest names the image to describe. The first non-empty of
// ImageID, StoragePath and ImageURL wins.
type GenerateRequest struct {
	ImageID     uuid.UUID
	StoragePath string
	ImageURL    string
	Variant     caption.Variant
	IsGuest     bool
}

type GenerateResult struct {
	AltText string
	Cached  bool
	Guest   bool
}

type AltTextService struct {
	credentials PrincipalResolver
	limiter     QuotaChecker
	cache       ResultCache
	captioner   Captioner
	usage       UsageRecorder
	images      image.Store
	urls        URLResolver
	logger      *zap.Logger
}

func NewAltTextService(
	credentials PrincipalResolver,
	limiter QuotaChecker,
	cache ResultCache,
	captioner Captioner,
	usage UsageRecorder,
	images image.Store,
	urls URLResolver,
	logger *zap.Logger,
) *AltTextService {
	return &AltTextService{
		credentials: credentials,
		limiter:     limiter,
		cache:       cache,
		captioner:   captioner,
		usage:       usage,
		images:      images,
		urls:        urls,
		logger:      logger.Named("AltTextService"),
	}
}

type target struct {
	url     string
	locator string
	imageID uuid.UUID
}

// Generate runs one request through authentication, quota, cache and the
// captioning backend.
func (s *AltTextService) Generate(ctx context.Context, creds Credentials, req GenerateRequest) (res *GenerateResult, err error) {
	variant := caption.ParseVariant(string(req.Variant))
	mode := "anonymous"
	defer func() {
		metrics.Requests.WithLabelValues(mode, strconv.Itoa(ierr.HTTPStatus(err))).Inc()
	}()

	if isBlobURI(req.StoragePath) {
		return nil, fmt.Errorf("%w: blob: URIs only exist in the browser and cannot be processed", ierr.ErrValidation)
	}
	if req.IsGuest && isImageDataURI(req.StoragePath) {
		mode = "guest"
		return s.generateGuest(ctx, req.StoragePath, variant)
	}

	p, err := s.credentials.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	mode = p.Mode()

	var cached bool
	defer func() {
		s.usage.Record(ctx, p, ierr.HTTPStatus(err), cached)
	}()

	if sess, ok := p.(principal.Session); ok {
		quota := s.limiter.Check(ctx, sess.UserID)
		if !quota.CanProceed {
			metrics.QuotaRejections.Inc()
			s.logger.Info("Daily limit reached",
				zap.String("user_id", sess.UserID.String()),
				zap.Int("count", quota.Count),
				zap.Int("limit", quota.Limit),
			)
			return nil, &ierr.QuotaError{Limit: quota.Limit, Count: quota.Count}
		}
	}

	t, err := s.resolveTarget(ctx, p.OwnerID(), req)
	if err != nil {
		return nil, err
	}

	if text, ok := s.cache.Get(ctx, t.locator, variant); ok {
		cached = true
		s.logger.Debug("Serving cached caption", zap.String("mode", mode), zap.String("variant", string(variant)))
		return &GenerateResult{AltText: text, Cached: true}, nil
	}

	text, err := s.captioner.Generate(ctx, t.url, variant)
	if err != nil {
		s.logger.Error("Caption generation failed",
			zap.String("user_id", p.OwnerID().String()),
			zap.String("variant", string(variant)),
			zap.Error(err),
		)
		return nil, err
	}

	s.cache.Put(ctx, t.locator, variant, text)

	if t.imageID != uuid.Nil {
		if err := s.images.ForUser(p.OwnerID()).SetAltText(ctx, t.imageID, text); err != nil {
			s.logger.Warn("Failed to store alt text on image",
				zap.String("image_id", t.imageID.String()),
				zap.Error(err),
			)
		}
	}

	return &GenerateResult{AltText: text}, nil
}

func (s *AltTextService) generateGuest(ctx context.Context, dataURI string, variant caption.Variant) (*GenerateResult, error) {
	text, err := s.captioner.Generate(ctx, dataURI, variant)
	if err != nil {
		s.logger.Warn("Guest caption generation failed", zap.Error(err))
		return nil, err
	}
	return &GenerateResult{AltText: text, Guest: true}, nil
}

func (s *AltTextService) resolveTarget(ctx context.Context, owner uuid.UUID, req GenerateRequest) (target, error) {
	switch {
	case req.ImageID != uuid.Nil:
		img, err := s.images.ForUser(owner).Get(ctx, req.ImageID)
		if err != nil {
			if errors.Is(err, image.ErrNotFound) {
				return target{}, fmt.Errorf("%w: %s", ierr.ErrImageNotFound, req.ImageID)
			}
			return target{}, fmt.Errorf("load image %s: %w", req.ImageID, err)
		}
		t, err := s.pathTarget(ctx, img.StoragePath)
		if err != nil {
			return target{}, err
		}
		t.imageID = img.ID
		return t, nil
	case req.StoragePath != "":
		return s.pathTarget(ctx, req.StoragePath)
	case req.ImageURL != "":
		return target{url: req.ImageURL, locator: req.ImageURL}, nil
	default:
		return target{}, fmt.Errorf("%w: one of imageId, storagePath or imageUrl is required", ierr.ErrValidation)
	}
}

func (s *AltTextService) pathTarget(ctx context.Context, path string) (target, error) {
	switch {
	case isBlobURI(path):
		return target{}, fmt.Errorf("%w: blob: URIs cannot be processed", ierr.ErrValidation)
	case strings.HasPrefix(path, "data:"):
		return target{url: path, locator: util.HashLocator(path)}, nil
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return target{url: path, locator: path}, nil
	}

	url, err := s.urls.URL(ctx, path)
	if err != nil {
		s.logger.Error("Failed to resolve storage URL", zap.String("path", path), zap.Error(err))
		return target{}, fmt.Errorf("resolve storage url: %w", err)
	}
	return target{url: url, locator: path}, nil
}

func isBlobURI(s string) bool {
	return strings.HasPrefix(s, "blob:")
}

func isImageDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}
