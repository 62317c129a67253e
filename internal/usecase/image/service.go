package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
)

const maxParallelUploads = 3

// ObjectStore stores and removes image objects
type ObjectStore interface {
	Put(ctx context.Context, path string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, reference string) error
	PublicURL(reference string) string
}

// Converter turns HEIC/HEIF images into a standard encoding
type Converter interface {
	Convert(ctx context.Context, data []byte, contentType string) ([]byte, string, error)
}

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheInvalidator drops cached park review lists
type CacheInvalidator interface {
	InvalidateParkReviews(ctx context.Context, parkID uuid.UUID) error
}

// Service attaches images to reviews and detaches them
type Service struct {
	reviews   domain.ReviewRepository
	images    domain.ImageRepository
	tx        TxRunner
	store     ObjectStore
	converter Converter
	cache     CacheInvalidator
	publisher domain.EventPublisher
	metrics   *observability.Metrics
	logger    *logger.Logger
}

// NewService creates a new image service. converter may be nil, in which case HEIC is rejected.
func NewService(
	reviews domain.ReviewRepository,
	images domain.ImageRepository,
	tx TxRunner,
	store ObjectStore,
	converter Converter,
	cache CacheInvalidator,
	publisher domain.EventPublisher,
	metrics *observability.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		reviews:   reviews,
		images:    images,
		tx:        tx,
		store:     store,
		converter: converter,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
	}
}

// sniffed is an upload whose real type was detected from its bytes
type sniffed struct {
	data        []byte
	contentType string
	extension   string
	heic        bool
}

// Check validates a batch without side effects: size and detected type of every item.
func (s *Service) Check(uploads []domain.ImageUpload) error {
	_, err := s.sniff(uploads)
	return err
}

func (s *Service) sniff(uploads []domain.ImageUpload) ([]sniffed, error) {
	out := make([]sniffed, 0, len(uploads))
	for i, u := range uploads {
		if len(u.Data) == 0 {
			return nil, domain.NewImageError(domain.ErrInvalidInput, fmt.Sprintf("image %d is empty", i+1))
		}
		if len(u.Data) > domain.MaxImageSize || u.Size > domain.MaxImageSize {
			return nil, domain.NewImageError(domain.ErrImageTooLarge, fmt.Sprintf("image %d exceeds 5 MiB", i+1))
		}

		mt := mimetype.Detect(u.Data)
		ct := mt.String()
		if semi := strings.Index(ct, ";"); semi >= 0 {
			ct = ct[:semi]
		}

		switch {
		case strings.HasPrefix(ct, "image/heic"), strings.HasPrefix(ct, "image/heif"):
			if s.converter == nil {
				return nil, domain.NewImageError(domain.ErrUnsupportedType, fmt.Sprintf("image %d is HEIC/HEIF, which cannot be converted right now", i+1))
			}
			out = append(out, sniffed{data: u.Data, contentType: ct, heic: true})
		case strings.HasPrefix(ct, "image/") && ct != "image/svg+xml":
			out = append(out, sniffed{data: u.Data, contentType: ct, extension: mt.Extension()})
		default:
			return nil, domain.NewImageError(domain.ErrUnsupportedType, fmt.Sprintf("image %d has unsupported type %s", i+1, ct))
		}
	}
	return out, nil
}

// convert replaces HEIC/HEIF items with their converted form
func (s *Service) convert(ctx context.Context, items []sniffed) error {
	for i := range items {
		if !items[i].heic {
			continue
		}

		data, ct, err := s.converter.Convert(ctx, items[i].data, items[i].contentType)
		if err != nil {
			return fmt.Errorf("convert image %d: %w", i+1, err)
		}
		if len(data) > domain.MaxImageSize {
			return domain.NewImageError(domain.ErrImageTooLarge, fmt.Sprintf("image %d exceeds 5 MiB after conversion", i+1))
		}

		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return domain.NewImageError(domain.ErrUnsupportedType, fmt.Sprintf("image %d could not be converted", i+1))
		}
		if ct == "" || !strings.HasPrefix(ct, "image/") {
			ct = mt.String()
		}

		items[i] = sniffed{data: data, contentType: ct, extension: mt.Extension()}
	}
	return nil
}

// owned re-reads the review and checks the requester is its author
func (s *Service) owned(ctx context.Context, reviewID, requesterID uuid.UUID) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != requesterID {
		return nil, domain.ErrForbidden
	}
	return review, nil
}

// Attach validates, converts and uploads a batch of images, then records them.
// Either every image of the batch is attached or none is.
func (s *Service) Attach(ctx context.Context, reviewID, requesterID uuid.UUID, uploads []domain.ImageUpload) ([]*domain.ReviewImage, error) {
	if len(uploads) == 0 {
		return []*domain.ReviewImage{}, nil
	}

	review, err := s.owned(ctx, reviewID, requesterID)
	if err != nil {
		return nil, err
	}

	items, err := s.sniff(uploads)
	if err != nil {
		return nil, err
	}

	existing, err := s.images.CountByReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if existing+len(items) > domain.MaxImagesPerReview {
		return nil, tooMany(existing, len(items))
	}

	if err := s.convert(ctx, items); err != nil {
		return nil, err
	}

	records, err := s.upload(ctx, reviewID, items)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.LockForUpdate(ctx, reviewID); err != nil {
			return err
		}
		count, err := s.images.CountByReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if count+len(records) > domain.MaxImagesPerReview {
			return tooMany(count, len(records))
		}
		return s.images.CreateBatch(ctx, records)
	})
	if err != nil {
		s.purge(ctx, records)
		return nil, err
	}

	s.metrics.RecordImagesAttached(ctx, len(records))
	s.invalidate(ctx, review.ParkID)
	s.publishEvent(domain.EventImagesAdded, review)

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id": reviewID,
		"count":     len(records),
	}).Info("Images attached")

	return records, nil
}

// upload stores all items concurrently; on any failure the objects already stored are removed
func (s *Service) upload(ctx context.Context, reviewID uuid.UUID, items []sniffed) ([]*domain.ReviewImage, error) {
	records := make([]*domain.ReviewImage, len(items))
	var mu sync.Mutex
	var stored []*domain.ReviewImage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for i, item := range items {
		g.Go(func() error {
			path := fmt.Sprintf("reviews/%s/%s%s", reviewID, uuid.New(), item.extension)
			ref, err := s.store.Put(gctx, path, item.data, item.contentType)
			if err != nil {
				return err
			}

			rec := &domain.ReviewImage{
				ReviewID:    reviewID,
				URL:         s.store.PublicURL(ref),
				StoragePath: ref,
				ContentType: item.contentType,
				SizeBytes:   int64(len(item.data)),
			}
			records[i] = rec

			mu.Lock()
			stored = append(stored, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.purge(ctx, stored)
		return nil, storageError(err)
	}

	return records, nil
}

// purge deletes stored objects best-effort
func (s *Service) purge(ctx context.Context, records []*domain.ReviewImage) {
	ctx = context.WithoutCancel(ctx)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if err := s.store.Delete(ctx, rec.StoragePath); err != nil {
			s.logger.FromContext(ctx).Warnf("Failed to clean up uploaded image %s: %v", rec.StoragePath, err)
		}
	}
}

// Detach removes one image from a review. The stored object goes first;
// if that fails the row stays, so no row ever points at a missing object.
func (s *Service) Detach(ctx context.Context, reviewID, requesterID uuid.UUID, url string) error {
	review, err := s.owned(ctx, reviewID, requesterID)
	if err != nil {
		return err
	}

	img, err := s.images.GetByURL(ctx, reviewID, url)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, img.StoragePath); err != nil {
		return storageError(err)
	}

	if err := s.images.Delete(ctx, img.ID); err != nil {
		// the object is already gone; a retry finds the row and finishes the job
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	s.invalidate(ctx, review.ParkID)
	s.publishEvent(domain.EventImageRemoved, review)

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id": reviewID,
		"image_id":  img.ID,
	}).Info("Image detached")

	return nil
}

func (s *Service) invalidate(ctx context.Context, parkID uuid.UUID) {
	if err := s.cache.InvalidateParkReviews(ctx, parkID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for park %s: %v", parkID, err)
	}
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(eventType string, review *domain.Review) {
	event := domain.ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ReviewID:  review.ID,
		ParkID:    review.ParkID,
		AuthorID:  review.AuthorID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), domain.ReviewEventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}

func tooMany(existing, adding int) error {
	return domain.NewImageError(domain.ErrTooManyImages,
		fmt.Sprintf("a review can have at most %d images (has %d, adding %d)", domain.MaxImagesPerReview, existing, adding))
}

// storageError makes sure an object store failure is reported as a storage or availability error
func storageError(err error) error {
	if errors.Is(err, domain.ErrStorage) || errors.Is(err, domain.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
