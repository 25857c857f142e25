package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/balcao-pos/balcao/internal/catalog"
	"github.com/balcao-pos/balcao/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListHeaders(ctx context.Context, kind Kind, limit int) ([]Header, error)
	FindHeader(ctx context.Context, kind Kind, headerID int64) (Header, error)
	HeaderLines(ctx context.Context, kind Kind, headerID int64) ([]Line, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// PostedHook runs after a successful commit, outside the transaction.
type PostedHook func(ctx context.Context, kind Kind, headerID int64, total int64)

// Service posts purchase and sale batches atomically.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	posted PostedHook
	now    func() time.Time
}

// NewService builds Service. audit and posted may be nil.
func NewService(repo RepositoryPort, audit AuditPort, posted PostedHook) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		posted: posted,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Post commits one batch of lines as a single purchase or sale. Either every
// row (header, lines, product mutations) becomes visible together, or none
// do. Lines are processed strictly in input order: a duplicate product id in
// one batch sees the stock effect of its earlier lines.
func (s *Service) Post(ctx context.Context, kind Kind, lines []LineInput) (int64, error) {
	if err := validateBatch(kind, lines); err != nil {
		return 0, err
	}

	var total int64
	for _, line := range lines {
		total += line.Quantity * line.UnitPrice(kind)
	}

	now := s.now()
	var headerID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertHeader(ctx, kind, total, now)
		if err != nil {
			return err
		}
		headerID = id

		for _, line := range lines {
			productID, err := s.applyLine(ctx, tx, kind, line, now)
			if err != nil {
				return err
			}
			price := line.UnitPrice(kind)
			if err := tx.InsertLine(ctx, kind, Line{
				ProductID: productID,
				HeaderID:  headerID,
				Price:     price,
				Quantity:  line.Quantity,
				Total:     price * line.Quantity,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.recordAudit(ctx, kind, headerID, total, len(lines))
	if s.posted != nil {
		s.posted(ctx, kind, headerID, total)
	}
	return headerID, nil
}

// applyLine resolves the line's product and adjusts its stock, returning the
// persisted product id.
func (s *Service) applyLine(ctx context.Context, tx TxRepository, kind Kind, line LineInput, now time.Time) (int64, error) {
	if line.ProductID == 0 {
		// Only a purchase may establish a brand-new product; sales against
		// unknown products are rejected before the transaction starts.
		return tx.InsertProduct(ctx, catalog.Product{
			Name:          line.Name,
			EAN:           line.EAN,
			PriceSale:     line.PriceSale,
			PricePurchase: line.PricePurchase,
			Quantity:      line.Quantity,
			CreatedAt:     now,
		})
	}

	existing, err := tx.FindProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return 0, NotFoundError{ProductID: line.ProductID}
		}
		return 0, err
	}

	switch kind {
	case KindPurchase:
		existing.Quantity += line.Quantity
		existing.PricePurchase = line.PricePurchase
	case KindSale:
		existing.Quantity -= line.Quantity
		if existing.Quantity < 0 {
			return 0, InsufficientStockError{ProductID: line.ProductID}
		}
		existing.PriceSale = line.PriceSale
	}

	if err := tx.UpdateProduct(ctx, existing); err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// ListHeaders returns recent postings of one kind.
func (s *Service) ListHeaders(ctx context.Context, kind Kind, limit int) ([]Header, error) {
	if kind != KindPurchase && kind != KindSale {
		return nil, ErrInvalidKind
	}
	return s.repo.ListHeaders(ctx, kind, limit)
}

// Header returns one stored posting with its lines. The header total is the
// value fixed at posting time, never recomputed from the lines.
func (s *Service) Header(ctx context.Context, kind Kind, headerID int64) (Header, []Line, error) {
	if kind != KindPurchase && kind != KindSale {
		return Header{}, nil, ErrInvalidKind
	}
	header, err := s.repo.FindHeader(ctx, kind, headerID)
	if err != nil {
		return Header{}, nil, err
	}
	lines, err := s.repo.HeaderLines(ctx, kind, headerID)
	if err != nil {
		return Header{}, nil, err
	}
	return header, lines, nil
}

func validateBatch(kind Kind, lines []LineInput) error {
	if kind != KindPurchase && kind != KindSale {
		return ErrInvalidKind
	}
	if len(lines) == 0 {
		return ErrEmptyBatch
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if line.PriceSale < 0 || line.PricePurchase < 0 {
			return ErrInvalidPrice
		}
		if line.ProductID == 0 && kind == KindSale {
			return ErrUnknownProduct
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, kind Kind, headerID, total int64, lineCount int) {
	if s.audit == nil {
		return
	}
	sess := shared.SessionFromContext(ctx)
	var actor int64
	if sess != nil {
		actor = sess.OperatorID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "ledger:" + string(kind),
		Entity:   "posting",
		EntityID: string(kind) + ":" + strconv.FormatInt(headerID, 10),
		Meta: map[string]any{
			"total": total,
			"lines": lineCount,
		},
	})
}
