package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldCategory    = "category"
	fieldType        = "type"
	fieldImage       = "image"
	fieldSizes       = "sizes"
	fieldStock       = "stock"
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"

	metaCollection = "catalog_meta"
)

// FirestoreRemote keeps products as documents of a single collection.
type FirestoreRemote struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreRemote(client *firestore.Client, collection string) (*FirestoreRemote, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, fmt.Errorf("collection name required")
	}
	return &FirestoreRemote{client: client, collection: collection}, nil
}

var _ Remote = (*FirestoreRemote)(nil)

func (r *FirestoreRemote) col() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

func (r *FirestoreRemote) ordered() firestore.Query {
	return r.col().OrderBy(fieldCreatedAt, firestore.Desc)
}

// markerRef is the document recording that the baseline seed was written.
func (r *FirestoreRemote) markerRef() *firestore.DocumentRef {
	return r.client.Collection(metaCollection).Doc(r.collection + "_seed")
}

func (r *FirestoreRemote) List(ctx context.Context) ([]Product, error) {
	it := r.ordered().Documents(ctx)
	defer it.Stop()

	var products []Product
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: list %s: %w", r.collection, err)
		}
		p, err := decodeProductDoc(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *FirestoreRemote) Get(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, ErrNotFound
	}
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("firestore: get product %s: %w", id, err)
	}
	return decodeProductDoc(doc)
}

func (r *FirestoreRemote) Watch(ctx context.Context, deliver func([]Product), fail func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	it := r.ordered().Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				if fail != nil {
					fail(fmt.Errorf("firestore: watch %s: %w", r.collection, err))
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if ctx.Err() == nil && fail != nil {
					fail(fmt.Errorf("firestore: read snapshot: %w", err))
				}
				return
			}
			products, err := decodeProductDocs(docs)
			if err != nil {
				if fail != nil {
					fail(err)
				}
				return
			}
			deliver(products)
		}
	}()

	return cancel, nil
}

func (r *FirestoreRemote) Create(ctx context.Context, draft Draft) (Product, error) {
	ref := r.col().NewDoc()
	wr, err := ref.Create(ctx, draftFields(draft, true))
	if err != nil {
		return Product{}, fmt.Errorf("firestore: create product: %w", err)
	}
	// Server timestamps resolve to the commit time.
	return productFromDraft(ref.ID, draft, wr.UpdateTime, wr.UpdateTime), nil
}

func (r *FirestoreRemote) Update(ctx context.Context, id string, draft Draft) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, ErrNotFound
	}
	ref := r.col().Doc(id)

	fields := draftFields(draft, false)
	updates := make([]firestore.Update, 0, len(fields))
	for _, path := range []string{fieldName, fieldDescription, fieldPrice, fieldCategory, fieldType, fieldImage, fieldSizes, fieldStock, fieldUpdatedAt} {
		updates = append(updates, firestore.Update{Path: path, Value: fields[path]})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("firestore: update product %s: %w", id, err)
	}

	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("firestore: reload product %s: %w", id, err)
	}
	return decodeProductDoc(doc)
}

func (r *FirestoreRemote) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore: delete product %s: %w", id, err)
	}
	return nil
}

// Seed runs as a transaction so the products and the marker land together.
func (r *FirestoreRemote) Seed(ctx context.Context, drafts []Draft, recordMarker bool) (bool, error) {
	seeded := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		seeded = false
		marker := r.markerRef()
		if recordMarker {
			_, err := tx.Get(marker)
			if err == nil {
				return nil
			}
			if status.Code(err) != codes.NotFound {
				return err
			}
		}
		for _, draft := range drafts {
			if err := tx.Create(r.col().NewDoc(), draftFields(draft, true)); err != nil {
				return err
			}
		}
		if recordMarker {
			if err := tx.Create(marker, map[string]any{
				"collection": r.collection,
				"products":   len(drafts),
				"seededAt":   firestore.ServerTimestamp,
			}); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("firestore: seed %s: %w", r.collection, err)
	}
	return seeded, nil
}

func (r *FirestoreRemote) SeedRecorded(ctx context.Context) (bool, error) {
	_, err := r.markerRef().Get(ctx)
	if err == nil {
		return true, nil
	}
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return false, fmt.Errorf("firestore: read seed marker: %w", err)
}

func draftFields(draft Draft, withCreatedAt bool) map[string]any {
	sizes := draft.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	price, _ := draft.Price.Float64()
	fields := map[string]any{
		fieldName:        draft.Name,
		fieldDescription: draft.Description,
		fieldPrice:       price,
		fieldCategory:    string(draft.Category),
		fieldType:        string(draft.Type),
		fieldImage:       draft.ImageURL,
		fieldSizes:       sizes,
		fieldStock:       int64(draft.Stock),
		fieldUpdatedAt:   firestore.ServerTimestamp,
	}
	if withCreatedAt {
		fields[fieldCreatedAt] = firestore.ServerTimestamp
	}
	return fields
}

func decodeProductDocs(docs []*firestore.DocumentSnapshot) ([]Product, error) {
	products := make([]Product, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProductDoc(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func decodeProductDoc(doc *firestore.DocumentSnapshot) (Product, error) {
	if doc == nil || !doc.Exists() {
		return Product{}, ErrNotFound
	}
	p := decodeProductData(doc.Ref.ID, doc.Data())
	if p.CreatedAt.IsZero() {
		p.CreatedAt = doc.CreateTime
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = doc.UpdateTime
	}
	return p, nil
}

// decodeProductData reads a product document leniently: documents written by
// other clients may store numbers as integers or doubles.
func decodeProductData(id string, data map[string]any) Product {
	return Product{
		ID:          id,
		Name:        asString(data[fieldName]),
		Description: asString(data[fieldDescription]),
		Price:       asDecimal(data[fieldPrice]),
		Category:    enums.ProductCategory(asString(data[fieldCategory])),
		Type:        enums.ProductType(asString(data[fieldType])),
		Sizes:       asStrings(data[fieldSizes]),
		Stock:       asInt(data[fieldStock]),
		ImageURL:    asString(data[fieldImage]),
		CreatedAt:   asTime(data[fieldCreatedAt]),
		UpdatedAt:   asTime(data[fieldUpdatedAt]),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t).Round(2)
	case int64:
		return decimal.NewFromInt(t)
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(math.Trunc(t))
	default:
		return 0
	}
}

func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, asString(item))
	}
	return out
}

func asTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
