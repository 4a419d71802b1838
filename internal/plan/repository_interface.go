package plan

import "context"

type Repository interface {
	Create(ctx context.Context, p *Plan) (*Plan, error)
	GetByID(ctx context.Context, id int) (*Plan, error)
	List(ctx context.Context, onlyActive bool) ([]Plan, error)
	Update(ctx context.Context, p *Plan) (*Plan, error)
	SetProviderRefs(ctx context.Context, id int, productID, priceID *string, syncedPriceCents *int64) error
	Delete(ctx context.Context, id int) error
}
