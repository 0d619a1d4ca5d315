package resolver

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.86

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/generated"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/model"
)

// CreateSale is the resolver for the createSale field.
func (r *mutationResolver) CreateSale(ctx context.Context, input model.CreateSaleInput) (*domain.Sale, error) {
	return r.sales.Create(ctx, sale.CreateInput{
		Client:         input.Client,
		Product:        input.Product,
		Amount:         input.Amount,
		SaleDate:       input.SaleDate,
		QuoteID:        input.QuoteID,
		AttachmentPath: deref(input.AttachmentPath),
	})
}

// UpdateSale is the resolver for the updateSale field.
func (r *mutationResolver) UpdateSale(ctx context.Context, id uuid.UUID, input model.UpdateSaleInput) (bool, error) {
	err := r.sales.Update(ctx, id, sale.UpdateInput{
		Client:         input.Client,
		Product:        input.Product,
		Amount:         input.Amount,
		SaleDate:       input.SaleDate,
		AttachmentPath: input.AttachmentPath,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteSale is the resolver for the deleteSale field.
func (r *mutationResolver) DeleteSale(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.sales.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Sales is the resolver for the sales field.
func (r *queryResolver) Sales(ctx context.Context, seller *uuid.UUID) (*model.SaleList, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	state := r.sales.State()
	filter := sellerFilter(seller)

	list := &model.SaleList{
		Records:   make([]domain.Sale, 0, len(state.Records)),
		IsLoading: state.Loading,
		Error:     errString(state.Err),
	}
	for _, s := range state.Records {
		if filter != uuid.Nil && s.SellerID != filter {
			continue
		}
		list.Records = append(list.Records, s)
	}
	return list, nil
}

// Sale is the resolver for the sale field.
func (r *queryResolver) Sale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	s, ok := r.sales.Find(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Quote is the resolver for the quote field.
func (r *saleResolver) Quote(ctx context.Context, obj *domain.Sale) (*domain.Quote, error) {
	if obj.QuoteID == nil {
		return nil, nil
	}
	return dataloader.FromContext(ctx).QuoteByID.Load(ctx, *obj.QuoteID)()
}

// Sale returns generated.SaleResolver implementation.
func (r *Resolver) Sale() generated.SaleResolver { return &saleResolver{r} }

type saleResolver struct{ *Resolver }
