package resolver

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.86

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/generated"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/graphql/model"
)

// CreateQuote is the resolver for the createQuote field.
func (r *mutationResolver) CreateQuote(ctx context.Context, input model.CreateQuoteInput) (*domain.Quote, error) {
	in := quote.CreateInput{
		Client:         input.Client,
		Description:    deref(input.Description),
		Amount:         input.Amount,
		ProposalDate:   input.ProposalDate,
		FollowUp:       deref(input.FollowUp),
		AttachmentPath: deref(input.AttachmentPath),
	}
	if input.Status != nil {
		in.Status = domain.QuoteStatus(*input.Status)
	}
	return r.quotes.Create(ctx, in)
}

// UpdateQuote is the resolver for the updateQuote field.
func (r *mutationResolver) UpdateQuote(ctx context.Context, id uuid.UUID, input model.UpdateQuoteInput) (bool, error) {
	in := quote.UpdateInput{
		Client:         input.Client,
		Description:    input.Description,
		Amount:         input.Amount,
		ProposalDate:   input.ProposalDate,
		FollowUp:       input.FollowUp,
		AttachmentPath: input.AttachmentPath,
	}
	if input.Status != nil {
		status := domain.QuoteStatus(*input.Status)
		in.Status = &status
	}
	if err := r.quotes.Update(ctx, id, in); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteQuote is the resolver for the deleteQuote field.
func (r *mutationResolver) DeleteQuote(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.quotes.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleFollowUpAck is the resolver for the toggleFollowUpAck field.
func (r *mutationResolver) ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (*followup.Schedule, error) {
	sched, err := r.quotes.ToggleFollowUpAck(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// ConvertQuoteToSale is the resolver for the convertQuoteToSale field.
func (r *mutationResolver) ConvertQuoteToSale(ctx context.Context, id uuid.UUID, input model.ConvertQuoteInput) (*domain.Sale, error) {
	in := quote.ConvertInput{
		Product: input.Product,
		Amount:  input.Amount,
	}
	if input.SaleDate != nil {
		in.SaleDate = *input.SaleDate
	}
	return r.quotes.ConvertToSale(ctx, id, in)
}

// Quotes is the resolver for the quotes field.
func (r *queryResolver) Quotes(ctx context.Context, seller *uuid.UUID) (*model.QuoteList, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	state := r.quotes.State()
	filter := sellerFilter(seller)

	list := &model.QuoteList{
		Records:   make([]domain.Quote, 0, len(state.Records)),
		IsLoading: state.Loading,
		Error:     errString(state.Err),
	}
	for _, q := range state.Records {
		if filter != uuid.Nil && q.SellerID != filter {
			continue
		}
		list.Records = append(list.Records, q)
	}
	return list, nil
}

// Quote is the resolver for the quote field.
func (r *queryResolver) Quote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	q, ok := r.quotes.Find(id)
	if !ok {
		return nil, nil
	}
	return &q, nil
}

// Reminders is the resolver for the reminders field.
func (r *queryResolver) Reminders(ctx context.Context, seller *uuid.UUID) ([]quote.Reminder, error) {
	if err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	return r.quotes.DueReminders(r.now(), sellerFilter(seller)), nil
}

// Status is the resolver for the status field.
func (r *quoteResolver) Status(ctx context.Context, obj *domain.Quote) (string, error) {
	return string(obj.Status), nil
}

// FollowUpStatus is the resolver for the followUpStatus field.
func (r *quoteResolver) FollowUpStatus(ctx context.Context, obj *domain.Quote) (string, error) {
	return followup.Status(r.now(), quote.ScheduleOf(*obj), r.loc).String(), nil
}

// Status is the resolver for the status field.
func (r *reminderResolver) Status(ctx context.Context, obj *quote.Reminder) (string, error) {
	return obj.Status.String(), nil
}

// Quote returns generated.QuoteResolver implementation.
func (r *Resolver) Quote() generated.QuoteResolver { return &quoteResolver{r} }

// Reminder returns generated.ReminderResolver implementation.
func (r *Resolver) Reminder() generated.ReminderResolver { return &reminderResolver{r} }

type quoteResolver struct{ *Resolver }
type reminderResolver struct{ *Resolver }
